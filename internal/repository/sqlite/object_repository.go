package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"labelvision/internal/model"
)

// ObjectRepository implements repository.ObjectRepository for SQLite.
type ObjectRepository struct {
	db *DB
}

// NewObjectRepository creates a new SQLite object repository.
func NewObjectRepository(db *DB) *ObjectRepository {
	return &ObjectRepository{db: db}
}

// Upsert inserts an object record or replaces the one with the same bucket and key.
func (r *ObjectRepository) Upsert(obj *model.StoredObject) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO objects (bucket, object_key, content_type, size, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(bucket, object_key) DO UPDATE SET
			content_type = excluded.content_type,
			size = excluded.size,
			path = excluded.path,
			created_at = excluded.created_at
	`, obj.Bucket, obj.Key, obj.ContentType, obj.Size, obj.Path, obj.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert object: %w", err)
	}

	var id int64
	err = r.db.Conn().QueryRow(`SELECT id FROM objects WHERE bucket = ? AND object_key = ?`, obj.Bucket, obj.Key).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read object id: %w", err)
	}
	return id, nil
}

// Get retrieves an object by bucket and key. Returns nil, nil when absent.
func (r *ObjectRepository) Get(bucket, key string) (*model.StoredObject, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var obj model.StoredObject
	err := r.db.Conn().QueryRow(`
		SELECT id, bucket, object_key, content_type, size, path, created_at
		FROM objects WHERE bucket = ? AND object_key = ?
	`, bucket, key).Scan(&obj.ID, &obj.Bucket, &obj.Key, &obj.ContentType, &obj.Size, &obj.Path, &obj.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return &obj, nil
}

// List returns objects of a bucket whose key starts with prefix, newest first.
// A limit <= 0 returns all of them.
func (r *ObjectRepository) List(bucket, prefix string, limit int) ([]model.StoredObject, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, bucket, object_key, content_type, size, path, created_at
		FROM objects WHERE bucket = ?
	`
	args := []interface{}{bucket}

	if prefix != "" {
		query += " AND object_key LIKE ? ESCAPE '\\'"
		args = append(args, escapeLike(prefix)+"%")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	var objects []model.StoredObject
	for rows.Next() {
		var obj model.StoredObject
		if err := rows.Scan(&obj.ID, &obj.Bucket, &obj.Key, &obj.ContentType, &obj.Size, &obj.Path, &obj.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		objects = append(objects, obj)
	}

	return objects, rows.Err()
}

// Count returns the number of objects in a bucket.
func (r *ObjectRepository) Count(bucket string) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM objects WHERE bucket = ?`, bucket).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count objects: %w", err)
	}
	return count, nil
}

// Delete removes an object record.
func (r *ObjectRepository) Delete(bucket, key string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM objects WHERE bucket = ? AND object_key = ?`, bucket, key); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
