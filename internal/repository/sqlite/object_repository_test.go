package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"labelvision/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestObjectRepository_UpsertAndGet(t *testing.T) {
	repo := NewObjectRepository(setupTestDB(t))

	obj := &model.StoredObject{
		Bucket:      "photos",
		Key:         "uploads/1_a.jpg",
		ContentType: "image/jpeg",
		Size:        1024,
		Path:        "/data/photos/uploads/1_a.jpg",
		CreatedAt:   time.Now(),
	}

	id, err := repo.Upsert(obj)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := repo.Get("photos", "uploads/1_a.jpg")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "image/jpeg", got.ContentType)
	assert.Equal(t, int64(1024), got.Size)

	// Same bucket/key replaces the record instead of failing.
	obj.Size = 2048
	id2, err := repo.Upsert(obj)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	got, err = repo.Get("photos", "uploads/1_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), got.Size)
}

func TestObjectRepository_GetMissing(t *testing.T) {
	repo := NewObjectRepository(setupTestDB(t))

	got, err := repo.Get("photos", "missing.jpg")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestObjectRepository_ListCountDelete(t *testing.T) {
	repo := NewObjectRepository(setupTestDB(t))

	base := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	keys := []string{"uploads/1_a.jpg", "uploads/2_b.jpg", "archive/c.jpg", "uploads_x/d.jpg"}
	for i, key := range keys {
		_, err := repo.Upsert(&model.StoredObject{
			Bucket:    "photos",
			Key:       key,
			Path:      "/data/" + key,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := repo.Upsert(&model.StoredObject{Bucket: "other", Key: "uploads/z.jpg", Path: "/z", CreatedAt: base})
	require.NoError(t, err)

	all, err := repo.List("photos", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "uploads_x/d.jpg", all[0].Key, "newest first")

	uploads, err := repo.List("photos", "uploads/", 0)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "uploads/2_b.jpg", uploads[0].Key)

	limited, err := repo.List("photos", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	count, err := repo.Count("photos")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, repo.Delete("photos", "archive/c.jpg"))
	count, err = repo.Count("photos")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestObjectRepository_ConcurrentUpserts(t *testing.T) {
	repo := NewObjectRepository(setupTestDB(t))

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Upsert(&model.StoredObject{
				Bucket:    "photos",
				Key:       "concurrent_" + string(rune('a'+idx)) + ".jpg",
				Size:      100,
				Path:      "/objects/",
				CreatedAt: time.Now(),
			})
			assert.NoError(t, err, "Concurrent upsert %d failed", idx)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	count, err := repo.Count("photos")
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}
