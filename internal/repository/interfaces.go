package repository

import "labelvision/internal/model"

// ObjectRepository defines catalog operations for locally stored objects.
type ObjectRepository interface {
	// Create operations
	Upsert(obj *model.StoredObject) (int64, error)

	// Read operations
	Get(bucket, key string) (*model.StoredObject, error)
	List(bucket, prefix string, limit int) ([]model.StoredObject, error)
	Count(bucket string) (int, error)

	// Delete operations
	Delete(bucket, key string) error
}
