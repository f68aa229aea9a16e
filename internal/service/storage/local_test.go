package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"labelvision/internal/logger"
	"labelvision/internal/model"
	"labelvision/internal/repository"
	"labelvision/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.New(filepath.Join(dir, "objects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := filepath.Join(dir, "objects")
	return NewLocalStore(root, sqlite.NewObjectRepository(db), logger.Nop()), root
}

func TestLocalStore_PutExistsSource(t *testing.T) {
	store, root := setupLocalStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "photos", "uploads/1_car.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "photos", "uploads", "1_car.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	exists, err := store.Exists(ctx, "photos", "uploads/1_car.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	src, err := store.Source(ctx, model.ObjectRef{Bucket: "photos", Key: "uploads/1_car.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), src.Bytes)
	assert.Nil(t, src.Object)
}

func TestLocalStore_Missing(t *testing.T) {
	store, root := setupLocalStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "photos", "nope.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Source(ctx, model.ObjectRef{Bucket: "photos", Key: "nope.jpg"})
	assert.Error(t, err)

	// Catalogued but deleted from disk.
	require.NoError(t, store.Put(ctx, "photos", "gone.jpg", []byte("x"), ""))
	require.NoError(t, os.Remove(filepath.Join(root, "photos", "gone.jpg")))
	exists, err = store.Exists(ctx, "photos", "gone.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := store.Count(ctx, "photos")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLocalStore_CountList(t *testing.T) {
	store, _ := setupLocalStore(t)
	ctx := context.Background()

	for _, key := range []string{"cars/1.jpg", "cars/2.jpg", "dogs/1.jpg"} {
		require.NoError(t, store.Put(ctx, "photos", key, []byte("x"), "image/jpeg"))
	}
	require.NoError(t, store.Put(ctx, "other", "cars/3.jpg", []byte("x"), ""))

	n, err := store.Count(ctx, "photos")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys, err := store.List(ctx, "photos", "cars/", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cars/1.jpg", "cars/2.jpg"}, keys)
}

type failingUpserts struct {
	repository.ObjectRepository
}

func (f failingUpserts) Upsert(obj *model.StoredObject) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestLocalStore_CatalogFailureKeepsExistingObject(t *testing.T) {
	store, root := setupLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "photos", "car.jpg", []byte("original"), "image/jpeg"))

	broken := NewLocalStore(root, failingUpserts{store.objects}, logger.Nop())
	err := broken.Put(ctx, "photos", "car.jpg", []byte("replacement"), "image/jpeg")
	require.Error(t, err)

	data, err := store.Read(ctx, model.ObjectRef{Bucket: "photos", Key: "car.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)

	leftovers, err := filepath.Glob(filepath.Join(root, "photos", ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, _ := setupLocalStore(t)

	for _, key := range []string{"../../etc/passwd", "", "../photos2/x"} {
		err := store.Put(context.Background(), "photos", key, []byte("x"), "")
		assert.Error(t, err, "key %q", key)
	}
	assert.Error(t, store.Put(context.Background(), "", "a.jpg", []byte("x"), ""))
}
