package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labelvision/internal/logger"
	"labelvision/internal/model"
	"labelvision/internal/repository"

	"github.com/pkg/errors"
)

// LocalStore keeps images on disk under root/<bucket>/<key> and records them
// in a catalog. The detector cannot pull from it, so Source returns bytes.
type LocalStore struct {
	root    string
	objects repository.ObjectRepository
	logger  *logger.Logger
	now     func() time.Time
}

// NewLocalStore creates a disk-backed blob store rooted at root.
func NewLocalStore(root string, objects repository.ObjectRepository, logger *logger.Logger) *LocalStore {
	return &LocalStore{
		root:    root,
		objects: objects,
		logger:  logger,
		now:     time.Now,
	}
}

// Put writes data to disk and records it in the catalog.
func (s *LocalStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	fullpath, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullpath), 0755); err != nil {
		return errors.Wrap(err, "create object directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullpath), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpPath)
	}

	_, err = s.objects.Upsert(&model.StoredObject{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Path:        fullpath,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return errors.Wrap(err, "record object")
	}
	if err := os.Rename(tmpPath, fullpath); err != nil {
		return errors.Wrapf(err, "move object to %s", fullpath)
	}

	s.logger.Info("Stored %d bytes at %s", len(data), fullpath)
	return nil
}

// Exists reports whether the object is catalogued and still on disk. A
// catalog entry whose file is gone is dropped.
func (s *LocalStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	obj, err := s.objects.Get(bucket, key)
	if err != nil {
		return false, err
	}
	if obj == nil {
		return false, nil
	}

	if _, err := os.Stat(obj.Path); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warning("Catalogued object %s/%s missing on disk, removing entry", bucket, key)
			if err := s.objects.Delete(bucket, key); err != nil {
				return false, errors.Wrap(err, "remove stale catalog entry")
			}
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Source reads the object bytes.
func (s *LocalStore) Source(ctx context.Context, ref model.ObjectRef) (model.ImageSource, error) {
	data, err := s.Read(ctx, ref)
	if err != nil {
		return model.ImageSource{}, err
	}
	return model.ImageSource{Bytes: data}, nil
}

// Read returns the bytes of a catalogued object.
func (s *LocalStore) Read(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	obj, err := s.objects.Get(ref.Bucket, ref.Key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("object %s/%s not found", ref.Bucket, ref.Key)
	}

	data, err := os.ReadFile(obj.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", obj.Path)
	}
	return data, nil
}

// Count returns the number of catalogued objects in bucket.
func (s *LocalStore) Count(ctx context.Context, bucket string) (int, error) {
	return s.objects.Count(bucket)
}

// List returns up to limit catalogued keys in bucket starting with prefix.
func (s *LocalStore) List(ctx context.Context, bucket, prefix string, limit int) ([]string, error) {
	objs, err := s.objects.List(bucket, prefix, limit)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(objs))
	for _, obj := range objs {
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// objectPath maps bucket/key to a path under root, rejecting keys that escape it.
func (s *LocalStore) objectPath(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", errors.New("bucket and key are required")
	}

	base := filepath.Join(s.root, bucket)
	if !within(s.root, base) {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}

	fullpath := filepath.Join(base, filepath.FromSlash(key))
	if !within(base, fullpath) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return fullpath, nil
}

func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
