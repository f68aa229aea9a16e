package service

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"labelvision/internal/config"
	"labelvision/internal/logger"
	"labelvision/internal/model"
)

// UploadPrefix is the key prefix for persisted uploads.
const UploadPrefix = "uploads/"

var whitespace = regexp.MustCompile(`\s+`)

// Detector submits an image to a label-detection backend.
type Detector interface {
	DetectLabels(ctx context.Context, img model.ImageSource, params model.DetectParams) (*model.DetectorOutput, error)
}

// ReferenceReader is implemented by detectors that can pull a persisted
// object themselves. Detectors without it only receive image bytes.
type ReferenceReader interface {
	ReadsReferences() bool
}

// BlobStore persists images and tells the detector how to read them back.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// Source returns the detector input for a stored object: a reference when
	// the detector can pull it directly, otherwise the object bytes.
	Source(ctx context.Context, ref model.ObjectRef) (model.ImageSource, error)
	// Read returns the object bytes.
	Read(ctx context.Context, ref model.ObjectRef) ([]byte, error)
}

// Upload is an image received from a client.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// DetectOptions controls persistence for a single upload detection.
type DetectOptions struct {
	Persist bool
	Bucket  string
}

// DetectionService coordinates storage, the detector and the ranker.
// It holds no per-request state and is safe for concurrent use.
type DetectionService struct {
	detector      Detector
	store         BlobStore
	params        model.DetectParams
	topN          int
	timeout       time.Duration
	uploadBucket  string
	defaultBucket string
	logger        *logger.Logger
	now           func() time.Time
}

// NewDetectionService creates a DetectionService. store may be nil when no
// blob store is configured.
func NewDetectionService(cfg *config.Config, detector Detector, store BlobStore, logger *logger.Logger) *DetectionService {
	defaultBucket := cfg.ReferenceBucket
	if defaultBucket == "" {
		defaultBucket = cfg.UploadBucket
	}

	return &DetectionService{
		detector: detector,
		store:    store,
		params: model.DetectParams{
			MaxLabels:     cfg.MaxLabels,
			MinConfidence: cfg.MinConfidence,
		},
		topN:          cfg.TopN,
		timeout:       cfg.DetectorTimeout,
		uploadBucket:  cfg.UploadBucket,
		defaultBucket: defaultBucket,
		logger:        logger,
		now:           time.Now,
	}
}

// DefaultOptions returns the persistence options implied by the configuration.
func (s *DetectionService) DefaultOptions() DetectOptions {
	return DetectOptions{
		Persist: s.store != nil && s.uploadBucket != "",
		Bucket:  s.uploadBucket,
	}
}

// Detect analyses an uploaded image. With persistence requested and a store
// configured, the image is stored first. A detector that reads references gets
// the stored object; any other detector keeps the upload bytes. A failed upload
// aborts the request with a StorageError.
func (s *DetectionService) Detect(ctx context.Context, upload Upload, opts DetectOptions) (*model.DetectionResult, error) {
	if len(upload.Data) == 0 {
		return nil, &InputError{Message: "No file uploaded"}
	}

	src := model.ImageSource{Bytes: upload.Data}
	var ref *model.ObjectRef

	if opts.Persist && s.store != nil && opts.Bucket != "" {
		key := s.UploadKey(upload.Filename)
		s.logger.Info("Uploading image to s3://%s/%s", opts.Bucket, key)

		if err := s.store.Put(ctx, opts.Bucket, key, upload.Data, upload.ContentType); err != nil {
			s.logger.Error("Upload of %s failed: %v", key, err)
			return nil, &StorageError{Bucket: opts.Bucket, Key: key, Err: err}
		}

		ref = &model.ObjectRef{Bucket: opts.Bucket, Key: key}
		if s.readsReferences() {
			stored, err := s.store.Source(ctx, *ref)
			if err != nil {
				return nil, &StorageError{Bucket: ref.Bucket, Key: ref.Key, Err: err}
			}
			src = stored
		}
	}

	out, err := s.callDetector(ctx, src)
	if err != nil {
		return nil, err
	}

	result := &model.DetectionResult{
		TopLabels:  Rank(out.Labels, s.topN),
		StorageRef: ref,
		Raw:        *out,
	}
	s.logTopLabels(result.TopLabels)

	return result, nil
}

// DetectFromReference analyses an already stored image. An empty bucket falls
// back to the configured default.
func (s *DetectionService) DetectFromReference(ctx context.Context, ref model.ObjectRef) ([]model.RankedLabel, error) {
	if strings.TrimSpace(ref.Key) == "" {
		return nil, &InvalidReferenceError{Message: "'key' is required"}
	}
	if ref.Bucket == "" {
		ref.Bucket = s.defaultBucket
	}
	if ref.Bucket == "" {
		return nil, &ConfigError{Message: "No S3 bucket specified"}
	}

	s.logger.Info("Detecting labels for s3://%s/%s", ref.Bucket, ref.Key)

	src := model.ImageSource{Object: &ref}
	if s.store != nil {
		exists, err := s.store.Exists(ctx, ref.Bucket, ref.Key)
		if err != nil {
			return nil, &StorageError{Bucket: ref.Bucket, Key: ref.Key, Err: err}
		}
		if !exists {
			return nil, &InvalidReferenceError{Message: fmt.Sprintf("object s3://%s/%s not found", ref.Bucket, ref.Key)}
		}

		src, err = s.store.Source(ctx, ref)
		if err != nil {
			return nil, &StorageError{Bucket: ref.Bucket, Key: ref.Key, Err: err}
		}
	}

	if src.Object != nil && !s.readsReferences() {
		if s.store == nil {
			return nil, &ConfigError{Message: "Detector cannot read stored images and no blob store is configured"}
		}
		data, err := s.store.Read(ctx, ref)
		if err != nil {
			return nil, &StorageError{Bucket: ref.Bucket, Key: ref.Key, Err: err}
		}
		src = model.ImageSource{Bytes: data}
	}

	out, err := s.callDetector(ctx, src)
	if err != nil {
		return nil, err
	}

	top := Rank(out.Labels, s.topN)
	s.logTopLabels(top)
	return top, nil
}

// UploadKey builds a request-unique object key from the current time and the
// original file name, whitespace runs replaced by underscores.
func (s *DetectionService) UploadKey(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	name = whitespace.ReplaceAllString(name, "_")
	return fmt.Sprintf("%s%d_%s", UploadPrefix, s.now().UnixMilli(), name)
}

func (s *DetectionService) readsReferences() bool {
	r, ok := s.detector.(ReferenceReader)
	return ok && r.ReadsReferences()
}

func (s *DetectionService) callDetector(ctx context.Context, src model.ImageSource) (*model.DetectorOutput, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("Calling detector (max %d labels, min confidence %.0f%%)", s.params.MaxLabels, s.params.MinConfidence)

	out, err := s.detector.DetectLabels(ctx, src, s.params)
	if err != nil {
		s.logger.Error("Detector error: %v", err)
		return nil, &DetectionBackendError{Err: err}
	}
	if out == nil {
		out = &model.DetectorOutput{}
	}
	if out.Labels == nil {
		out.Labels = []model.Detection{}
	}

	s.logger.Info("Detector returned %d labels", len(out.Labels))
	return out, nil
}

func (s *DetectionService) logTopLabels(top []model.RankedLabel) {
	for _, l := range top {
		for i, b := range l.Boxes {
			s.logger.Info("Top → %s (%.2f%%) #%d [x:%.2f y:%.2f w:%.2f h:%.2f]",
				l.Name, l.Confidence, i+1, deref(b.Left), deref(b.Top), deref(b.Width), deref(b.Height))
		}
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
