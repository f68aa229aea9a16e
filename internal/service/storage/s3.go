package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"labelvision/internal/logger"
	"labelvision/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	pkgerrors "github.com/pkg/errors"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store stores images in S3. The detector reads them back by reference.
type S3Store struct {
	client S3API
	logger *logger.Logger
}

// NewS3Store creates an S3-backed blob store.
func NewS3Store(client S3API, logger *logger.Logger) *S3Store {
	return &S3Store{
		client: client,
		logger: logger,
	}
}

// Put uploads data under bucket/key.
func (s *S3Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return pkgerrors.Wrapf(err, "put s3://%s/%s", bucket, key)
	}

	s.logger.Info("Stored %d bytes at s3://%s/%s", len(data), bucket, key)
	return nil
}

// Exists reports whether bucket/key exists. A missing object is not an error.
func (s *S3Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, pkgerrors.Wrapf(err, "head s3://%s/%s", bucket, key)
}

// Source returns a reference; the detector pulls the object from S3 itself.
func (s *S3Store) Source(ctx context.Context, ref model.ObjectRef) (model.ImageSource, error) {
	return model.ImageSource{Object: &ref}, nil
}

// Read downloads the object, for detectors that cannot pull from S3.
func (s *S3Store) Read(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "get s3://%s/%s", ref.Bucket, ref.Key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read s3://%s/%s", ref.Bucket, ref.Key)
	}
	return data, nil
}
