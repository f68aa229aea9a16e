package service

import "fmt"

// InputError reports a request without the data it needs (no file uploaded).
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// InvalidReferenceError reports an unusable storage reference: no key, or no such object.
type InvalidReferenceError struct {
	Message string
}

func (e *InvalidReferenceError) Error() string {
	return e.Message
}

// ConfigError reports a server-side configuration gap, such as no bucket to read from.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// DetectionBackendError wraps a failure of the detection backend. It is never retried.
type DetectionBackendError struct {
	Err error
}

func (e *DetectionBackendError) Error() string {
	return fmt.Sprintf("detection backend: %v", e.Err)
}

func (e *DetectionBackendError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failed blob-store operation. The request is aborted.
type StorageError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
