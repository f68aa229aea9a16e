package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "AWS_REGION", "AWS_UPLOAD_BUCKET", "UPLOAD_BUCKET", "AWS_S3_BUCKET", "S3_BUCKET_NAME",
		"DETECTOR_BACKEND", "STORAGE_BACKEND", "MAX_LABELS", "MIN_CONFIDENCE", "DISPLAY_THRESHOLD",
		"TOP_N", "DETECTOR_TIMEOUT", "MAX_UPLOAD_MB",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, DetectorRekognition, cfg.DetectorBackend)
	assert.Equal(t, StorageNone, cfg.StorageBackend)
	assert.Equal(t, 10, cfg.MaxLabels)
	assert.Equal(t, 70.0, cfg.MinConfidence)
	assert.Equal(t, 80.0, cfg.DisplayThreshold)
	assert.Equal(t, 2, cfg.TopN)
	assert.Equal(t, 30*time.Second, cfg.DetectorTimeout)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadSize)
	assert.False(t, cfg.PersistenceEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("AWS_UPLOAD_BUCKET", "uploads")
	t.Setenv("S3_BUCKET_NAME", "archive")
	t.Setenv("MIN_CONFIDENCE", "55.5")
	t.Setenv("DETECTOR_TIMEOUT", "5s")
	t.Setenv("TOP_N", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "uploads", cfg.UploadBucket)
	assert.Equal(t, "archive", cfg.ReferenceBucket)
	assert.Equal(t, StorageS3, cfg.StorageBackend)
	assert.Equal(t, 55.5, cfg.MinConfidence)
	assert.Equal(t, 5*time.Second, cfg.DetectorTimeout)
	assert.Equal(t, 2, cfg.TopN)
	assert.True(t, cfg.PersistenceEnabled())
}

func TestPersistenceEnabled(t *testing.T) {
	assert.False(t, (&Config{StorageBackend: StorageNone, UploadBucket: "b"}).PersistenceEnabled())
	assert.False(t, (&Config{StorageBackend: StorageLocal}).PersistenceEnabled())
	assert.True(t, (&Config{StorageBackend: StorageLocal, UploadBucket: "b"}).PersistenceEnabled())
}
