package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DetectorRekognition selects the AWS Rekognition detector backend.
	DetectorRekognition = "rekognition"
	// DetectorHTTP selects the external HTTP inference backend.
	DetectorHTTP = "http"

	StorageS3    = "s3"
	StorageLocal = "local"
	StorageNone  = "none"
)

type Config struct {
	Port int

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	UploadBucket       string // Bucket for persisted uploads; empty disables persistence
	ReferenceBucket    string // Default bucket for /detect-labels-s3 when the request omits one

	DetectorBackend string
	InferenceURL    string
	DetectorTimeout time.Duration

	StorageBackend  string
	LocalStorageDir string
	LocalStorageDB  string

	MaxLabels        int     // Detector-side label cap
	MinConfidence    float64 // Detector-side confidence floor (percent)
	DisplayThreshold float64 // Overlay confidence threshold (percent)
	TopN             int     // Number of labels in the summary

	MaxUploadSize int64
	LogDirectory  string
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	uploadBucket := getEnv("AWS_UPLOAD_BUCKET", getEnv("UPLOAD_BUCKET", ""))

	defaultStorage := StorageNone
	if os.Getenv("AWS_UPLOAD_BUCKET") != "" {
		defaultStorage = StorageS3
	}

	return &Config{
		Port:               getEnvAsInt("PORT", 5000),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		UploadBucket:       uploadBucket,
		ReferenceBucket:    getEnv("AWS_S3_BUCKET", getEnv("S3_BUCKET_NAME", "")),
		DetectorBackend:    getEnv("DETECTOR_BACKEND", DetectorRekognition),
		InferenceURL:       getEnv("INFERENCE_URL", "http://localhost:8000/detect-labels"),
		DetectorTimeout:    getEnvAsDuration("DETECTOR_TIMEOUT", 30*time.Second),
		StorageBackend:     getEnv("STORAGE_BACKEND", defaultStorage),
		LocalStorageDir:    getEnv("LOCAL_STORAGE_DIR", filepath.Join(".", "data", "objects")),
		LocalStorageDB:     getEnv("LOCAL_STORAGE_DB", filepath.Join(".", "data", "objects.db")),
		MaxLabels:          getEnvAsInt("MAX_LABELS", 10),
		MinConfidence:      getEnvAsFloat("MIN_CONFIDENCE", 70),
		DisplayThreshold:   getEnvAsFloat("DISPLAY_THRESHOLD", 80),
		TopN:               getEnvAsInt("TOP_N", 2),
		MaxUploadSize:      getEnvAsInt64("MAX_UPLOAD_MB", 50) << 20,
		LogDirectory:       getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// PersistenceEnabled reports whether uploads are written to the blob store before detection.
func (c *Config) PersistenceEnabled() bool {
	return c.StorageBackend != StorageNone && c.UploadBucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
