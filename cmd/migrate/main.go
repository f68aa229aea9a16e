package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"labelvision/internal/app"
	"labelvision/internal/config"
	"labelvision/internal/logger"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// catalog is implemented by blob stores that index their objects.
type catalog interface {
	Count(ctx context.Context, bucket string) (int, error)
	List(ctx context.Context, bucket, prefix string, limit int) ([]string, error)
}

func main() {
	cfg := config.Load()

	imagesDir := flag.String("images", "static/images", "Directory containing images")
	bucket := flag.String("bucket", firstNonEmpty(cfg.ReferenceBucket, cfg.UploadBucket), "Destination bucket")
	prefix := flag.String("prefix", "", "Key prefix for imported images")
	backend := flag.String("storage", cfg.StorageBackend, "Blob store backend (s3|local)")
	flag.Parse()

	if *bucket == "" {
		log.Fatalf("No bucket given; set -bucket or AWS_S3_BUCKET")
	}
	cfg.StorageBackend = *backend
	if cfg.StorageBackend == config.StorageNone {
		log.Fatalf("No blob store configured; set -storage or STORAGE_BACKEND")
	}

	ctx := context.Background()
	store, closer, err := app.LoadBlobStore(ctx, cfg, logger.New(os.Stderr))
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	fmt.Printf("Importing images from %s into %s bucket %s\n", *imagesDir, cfg.StorageBackend, *bucket)

	files, err := os.ReadDir(*imagesDir)
	if err != nil {
		log.Fatalf("Failed to read images directory: %v", err)
	}

	imported, skipped := 0, 0
	for _, file := range files {
		if file.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(file.Name()))] {
			continue
		}

		data, err := os.ReadFile(filepath.Join(*imagesDir, file.Name()))
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		key := path.Join(*prefix, file.Name())
		if err := store.Put(ctx, *bucket, key, data, http.DetectContentType(data)); err != nil {
			log.Printf("⚠️  Failed to store %s: %v", file.Name(), err)
			skipped++
			continue
		}

		fmt.Printf("   %s\n", key)
		imported++
	}

	if imported == 0 && skipped == 0 {
		fmt.Println("No images found to import")
		return
	}

	fmt.Printf("✅ Imported %d images; analyse them with POST /detect-labels-s3 {\"key\": ..., \"bucket\": %q}\n", imported, *bucket)
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (read or upload errors)\n", skipped)
	}

	if c, ok := store.(catalog); ok {
		printCatalog(ctx, c, *bucket, *prefix)
	}
}

func printCatalog(ctx context.Context, c catalog, bucket, prefix string) {
	total, err := c.Count(ctx, bucket)
	if err != nil {
		log.Printf("⚠️  Failed to count objects: %v", err)
		return
	}
	keys, err := c.List(ctx, bucket, prefix, 10)
	if err != nil {
		log.Printf("⚠️  Failed to list objects: %v", err)
		return
	}

	fmt.Printf("📦 Bucket %s now holds %d objects; newest under %q:\n", bucket, total, prefix)
	for _, key := range keys {
		fmt.Printf("   %s\n", key)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
