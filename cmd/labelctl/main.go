package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labelvision/internal/labeler"
	"labelvision/internal/overlay"
)

func main() {
	server := flag.String("server", envOr("LABELVISION_URL", "http://localhost:5000"), "Detection server base URL")
	out := flag.String("out", "", "Write the annotated image to this PNG file")
	width := flag.Int("width", 0, "Display width of the annotated image (0 keeps the native size)")
	threshold := flag.Float64("threshold", overlay.DisplayThreshold, "Minimum confidence for a box to be drawn")
	all := flag.Bool("all", false, "List every label, not only the best match")
	key := flag.String("key", "", "Analyse an already stored image by key instead of uploading one")
	bucket := flag.String("bucket", "", "Bucket of -key (empty uses the server default)")
	remote := flag.Bool("remote", false, "Let the server draw the overlay written to -out")
	timeout := flag.Duration("timeout", 60*time.Second, "Request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <image>\n       %s -key <key> [-bucket <bucket>]\n", filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	client := labeler.NewClient(*server, &http.Client{Timeout: *timeout})
	ctx := context.Background()

	if *key != "" {
		top, err := client.DetectFromReference(ctx, *key, *bucket)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := labeler.WriteRanked(os.Stdout, top); err != nil {
			log.Fatalf("Failed to write summary: %v", err)
		}
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}
	picked := labeler.Image{
		Name:        filepath.Base(path),
		Data:        data,
		ContentType: http.DetectContentType(data),
	}

	if *remote {
		if *out == "" {
			log.Fatalf("-remote needs -out")
		}
		png, err := client.Overlay(ctx, picked, *width)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := os.WriteFile(*out, png, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", *out, err)
		}
		fmt.Printf("Server-rendered overlay written to %s\n", *out)
		return
	}

	img, err := overlay.DecodeImage(data)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}

	renderer := overlay.NewRenderer(*threshold)
	layer := overlay.NewLayer()
	defer overlay.Release(layer)

	lb := labeler.New(client, renderer, layer)
	lb.Select(picked)
	w, h := overlay.DisplaySize(img, *width)
	lb.Redraw(w, h)

	session, err := lb.Detect(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *all {
		session = lb.ToggleShowAll()
	}

	if err := labeler.WriteSummary(os.Stdout, session); err != nil {
		log.Fatalf("Failed to write summary: %v", err)
	}

	if *out == "" {
		return
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer file.Close()

	if err := overlay.EncodePNG(file, overlay.Compose(img, layer.Image())); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	fmt.Printf("Overlay with %d boxes at %.0f%% or more written to %s\n", len(lb.Placements()), renderer.Threshold(), *out)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
