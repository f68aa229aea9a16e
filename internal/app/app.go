package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"labelvision/internal/awsutil"
	"labelvision/internal/config"
	"labelvision/internal/handler"
	"labelvision/internal/logger"
	"labelvision/internal/overlay"
	"labelvision/internal/repository/sqlite"
	"labelvision/internal/route"
	"labelvision/internal/service"
	"labelvision/internal/service/ai"
	"labelvision/internal/service/storage"
	"labelvision/internal/service/websocket"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  *logger.Logger
	hub     *websocket.HubService
	handler http.Handler
	closers []io.Closer
}

// NewApp loads the configuration and wires the detector, blob store, event
// hub and HTTP routes.
func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)
	ctx := context.Background()

	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return nil, err
	}

	detector, health, err := NewDetector(cfg, awsCfg, log)
	if err != nil {
		return nil, err
	}

	store, closer, err := NewBlobStore(cfg, awsCfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		logger: log,
		hub:    websocket.NewHubService(log),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	svc := service.NewDetectionService(cfg, detector, store, log)
	a.handler = route.SetupRoutes(route.Dependencies{
		Config:   cfg,
		Logger:   log,
		Service:  svc,
		Renderer: overlay.NewRenderer(cfg.DisplayThreshold),
		Hub:      a.hub,
		Health:   health,
	})

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	go a.hub.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("Label detection server listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Detector: %s, storage: %s, persist uploads: %t", a.config.DetectorBackend, a.config.StorageBackend, a.config.PersistenceEnabled())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Error("Error closing resource: %v", err)
		}
	}
}

// usesAWS reports whether any configured backend talks to AWS.
func usesAWS(cfg *config.Config) bool {
	return cfg.DetectorBackend == config.DetectorRekognition || cfg.StorageBackend == config.StorageS3
}

func loadAWS(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if !usesAWS(cfg) {
		return aws.Config{}, nil
	}
	return awsutil.Load(ctx, cfg)
}

// NewDetector builds the configured detector backend. The second result is
// non-nil when the backend supports health checks.
func NewDetector(cfg *config.Config, awsCfg aws.Config, log *logger.Logger) (service.Detector, handler.HealthChecker, error) {
	switch cfg.DetectorBackend {
	case config.DetectorRekognition:
		return ai.NewRekognitionDetector(rekognition.NewFromConfig(awsCfg), log), nil, nil
	case config.DetectorHTTP:
		if cfg.InferenceURL == "" {
			return nil, nil, fmt.Errorf("DETECTOR_BACKEND=http requires INFERENCE_URL")
		}
		d := ai.NewHTTPDetector(cfg.InferenceURL, &http.Client{Timeout: cfg.DetectorTimeout})
		return d, d, nil
	default:
		return nil, nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}
}

// NewBlobStore builds the configured blob store. It returns a nil store for
// the "none" backend and a closer for resources the store holds open.
func NewBlobStore(cfg *config.Config, awsCfg aws.Config, log *logger.Logger) (service.BlobStore, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.StorageNone, "":
		return nil, nil, nil
	case config.StorageS3:
		return storage.NewS3Store(s3.NewFromConfig(awsCfg), log), nil, nil
	case config.StorageLocal:
		if err := os.MkdirAll(filepath.Dir(cfg.LocalStorageDB), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(cfg.LocalStorageDB)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewLocalStore(cfg.LocalStorageDir, sqlite.NewObjectRepository(db), log), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// LoadBlobStore is NewBlobStore with the AWS configuration loaded as needed.
func LoadBlobStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (service.BlobStore, io.Closer, error) {
	var awsCfg aws.Config
	if cfg.StorageBackend == config.StorageS3 {
		var err error
		if awsCfg, err = awsutil.Load(ctx, cfg); err != nil {
			return nil, nil, err
		}
	}
	return NewBlobStore(cfg, awsCfg, log)
}
