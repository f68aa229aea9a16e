package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"labelvision/internal/config"
	"labelvision/internal/dto"
	"labelvision/internal/logger"
	"labelvision/internal/model"
	"labelvision/internal/service/websocket"

	"github.com/gorilla/mux"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	HealthHandler(cfg, nil, nil, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.DetectorRekognition, resp.Detector)

	rec = httptest.NewRecorder()
	failing := checkerFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	HealthHandler(cfg, failing, nil, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

type viewerCount int

func (v viewerCount) GetClientCount() int { return int(v) }

func TestHealthHandler_ReportsViewers(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(testConfig(), nil, viewerCount(3), logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Viewers)
}

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewLogger(&config.Config{LogDirectory: dir})
	log.Info("hello from test")

	router := mux.NewRouter()
	router.HandleFunc("/logs/{level}", ShowLogsHandler(log)).Methods(http.MethodGet)
	router.HandleFunc("/logs/{level}/clear", ClearLogsHandler(log)).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello from test")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/debug", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs/error/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	data, err := os.ReadFile(filepath.Join(dir, logger.ErrorFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEventsWebsocketHandler(t *testing.T) {
	hub := websocket.NewHubService(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(EventsWebsocketHandler(hub, logger.Nop()))
	defer server.Close()

	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishDetection([]model.RankedLabel{{Name: "Dog", Confidence: 90, Boxes: []model.RankedBox{}}}, nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event dto.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, dto.EventDetection, event.Type)
	assert.Equal(t, "Dog", event.TopLabels[0].Name)
	assert.Nil(t, event.StorageRef)
}
