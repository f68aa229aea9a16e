package route

import (
	"net/http"

	"labelvision/internal/config"
	"labelvision/internal/handler"
	"labelvision/internal/logger"
	"labelvision/internal/middleware"
	"labelvision/internal/overlay"
	"labelvision/internal/service"
	"labelvision/internal/service/websocket"

	"github.com/gorilla/mux"
)

// Dependencies are the services the HTTP routes need.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Service  *service.DetectionService
	Renderer *overlay.Renderer
	Hub      *websocket.HubService
	Health   handler.HealthChecker
}

// SetupRoutes registers the detection API, live events, log endpoints and
// wraps the router with CORS and request logging.
func SetupRoutes(deps Dependencies) http.Handler {
	router := mux.NewRouter()

	// Detection API
	router.HandleFunc("/detect-labels", handler.DetectLabelsHandler(deps.Service, publisher(deps.Hub), deps.Config, deps.Logger)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/detect-labels/overlay", handler.OverlayHandler(deps.Service, deps.Renderer, deps.Config, deps.Logger)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/detect-labels-s3", handler.DetectLabelsFromS3Handler(deps.Service, deps.Logger)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/health", handler.HealthHandler(deps.Config, deps.Health, viewerCounter(deps.Hub), deps.Logger)).Methods(http.MethodGet)

	// Live events
	if deps.Hub != nil {
		router.HandleFunc("/api/events", handler.EventsWebsocketHandler(deps.Hub, deps.Logger))
	}

	// Log endpoints
	router.HandleFunc("/logs/{level:info|warning|error}", handler.ShowLogsHandler(deps.Logger)).Methods(http.MethodGet)
	router.HandleFunc("/logs/{level:info|warning|error}/clear", handler.ClearLogsHandler(deps.Logger)).Methods(http.MethodPost)

	router.Use(middleware.LoggingMiddleware(deps.Logger))
	return middleware.CORSMiddleware(router)
}

func publisher(hub *websocket.HubService) handler.EventPublisher {
	if hub == nil {
		return nil
	}
	return hub
}

func viewerCounter(hub *websocket.HubService) handler.ViewerCounter {
	if hub == nil {
		return nil
	}
	return hub
}
