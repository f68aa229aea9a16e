package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"labelvision/internal/dto"
	"labelvision/internal/logger"
	"labelvision/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Details: details})
}

// writeServiceError maps the detection error taxonomy to a status and body.
// backendMessage is the endpoint-specific message for detector failures.
func writeServiceError(w http.ResponseWriter, logger *logger.Logger, err error, backendMessage string) {
	var (
		inputErr   *service.InputError
		refErr     *service.InvalidReferenceError
		configErr  *service.ConfigError
		backendErr *service.DetectionBackendError
		storageErr *service.StorageError
	)

	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Message, "")
	case errors.As(err, &refErr):
		writeError(w, http.StatusBadRequest, refErr.Message, "")
	case errors.As(err, &configErr):
		logger.Error("Configuration error: %v", err)
		writeError(w, http.StatusInternalServerError, configErr.Message, "")
	case errors.As(err, &backendErr):
		writeError(w, http.StatusInternalServerError, backendMessage, backendErr.Err.Error())
	case errors.As(err, &storageErr):
		writeError(w, http.StatusInternalServerError, "Internal Server Error", storageErr.Error())
	default:
		logger.Error("Unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
