package dto

import (
	"time"

	"labelvision/internal/model"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ReferenceRequest asks for detection on an already stored image.
type ReferenceRequest struct {
	Key    string `json:"key"`
	Bucket string `json:"bucket,omitempty"`
}

// ReferenceResponse carries the ranked labels for a stored image.
type ReferenceResponse struct {
	TopLabels []model.RankedLabel `json:"topLabels"`
}

// HealthResponse reports server and detector status.
type HealthResponse struct {
	Status   string `json:"status"`
	Detector string `json:"detector"`
	Storage  string `json:"storage"`
	Viewers  int    `json:"viewers"`
}

// EventDetection is the Event type for a completed detection.
const EventDetection = "detection"

// Event is pushed to /api/events subscribers.
type Event struct {
	Type       string              `json:"type"`
	TopLabels  []model.RankedLabel `json:"topLabels"`
	StorageRef *model.ObjectRef    `json:"storageRef,omitempty"`
	At         time.Time           `json:"at"`
}
