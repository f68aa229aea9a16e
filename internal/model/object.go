package model

import "time"

// StoredObject is a catalog record of an image held by the local blob store.
type StoredObject struct {
	ID          int64     `json:"id"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"createdAt"`
}
