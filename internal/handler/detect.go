package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"labelvision/internal/config"
	"labelvision/internal/dto"
	"labelvision/internal/logger"
	"labelvision/internal/model"
	"labelvision/internal/overlay"
	"labelvision/internal/service"
)

const imageField = "image"

// EventPublisher receives every successful upload detection.
type EventPublisher interface {
	PublishDetection(top []model.RankedLabel, ref *model.ObjectRef)
}

// DetectLabelsHandler analyses a multipart upload (field "image") and returns
// the DetectionResult as JSON.
func DetectLabelsHandler(svc *service.DetectionService, events EventPublisher, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Received /detect-labels request")

		upload, err := readUpload(w, r, cfg.MaxUploadSize)
		if err != nil {
			writeServiceError(w, logger, err, "")
			return
		}
		logger.Info("File %s: %d bytes (%s)", upload.Filename, len(upload.Data), upload.ContentType)

		result, err := svc.Detect(r.Context(), *upload, svc.DefaultOptions())
		if err != nil {
			writeServiceError(w, logger, err, "Failed to analyse image")
			return
		}

		if events != nil {
			events.PublishDetection(result.TopLabels, result.StorageRef)
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// DetectLabelsFromS3Handler analyses an already stored image given as
// {"key", "bucket"} and returns {"topLabels"}.
func DetectLabelsFromS3Handler(svc *service.DetectionService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Received /detect-labels-s3 request")

		var req dto.ReferenceRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
			return
		}

		top, err := svc.DetectFromReference(r.Context(), model.ObjectRef{Bucket: req.Bucket, Key: req.Key})
		if err != nil {
			writeServiceError(w, logger, err, "Rekognition failed")
			return
		}

		writeJSON(w, http.StatusOK, dto.ReferenceResponse{TopLabels: top})
	}
}

// OverlayHandler analyses a multipart upload and returns the image as PNG with
// the detection boxes drawn. The optional form field "width" scales the output.
func OverlayHandler(svc *service.DetectionService, renderer *overlay.Renderer, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Received /detect-labels/overlay request")

		upload, err := readUpload(w, r, cfg.MaxUploadSize)
		if err != nil {
			writeServiceError(w, logger, err, "")
			return
		}

		width := 0
		if v := r.FormValue("width"); v != "" {
			width, err = strconv.Atoi(v)
			if err != nil || width < 0 {
				writeError(w, http.StatusBadRequest, "'width' must be a positive integer", "")
				return
			}
		}

		img, err := overlay.DecodeImage(upload.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unsupported image", err.Error())
			return
		}

		result, err := svc.Detect(r.Context(), *upload, service.DetectOptions{})
		if err != nil {
			writeServiceError(w, logger, err, "Failed to analyse image")
			return
		}

		layer := overlay.NewLayer()
		defer overlay.Release(layer)

		annotated, placements := renderer.Annotate(img, result.Raw.Labels, width, layer)
		logger.Info("Overlay drew %d boxes at threshold %.0f%%", len(placements), renderer.Threshold())

		var buf bytes.Buffer
		if err := overlay.EncodePNG(&buf, annotated); err != nil {
			logger.Error("Error encoding overlay: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
	}
}

// readUpload reads the "image" form file. A missing file is an InputError.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (*service.Upload, error) {
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &service.InputError{Message: "File too large"}
		}
		return nil, &service.InputError{Message: "No file uploaded"}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &service.InputError{Message: "No file uploaded"}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &service.Upload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	}, nil
}
