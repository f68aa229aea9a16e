package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"labelvision/internal/model"

	"github.com/pkg/errors"
)

// HTTPDetector sends images to an external inference service as multipart
// uploads and expects a {"labels": [...]} JSON response.
type HTTPDetector struct {
	inferenceURL string
	client       *http.Client
}

// NewHTTPDetector creates an HTTPDetector. A nil client uses http.DefaultClient.
func NewHTTPDetector(inferenceURL string, client *http.Client) *HTTPDetector {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDetector{
		inferenceURL: inferenceURL,
		client:       client,
	}
}

// DetectLabels posts the image bytes. Object references are not supported by
// this backend; the orchestrator reads stored objects into bytes first.
func (d *HTTPDetector) DetectLabels(ctx context.Context, img model.ImageSource, params model.DetectParams) (*model.DetectorOutput, error) {
	if len(img.Bytes) == 0 {
		return nil, errors.New("inference: image bytes required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "image")
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, bytes.NewReader(img.Bytes)); err != nil {
		return nil, errors.Wrap(err, "copy image data")
	}
	if err := writer.WriteField("maxLabels", strconv.Itoa(params.MaxLabels)); err != nil {
		return nil, errors.Wrap(err, "write maxLabels")
	}
	if err := writer.WriteField("minConfidence", strconv.FormatFloat(params.MinConfidence, 'f', -1, 64)); err != nil {
		return nil, errors.Wrap(err, "write minConfidence")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out model.DetectorOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	return &out, nil
}

// CheckHealth checks that the inference service answers on /health.
func (d *HTTPDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.inferenceURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
