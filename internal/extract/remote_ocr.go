package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// RemoteRecognizer is the remote OCR backend: an image-to-text inference API
// with a small JSON contract. Interchangeable with TesseractRecognizer.
type RemoteRecognizer struct {
	url      string
	apiKey   string
	language string
	client   *http.Client
	logger   *slog.Logger
}

func NewRemoteRecognizer(url, apiKey, language string, timeout time.Duration, logger *slog.Logger) *RemoteRecognizer {
	if language == "" {
		language = "eng"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteRecognizer{
		url:      url,
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (r *RemoteRecognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(map[string]any{
		"image":    base64.StdEncoding.EncodeToString(image),
		"language": r.language,
	})
	if err != nil {
		return "", common.NewAppError(common.CodeOCREngine, "failed to encode OCR request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", common.NewAppError(common.CodeOCREngine, "failed to build OCR request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	r.logger.Info("extract.ocr.remote_request", "req_id", rid, "bytes", len(image))

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("extract.ocr.remote_send_error", "req_id", rid, "error", err)
		return "", common.NewAppError(common.CodeOCREngine, "OCR inference call failed", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Warn("extract.ocr.remote_body_close_error", "req_id", rid, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	r.logger.Info("extract.ocr.remote_response",
		"req_id", rid,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", common.NewAppError(common.CodeOCREngine,
			fmt.Sprintf("OCR inference returned status %d", resp.StatusCode), nil)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.NewAppError(common.CodeOCREngine, "failed to decode OCR response", err)
	}
	return out.Text, nil
}
