package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// GeminiConfig configures the Gemini generateContent backend.
type GeminiConfig struct {
	APIKey      string
	BaseURL     string // default https://generativelanguage.googleapis.com
	Model       string // e.g. "gemini-pro"
	Temperature float32
	Timeout     time.Duration
}

// GeminiCompleter implements Completer against the Gemini REST API.
type GeminiCompleter struct {
	cfg    GeminiConfig
	client *http.Client
	logger *slog.Logger
}

func NewGeminiCompleter(cfg GeminiConfig, logger *slog.Logger) *GeminiCompleter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiCompleter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("insight.gemini.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"prompt_len", len(prompt),
	)

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":      c.cfg.Temperature,
			"responseMimeType": "application/json",
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("insight.gemini.send_error", "req_id", rid, "error", err)
		return "", common.NewAppError(common.CodeModelCall, "model call failed", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("insight.gemini.body_close_error", "req_id", rid, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Info("insight.gemini.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", common.NewAppError(common.CodeModelCall,
			fmt.Sprintf("model endpoint returned status %d", resp.StatusCode), nil)
	}

	var gr struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", common.NewAppError(common.CodeModelCall, "failed to decode model response", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", common.NewAppError(common.CodeModelCall, "model response contained no candidates", nil)
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}
