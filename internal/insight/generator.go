package insight

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// GeneratorOptions bounds the external model call. The retry policy covers
// transport failures only; a response that violates the JSON contract is
// surfaced, not retried.
type GeneratorOptions struct {
	Timeout    time.Duration // per-attempt bound on the model call
	MaxRetries int           // extra attempts after the first, on call failure
	Backoff    time.Duration // fixed delay between attempts
}

// Generator builds the fixed-contract prompt, calls the generative model and
// parses/validates its JSON response.
type Generator struct {
	completer Completer
	opts      GeneratorOptions
	logger    *slog.Logger
}

func NewGenerator(completer Completer, opts GeneratorOptions, logger *slog.Logger) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, opts: opts, logger: logger}
}

// Generate runs one analysis call. Empty input is rejected before any
// external call is made. A payload that is exactly the single-field error
// facet is returned as a valid result; callers check Unusable().
func (g *Generator) Generate(ctx context.Context, cleanedText string) (*Analysis, error) {
	if strings.TrimSpace(cleanedText) == "" {
		return nil, common.NewAppError(common.CodeEmptyText, "cleaned report data is empty", nil)
	}

	rid := uuid.New().String()
	start := time.Now()
	g.logger.Info("insight.generate.start", "req_id", rid, "text_len", len(cleanedText))

	prompt := BuildPrompt(cleanedText)

	completion, err := g.complete(ctx, prompt)
	if err != nil {
		g.logger.Error("insight.generate.model_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	payload := []byte(StripCodeFence(completion))

	if err := ValidateJSONAgainstSchema(BuildInsightJSONSchema(), payload); err != nil {
		g.logger.Error("insight.generate.contract_violation",
			"req_id", rid, "error", err, "raw_len", len(completion),
		)
		return nil, common.NewAppError(common.CodeInsightParse,
			"the model produced a response that does not match the expected format", err)
	}

	var analysis Analysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return nil, common.NewAppError(common.CodeInsightParse,
			"failed to decode model response", err)
	}

	g.logger.Info("insight.generate.ok",
		"req_id", rid,
		"unusable", analysis.Unusable(),
		"anomalies", len(analysis.AnomaliesAnalysis),
		"critical", len(analysis.CriticalFindings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &analysis, nil
}

// complete bounds each attempt with the configured timeout and retries call
// failures with a fixed backoff.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("insight.generate.retry", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.opts.Backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		completion, err := g.completer.Complete(callCtx, prompt)
		cancel()
		if err == nil {
			return completion, nil
		}
		lastErr = err
	}
	return "", lastErr
}
