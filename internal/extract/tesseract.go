package extract

import (
	"context"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// TesseractRecognizer is the local OCR backend, built on the gosseract
// binding. A fresh client is created per call; gosseract clients are not
// safe for concurrent reuse.
type TesseractRecognizer struct {
	language      string
	clientFactory func() *gosseract.Client
	logger        *slog.Logger
}

func NewTesseractRecognizer(language string, logger *slog.Logger) *TesseractRecognizer {
	if language == "" {
		language = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractRecognizer{
		language:      language,
		clientFactory: gosseract.NewClient,
		logger:        logger,
	}
}

func (t *TesseractRecognizer) RecognizeText(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.language); err != nil {
		return "", common.NewAppError(common.CodeOCREngine, "failed to set OCR language", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", common.NewAppError(common.CodeOCREngine, "failed to load image into OCR engine", err)
	}

	text, err := c.Text()
	if err != nil {
		t.logger.Error("extract.ocr.tesseract_failed", "error", err)
		return "", common.NewAppError(common.CodeOCREngine, "text recognition failed", err)
	}
	return text, nil
}
