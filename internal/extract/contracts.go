package extract

import (
	"context"
	"time"

	"github.com/akashsingh3414/medical-report-analysis/constants"
)

// Result is the outcome of one extraction run. Immutable after creation;
// consumed by the text normalizer.
type Result struct {
	Text       string
	Pages      int
	SourceType constants.FileFormat
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	IsScanned  bool
	Duration   time.Duration
	Warnings   []string
}

// TextRecognizer is the OCR capability: whole image in, raw text out.
// Swappable between a local engine and a remote inference API; the
// orchestrator never branches on which backend is active.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// PDFTextExtractor pulls embedded text from a PDF's structure without
// rasterizing.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (Result, error)
}

// Rasterizer renders PDF pages to raster images, one byte buffer per page,
// in page order. Implementations own any scratch workspace and must clean
// it up on every exit path.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, dpi int) ([][]byte, error)
}
