package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/akashsingh3414/medical-report-analysis/constants"
	"github.com/akashsingh3414/medical-report-analysis/internal/common"
	"github.com/akashsingh3414/medical-report-analysis/internal/sniff"
)

// pageBreak separates page texts in the scanned fallback. With the
// single-page constraint it only ever appears when the bounded page loop
// runs before the count check aborts.
const pageBreak = "\n\f\n"

// Processor decides the extraction strategy per document: images go straight
// to OCR, PDFs are parsed natively first and fall back to rasterize-and-OCR
// when the native text is too thin to be a real text layer.
type Processor struct {
	pdf        PDFTextExtractor
	recognizer TextRecognizer
	rasterizer Rasterizer
	dpi        int
	threshold  int
	ocrTimeout time.Duration
	logger     *slog.Logger
}

// ProcessorOptions configures a Processor. Zero values fall back to the
// defaults the pipeline was tuned with.
type ProcessorOptions struct {
	DPI              int
	ScannedThreshold int // min trimmed chars for native text to count as real
	OCRTimeout       time.Duration
}

func NewProcessor(pdf PDFTextExtractor, recognizer TextRecognizer, rasterizer Rasterizer, opts ProcessorOptions, logger *slog.Logger) *Processor {
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	if opts.ScannedThreshold <= 0 {
		opts.ScannedThreshold = 50
	}
	if opts.OCRTimeout <= 0 {
		opts.OCRTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		pdf:        pdf,
		recognizer: recognizer,
		rasterizer: rasterizer,
		dpi:        opts.DPI,
		threshold:  opts.ScannedThreshold,
		ocrTimeout: opts.OCRTimeout,
		logger:     logger,
	}
}

// ProcessDocument classifies the raw bytes and runs the matching extraction
// strategy. Errors propagate unchanged; this is the only place fallback
// decisions are made.
func (p *Processor) ProcessDocument(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()

	kind := sniff.Classify(data)
	p.logger.Debug("extract.classify", "kind", kind.String(), "bytes", len(data))

	switch kind {
	case sniff.Image:
		res, err := p.processImage(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	case sniff.TextPDFCandidate:
		res, err := p.processPDF(ctx, data)
		res.Duration = time.Since(start)
		return res, err
	default:
		return Result{}, common.NewAppError(common.CodeUnsupportedFormat,
			"unsupported file type; only JPEG, PNG and PDF are accepted", nil)
	}
}

func (p *Processor) processImage(ctx context.Context, data []byte) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	defer cancel()

	text, err := p.recognizer.RecognizeText(ctx, data)
	if err != nil {
		return Result{SourceType: constants.IMAGE}, err
	}
	return Result{
		Text:       text,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
	}, nil
}

func (p *Processor) processPDF(ctx context.Context, data []byte) (Result, error) {
	native, err := p.pdf.ExtractText(ctx, data)
	if err != nil {
		// Parse and multi-page failures are final; the fallback only covers
		// structurally valid PDFs without a usable text layer.
		return native, err
	}

	if len(strings.TrimSpace(native.Text)) >= p.threshold {
		return native, nil
	}

	p.logger.Info("extract.pdf.scanned_fallback",
		"native_chars", len(strings.TrimSpace(native.Text)),
		"threshold", p.threshold,
	)
	return p.processScannedPDF(ctx, data)
}

// processScannedPDF rasterizes the PDF and routes each page image through the
// OCR capability. The single-page constraint is checked right after the true
// page count is known, before any OCR cost is paid.
func (p *Processor) processScannedPDF(ctx context.Context, data []byte) (Result, error) {
	pages, err := p.rasterizer.Rasterize(ctx, data, p.dpi)
	if err != nil {
		return Result{SourceType: constants.PDF, IsScanned: true}, err
	}

	if len(pages) > 1 {
		return Result{SourceType: constants.PDF, Pages: len(pages), IsScanned: true},
			common.NewAppError(common.CodeMultiPage,
				"the PDF contains multiple pages; only single-page reports are supported", nil)
	}

	var b strings.Builder
	for i, img := range pages {
		ocrCtx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
		text, err := p.recognizer.RecognizeText(ocrCtx, img)
		cancel()
		if err != nil {
			// No partial-page success semantics: any page failure aborts the
			// whole document.
			return Result{SourceType: constants.PDF, Pages: len(pages), IsScanned: true},
				common.NewAppError(common.CodeScanProcessing, "OCR failed on rasterized page", err)
		}
		if i > 0 {
			b.WriteString(pageBreak)
		}
		b.WriteString(text)
	}

	return Result{
		Text:       b.String(),
		Pages:      len(pages),
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		IsScanned:  true,
	}, nil
}
