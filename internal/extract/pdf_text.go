package extract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/akashsingh3414/medical-report-analysis/constants"
	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// PdfcpuExtractor implements PDFTextExtractor on top of pdfcpu's
// structure-aware parser.
type PdfcpuExtractor struct {
	logger *slog.Logger
}

func NewPdfcpuExtractor(logger *slog.Logger) *PdfcpuExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PdfcpuExtractor{logger: logger}
}

// ExtractText parses the page structure, enforces the single-page constraint
// before touching any content stream, and concatenates the text runs of page
// one with single-space separators.
func (e *PdfcpuExtractor) ExtractText(ctx context.Context, pdf []byte) (Result, error) {
	start := time.Now()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		e.logger.Error("extract.pdf.parse_failed", "error", err)
		return Result{SourceType: constants.PDF},
			common.NewAppError(common.CodePDFParse, "failed to parse PDF: "+err.Error(), err)
	}

	if pctx.PageCount > 1 {
		e.logger.Warn("extract.pdf.multi_page_rejected", "pages", pctx.PageCount)
		return Result{SourceType: constants.PDF, Pages: pctx.PageCount},
			common.NewAppError(common.CodeMultiPage,
				"the PDF contains multiple pages; only single-page reports are supported", nil)
	}

	text := extractPageText(pctx, 1)

	e.logger.Debug("extract.pdf.ok", "pages", pctx.PageCount, "chars", len(text))
	return Result{
		Text:       text,
		Pages:      pctx.PageCount,
		SourceType: constants.PDF,
		Method:     "pdf-text",
		Duration:   time.Since(start),
	}, nil
}

// extractPageText pulls the raw content stream of one page and decodes its
// text-show operators.
func extractPageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// textFromContentStream collects string literals shown by the Tj, TJ and '
// operators and joins the runs with single spaces.
func textFromContentStream(data []byte) string {
	var runs []string
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		showsText := bytes.HasSuffix(line, []byte("Tj")) ||
			bytes.HasSuffix(line, []byte("TJ")) ||
			(bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")))
		if !showsText {
			continue
		}
		for _, lit := range stringLiterals(line) {
			if s := decodePDFString(lit); s != "" {
				runs = append(runs, s)
			}
		}
	}
	return strings.Join(runs, " ")
}

// stringLiterals returns the contents of parenthesized PDF string literals on
// one content-stream line, honoring escaped parentheses.
func stringLiterals(line []byte) [][]byte {
	var out [][]byte
	depth := 0
	var cur []byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && depth > 0:
			cur = append(cur, c, line[i+1])
			i++
		case c == '(':
			depth++
			if depth == 1 {
				cur = nil
				continue
			}
			cur = append(cur, c)
		case c == ')':
			depth--
			if depth == 0 {
				out = append(out, cur)
				continue
			}
			if depth > 0 {
				cur = append(cur, c)
			} else {
				depth = 0
			}
		default:
			if depth > 0 {
				cur = append(cur, c)
			}
		}
	}
	return out
}

// decodePDFString handles basic PDF escape sequences, including octal escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}
