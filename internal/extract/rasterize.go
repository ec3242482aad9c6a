package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/akashsingh3414/medical-report-analysis/internal/common"
)

// PdftoppmRasterizer renders PDF pages to PNG images by shelling out to
// pdftoppm. The scratch directory lives only for the duration of one call.
type PdftoppmRasterizer struct {
	Bin    string
	runner Runner
	logger *slog.Logger
}

func NewPdftoppmRasterizer(bin string, logger *slog.Logger) *PdftoppmRasterizer {
	if bin == "" {
		bin = "pdftoppm"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PdftoppmRasterizer{Bin: bin, runner: execRunner{}, logger: logger}
}

// Rasterize writes the PDF into a temp workspace, renders every page at the
// given DPI, and returns the page images in page order. The workspace is
// removed on every exit path.
func (r *PdftoppmRasterizer) Rasterize(ctx context.Context, pdf []byte, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		dpi = 300
	}

	tmpDir, err := os.MkdirTemp("", "mra-scan-*")
	if err != nil {
		return nil, common.NewAppError(common.CodeScanProcessing, "failed to create scratch dir", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			r.logger.Warn("extract.rasterize.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, common.NewAppError(common.CodeScanProcessing, "failed to stage PDF for rasterization", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.Bin, "-r", fmt.Sprintf("%d", dpi), "-png", in, prefix)
	if err != nil {
		r.logger.Error("extract.rasterize.failed", "error", err, "stderr", truncate(string(errb), 2<<10))
		return nil, common.NewAppError(common.CodeScanProcessing, "failed to rasterize PDF", err)
	}

	// pdftoppm emits prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, common.NewAppError(common.CodeScanProcessing, "rasterization produced no pages", nil)
	}

	pages := make([][]byte, 0, len(matches))
	for _, img := range matches {
		data, err := os.ReadFile(img)
		if err != nil {
			return nil, common.NewAppError(common.CodeScanProcessing, "failed to read rasterized page", err)
		}
		pages = append(pages, data)
	}
	return pages, nil
}
