package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/cvparse/cvparse/internal/ocr"
)

// Extractor reads the native text layer of a PDF with pdftotext and the
// page catalog with pdfcpu. It never rasterizes.
type Extractor struct {
	pdftotext string
	runner    ocr.Runner
	logger    *slog.Logger
}

func NewExtractor(pdftotext string, runner ocr.Runner, logger *slog.Logger) *Extractor {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.NewExecRunner(logger)
	}
	return &Extractor{pdftotext: pdftotext, runner: runner, logger: logger}
}

// PageCount returns the authoritative page count from the PDF catalog.
// Relaxed validation tolerates the sloppy producers common in the wild.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("pdf.close_failed", "path", path, "error", err)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}

// PageTexts returns the embedded text of every page in order. Pages without
// a text layer come back empty; deciding what to do about that is the
// caller's job.
func (e *Extractor) PageTexts(ctx context.Context, path string) ([]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w (%s)", err, strings.TrimSpace(string(errb)))
	}

	// A form feed terminates each page.
	text := strings.TrimSuffix(string(out), "\f")
	return strings.Split(text, "\f"), nil
}
