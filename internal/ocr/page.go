package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RecognizePage rasterizes a single PDF page and OCRs it, returning the
// recovered text and a confidence score in 0..1.
func (e *Extractor) RecognizePage(ctx context.Context, path string, page int) (string, float64, error) {
	if page < 1 {
		return "", 0, fmt.Errorf("page number must be >= 1, got %d", page)
	}

	tmpDir, err := os.MkdirTemp("", "cvparse-ocr-*")
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tmpdir.remove_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f N -l N -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-f", fmt.Sprintf("%d", page), "-l", fmt.Sprintf("%d", page),
		"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, fmt.Errorf("pdftoppm page %d: %w (%s)", page, err, truncate(string(errb), 512))
	}

	// pdftoppm names output <prefix>-N.png, zero-padding N by total pages
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("pdftoppm rendered no image for page %d", page)
	}

	txt, err := e.tesseractText(ctx, matches[0])
	if err != nil {
		return "", 0, err
	}
	txt = strings.TrimSpace(txt)

	conf := e.pageConfidence(ctx, matches[0], txt)
	e.logger.Debug("ocr.page.done",
		"page", page,
		"chars", len(txt),
		"confidence", conf,
	)
	return txt, conf, nil
}

// pageConfidence blends tesseract's own word confidence with a content
// heuristic; the TSV pass is best-effort and its failure only drops the blend.
func (e *Extractor) pageConfidence(ctx context.Context, imgPath, txt string) float64 {
	heur := heuristicConfidence(txt)
	tsv, err := e.tesseractTSVConfidence(ctx, imgPath)
	if err != nil {
		e.logger.Warn("ocr.tsv_confidence.failed", "error", err)
		return heur
	}
	return blendConfidence(tsv, heur)
}
