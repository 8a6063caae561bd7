package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language string // default "eng"
	DPI      int    // rasterization DPI, default 300

	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
}

// Extractor recovers text from rasterized PDF pages with tesseract.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// reBoxNoise strips lines that are nothing but underscores or dashes,
// a common artifact around form boxes and rules.
var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (e *Extractor) tesseractText(ctx context.Context, imgPath string) (string, error) {
	args := []string{imgPath, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
