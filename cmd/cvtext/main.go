// cvtext extracts text from a single resume document on the command
// line, using the same format detection and per-page OCR fallback as the
// daemon, without the model call.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/extract"
	"github.com/cvparse/cvparse/internal/extract/pdf"
	"github.com/cvparse/cvparse/internal/format"
	"github.com/cvparse/cvparse/internal/ocr"
	"github.com/cvparse/cvparse/internal/parser"
	"github.com/cvparse/cvparse/internal/textproc"
)

var (
	outputPath  string
	ocrDPI      int
	ocrLang     string
	minChars    int
	concurrency int
	timeout     time.Duration
	jsonOut     bool
	rawText     bool
	verbose     bool
)

type pageReport struct {
	Page       int     `json:"page"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence,omitempty"`
	Chars      int     `json:"chars"`
}

type extractReport struct {
	Format string       `json:"format"`
	Pages  []pageReport `json:"pages"`
	Text   string       `json:"text"`
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cvtext <file>",
		Short:        "Extract text from a resume document (PDF, DOCX, or plain text)",
		Args:         cobra.ExactArgs(1),
		Version:      common.Version,
		RunE:         run,
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write text to this file instead of stdout")
	cmd.Flags().IntVar(&ocrDPI, "ocr-dpi", 300, "rasterization DPI for OCR fallback")
	cmd.Flags().StringVar(&ocrLang, "ocr-lang", "eng", "tesseract language")
	cmd.Flags().IntVar(&minChars, "min-chars", 32, "native chars per page below which OCR runs")
	cmd.Flags().IntVar(&concurrency, "ocr-concurrency", 4, "pages OCRed in parallel")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "overall extraction timeout")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit JSON with per-page details")
	cmd.Flags().BoolVar(&rawText, "raw", false, "skip whitespace normalization")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log extraction steps to stderr")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	f, err := format.Detect(data, "", filepath.Base(path))
	if err != nil {
		return err
	}

	runner := ocr.NewExecRunner(logger)
	pageOCR := ocr.NewExtractor(ocr.Config{Language: ocrLang, DPI: ocrDPI}, runner, logger)
	pdfSource := pdf.NewExtractor("", runner, logger)
	p := parser.NewParser(pdfSource, pageOCR, parser.Config{
		MinCharsPerPage: minChars,
		OCRConcurrency:  concurrency,
	}, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	doc, err := p.Parse(ctx, data, f)
	if err != nil {
		return err
	}

	text := doc.Text()
	if !rawText {
		text = textproc.Preprocess(text)
	}

	var out []byte
	if jsonOut {
		report := extractReport{Format: string(doc.Format), Text: text}
		for _, pg := range doc.Pages {
			pr := pageReport{Page: pg.Number, Source: string(pg.Source), Chars: len(pg.Text)}
			if pg.Source == extract.SourceOCR {
				pr.Confidence = pg.Confidence
			}
			report.Pages = append(report.Pages, pr)
		}
		out, err = json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		out = append(out, '\n')
	} else {
		out = append([]byte(text), '\n')
	}

	if outputPath != "" {
		return os.WriteFile(outputPath, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
