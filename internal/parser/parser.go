// Package parser turns an uploaded document into ordered pages of text.
//
// PDFs get a two-step treatment: the embedded text layer is read first,
// then any page whose text is missing or too thin is rasterized and OCRed
// individually. DOCX and plain text carry their own text and parse to a
// single native page. A parse fails only when every page comes back empty.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/extract"
	"github.com/cvparse/cvparse/internal/extract/docx"
	"github.com/cvparse/cvparse/internal/format"
)

// Config tunes the native-vs-OCR decision and OCR parallelism.
type Config struct {
	// MinCharsPerPage is the minimum rune count for a page's native text
	// to be accepted without OCR.
	MinCharsPerPage int
	// OCRConcurrency caps how many pages are OCRed at once.
	OCRConcurrency int
}

// Parser extracts text from uploaded documents, falling back to OCR
// page by page when the native text layer is absent or too sparse.
type Parser struct {
	PDF    extract.PDFSource
	OCR    extract.PageOCR
	Logger *slog.Logger

	cfg Config
}

func NewParser(pdf extract.PDFSource, pageOCR extract.PageOCR, cfg Config, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = 32
	}
	if cfg.OCRConcurrency <= 0 {
		cfg.OCRConcurrency = 4
	}
	return &Parser{PDF: pdf, OCR: pageOCR, Logger: logger, cfg: cfg}
}

// Parse extracts text from raw document bytes of a known format.
// It returns a ParseFailure error only when no page yields any text.
func (p *Parser) Parse(ctx context.Context, data []byte, f format.Format) (*extract.ParsedDocument, error) {
	start := time.Now()

	var (
		doc *extract.ParsedDocument
		err error
	)
	switch f {
	case format.PDF:
		doc, err = p.parsePDF(ctx, data)
	case format.DOCX:
		doc, err = p.parseDOCX(data)
	case format.Text:
		doc, err = p.parseText(data)
	default:
		return nil, common.UnsupportedFormatError(fmt.Sprintf("no extractor for format %q", f))
	}
	if err != nil {
		return nil, err
	}

	doc.Format = f
	doc.Duration = time.Since(start)
	if doc.AllFailed() {
		p.Logger.Warn("parse.all_pages_failed", "format", f, "pages", len(doc.Pages))
		return nil, common.ParseFailureError("no text could be recovered from any page", nil)
	}

	native, ocred := 0, 0
	for _, pg := range doc.Pages {
		switch pg.Source {
		case extract.SourceNative:
			native++
		case extract.SourceOCR:
			ocred++
		}
	}
	p.Logger.Info("parse.done",
		"format", f,
		"pages", len(doc.Pages),
		"native", native,
		"ocr", ocred,
		"failed", doc.FailedPages(),
		"elapsed_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

// parsePDF reconciles the text layer against the catalog page count and
// OCRs the weak pages concurrently.
func (p *Parser) parsePDF(ctx context.Context, data []byte) (*extract.ParsedDocument, error) {
	path, cleanup, err := p.spool(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	count, err := p.PDF.PageCount(ctx, path)
	if err != nil {
		return nil, common.ParseFailureError("unable to read PDF page catalog", err)
	}
	if count <= 0 {
		return nil, common.ParseFailureError("PDF has no pages", nil)
	}

	native, err := p.PDF.PageTexts(ctx, path)
	if err != nil {
		// The text layer is optional; a scanned PDF may have none at all.
		p.Logger.Warn("parse.native_layer_failed", "err", err)
		native = nil
	}
	// The catalog count is authoritative. pdftotext can emit fewer pages
	// (trailing empties) or, rarely, more (form feeds inside content).
	if len(native) > count {
		native = native[:count]
	}
	for len(native) < count {
		native = append(native, "")
	}

	pages := make([]extract.Page, count)
	var weak []int
	for i := 0; i < count; i++ {
		text := strings.TrimSpace(native[i])
		pages[i] = extract.Page{Number: i + 1, Text: text, Source: extract.SourceNative}
		if utf8.RuneCountInString(text) < p.cfg.MinCharsPerPage {
			weak = append(weak, i)
		}
	}

	if len(weak) > 0 {
		if err := p.ocrPages(ctx, path, pages, weak); err != nil {
			return nil, err
		}
	}
	return &extract.ParsedDocument{Pages: pages}, nil
}

// ocrPages runs the fallback extractor over the given page indexes,
// at most cfg.OCRConcurrency at a time. Per-page failures are recorded
// on the page, not returned; only context cancellation aborts the batch.
func (p *Parser) ocrPages(ctx context.Context, path string, pages []extract.Page, weak []int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.OCRConcurrency)

	for _, i := range weak {
		i := i
		g.Go(func() error {
			text, conf, err := p.OCR.RecognizePage(gctx, path, pages[i].Number)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.Logger.Warn("parse.page.ocr_failed", "page", pages[i].Number, "err", err)
				if pages[i].Text == "" {
					pages[i].Source = extract.SourceFailed
				}
				return nil
			}
			text = strings.TrimSpace(text)
			if text == "" {
				// OCR found nothing; keep whatever thin native text exists.
				if pages[i].Text == "" {
					pages[i].Source = extract.SourceFailed
				}
				return nil
			}
			pages[i] = extract.Page{
				Number:     pages[i].Number,
				Text:       text,
				Source:     extract.SourceOCR,
				Confidence: conf,
			}
			return nil
		})
	}
	return g.Wait()
}

// parseDOCX reads the main document part. Word files carry no fixed
// pagination, so the whole body is one native page.
func (p *Parser) parseDOCX(data []byte) (*extract.ParsedDocument, error) {
	text, err := docx.Extract(data)
	if err != nil {
		return nil, common.ParseFailureError("unable to read DOCX document", err)
	}
	return singlePageDoc(text), nil
}

func (p *Parser) parseText(data []byte) (*extract.ParsedDocument, error) {
	return singlePageDoc(string(data)), nil
}

func singlePageDoc(text string) *extract.ParsedDocument {
	text = strings.TrimSpace(text)
	page := extract.Page{Number: 1, Text: text, Source: extract.SourceNative}
	if text == "" {
		page.Source = extract.SourceFailed
	}
	return &extract.ParsedDocument{Pages: []extract.Page{page}}
}

// spool writes upload bytes to a temp file so the external PDF tools,
// which only take paths, can read them.
func (p *Parser) spool(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "cvparse-*.pdf")
	if err != nil {
		return "", nil, common.WrapError(err, "create temp file")
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, common.WrapError(err, "write temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, common.WrapError(err, "close temp file")
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil {
			p.Logger.Warn("parse.temp_cleanup_failed", "path", f.Name(), "err", err)
		}
	}
	return f.Name(), cleanup, nil
}
