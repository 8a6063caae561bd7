package extract

import (
	"context"
	"strings"
	"time"

	"github.com/cvparse/cvparse/internal/format"
)

// PageSource identifies how a page's text was obtained.
type PageSource string

const (
	SourceNative PageSource = "native"
	SourceOCR    PageSource = "ocr"
	SourceFailed PageSource = "failed"
)

// Page is one unit of extracted text, in document order.
type Page struct {
	Number int
	Text   string
	Source PageSource
	// Confidence is set for OCR pages only, 0..1.
	Confidence float64
}

// ParsedDocument is the normalized parse result.
type ParsedDocument struct {
	Format   format.Format
	Pages    []Page
	Duration time.Duration
}

// Text joins all page text in order, pages separated by a blank line.
func (d *ParsedDocument) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FailedPages counts pages where both extraction paths failed.
func (d *ParsedDocument) FailedPages() int {
	n := 0
	for _, p := range d.Pages {
		if p.Source == SourceFailed {
			n++
		}
	}
	return n
}

// AllFailed reports whether no page yielded text.
func (d *ParsedDocument) AllFailed() bool {
	return len(d.Pages) > 0 && d.FailedPages() == len(d.Pages)
}

// PDFSource reads the native text layer of a PDF.
type PDFSource interface {
	// PageCount returns the authoritative page count from the catalog.
	PageCount(ctx context.Context, path string) (int, error)
	// PageTexts returns the embedded text of every page, in order.
	PageTexts(ctx context.Context, path string) ([]string, error)
}

// PageOCR recovers text from a single rasterized PDF page.
type PageOCR interface {
	RecognizePage(ctx context.Context, path string, page int) (text string, confidence float64, err error)
}
