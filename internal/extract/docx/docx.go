// Package docx extracts text from DOCX containers (archive/zip ->
// word/document.xml). Paragraphs become lines; table cells within a row are
// joined with " | " so tabular resume layouts survive flattening.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

var ErrNoDocumentPart = errors.New("docx: missing word/document.xml")

// Extract pulls the document text out of DOCX bytes.
func Extract(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx: open container: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", ErrNoDocumentPart
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("docx: open %s: %w", documentPart, err)
	}
	defer rc.Close()

	text, err := decodeDocument(rc)
	if err != nil {
		return "", fmt.Errorf("docx: decode %s: %w", documentPart, err)
	}
	return text, nil
}

// decodeDocument walks the WordprocessingML stream. Element names are
// matched by local name only; the w: namespace prefix varies by producer.
// Structural boundaries (paragraph, cell, row) are held as a pending
// separator and only emitted when more text follows, so output never ends
// with dangling breaks or cell pipes.
func decodeDocument(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	var pending string
	inText := false

	flush := func() {
		if pending != "" {
			b.WriteString(pending)
			pending = ""
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				flush()
				b.WriteByte('\t')
			case "br", "cr":
				flush()
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText && len(t) > 0 {
				flush()
				b.Write(t)
			}
		case xml.EndElement:
			// Boundaries close inner-first, so the outermost separator wins.
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				pending = "\n"
			case "tc":
				pending = " | "
			case "tr":
				pending = "\n"
			}
		}
	}
	return b.String(), nil
}
