package format

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cvparse/cvparse/internal/common"
)

// Format identifies a supported document format.
type Format string

const (
	PDF  Format = "pdf"
	DOCX Format = "docx"
	Text Format = "txt"
)

func (f Format) String() string { return string(f) }

var pdfSignature = []byte("%PDF-")

// zipSignature is the ZIP local file header; DOCX is a ZIP container.
var zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}

// extFormats maps normalized file extensions to formats.
var extFormats = map[string]Format{
	"pdf":  PDF,
	"docx": DOCX,
	"txt":  Text,
}

// mimeFormats maps declared content types to formats. Generic types
// (octet-stream, empty) carry no signal and are not listed.
var mimeFormats = map[string]Format{
	"application/pdf": PDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": DOCX,
	"text/plain": Text,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FromExtension resolves a file extension to a format.
func FromExtension(ext string) (Format, bool) {
	f, ok := extFormats[NormalizeExt(ext)]
	return f, ok
}

// Sniff classifies content by signature alone.
func Sniff(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, pdfSignature):
		return PDF, nil
	case bytes.HasPrefix(data, zipSignature):
		if isDOCX(data) {
			return DOCX, nil
		}
		return "", common.UnsupportedFormatError("zip container is not a docx document")
	case looksLikeText(data):
		return Text, nil
	default:
		return "", common.UnsupportedFormatError("unrecognized content signature")
	}
}

// Detect classifies content by signature and cross-checks the declared
// content type and filename extension. A declaration that contradicts the
// signature is a hard failure; generic or absent declarations are ignored.
func Detect(data []byte, declaredType, filename string) (Format, error) {
	if ext := NormalizeExt(filepath.Ext(filename)); ext != "" {
		if _, ok := extFormats[ext]; !ok {
			return "", common.UnsupportedFormatError("unsupported file extension: ." + ext)
		}
	}

	sniffed, err := Sniff(data)
	if err != nil {
		return "", err
	}

	if ext := NormalizeExt(filepath.Ext(filename)); ext != "" {
		if byExt := extFormats[ext]; byExt != sniffed {
			return "", common.UnsupportedFormatError(
				"file extension ." + ext + " does not match content (" + sniffed.String() + ")")
		}
	}
	if mt := normalizeMIME(declaredType); mt != "" {
		if byMIME, ok := mimeFormats[mt]; ok && byMIME != sniffed {
			return "", common.UnsupportedFormatError(
				"declared type " + mt + " does not match content (" + sniffed.String() + ")")
		}
	}
	return sniffed, nil
}

// isDOCX opens the ZIP container and looks for the main document part.
func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

// looksLikeText accepts valid UTF-8 with no NUL bytes.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0x00) >= 0 {
		return false
	}
	return utf8.Valid(data)
}

func normalizeMIME(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
