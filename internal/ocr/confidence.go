package ocr

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	reEmail = regexp.MustCompile(`\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	reYear  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// tesseractTSVConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float64, error) {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}

	lines := strings.Split(string(out), "\n")
	// TSV columns: level page block par line word left top width height conf text.
	// Structural rows carry conf -1 and are skipped.
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n / 100.0, nil
}

// heuristicConfidence scores decoded text on resume-shaped signals:
// contact artifacts, year markers, letter density, enough words.
func heuristicConfidence(txt string) float64 {
	txtL := strings.ToLower(txt)
	score := 0.2 // base
	if reEmail.MatchString(txtL) {
		score += 0.2
	}
	if reYear.MatchString(txtL) {
		score += 0.15
	}
	if letterRatio(txt) > 0.6 {
		score += 0.15
	}
	if len(strings.Fields(txt)) > 40 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// blendConfidence weights the engine's own confidence higher when present.
func blendConfidence(ocrConf, heurConf float64) float64 {
	if ocrConf <= 0 {
		return heurConf
	}
	conf := 0.7*ocrConf + 0.3*heurConf
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func letterRatio(s string) float64 {
	if s == "" {
		return 0
	}
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
