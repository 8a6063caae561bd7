package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/extract"
	"github.com/cvparse/cvparse/internal/format"
	"github.com/cvparse/cvparse/internal/textproc"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type pageInfo struct {
	Page       int      `json:"page"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
	Chars      int      `json:"chars"`
}

type extractMetadata struct {
	Filename              string  `json:"filename"`
	FileType              string  `json:"file_type"`
	FileSizeKB            float64 `json:"file_size_kb"`
	TextLength            int     `json:"text_length"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	ModelUsed             string  `json:"model_used"`
	Cached                bool    `json:"cached"`
	Timestamp             string  `json:"timestamp"`
}

type extractResponse struct {
	ExtractedText string          `json:"extracted_text"`
	Complexity    string          `json:"complexity"`
	ResumeData    json.RawMessage `json:"resumeData"`
	Pages         []pageInfo      `json:"pages"`
	Metadata      extractMetadata `json:"metadata"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	code := common.ErrorCode(err)
	msg := "internal server error"
	var ae *common.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}

	level := slogLevelFor(status)
	s.logger.Log(r.Context(), level, "http.request_failed",
		"req_id", common.RequestIDFromContext(r.Context()),
		"status", status,
		"code", code,
		"err", err,
	)
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   common.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleExtractText runs the full pipeline on one uploaded document:
// detect format, extract pages (OCR fallback per page), preprocess,
// classify complexity, and route to the model tier.
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := s.limiter.Allow(clientKey(r)); err != nil {
		w.Header().Set("Retry-After", strconv.Itoa(s.limiter.RetryAfter()))
		s.writeError(w, r, err)
		return
	}

	maxSize := s.cfg.Server.MaxFileSize
	if r.ContentLength > maxSize {
		s.writeError(w, r, common.SizeLimitError(r.ContentLength, maxSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, r, common.NewAppError(common.CodeSizeLimitExceeded,
				"request body exceeds the upload limit", nil))
			return
		}
		s.writeError(w, r, common.BadRequestError("no file uploaded"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, common.WrapError(err, "read upload"))
		return
	}

	f, err := format.Detect(data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	parseCtx, cancelParse := context.WithTimeout(r.Context(), s.cfg.Server.ExtractTimeout)
	defer cancelParse()
	doc, err := s.parser.Parse(parseCtx, data, f)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = common.TimeoutError("document processing", err)
		}
		s.writeError(w, r, err)
		return
	}

	text := textproc.Preprocess(doc.Text())
	query := r.URL.Query().Get("query")
	tier := s.classifier.Classify(text, query)

	llmCtx, cancelLLM := context.WithTimeout(r.Context(), s.cfg.LLM.Timeout)
	defer cancelLLM()
	res, err := s.router.Extract(llmCtx, text, r.URL.Query(), tier)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && common.ErrorCode(err) != common.CodeTimeout {
			err = common.TimeoutError("resume parsing", err)
		}
		s.writeError(w, r, err)
		return
	}

	pages := make([]pageInfo, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pi := pageInfo{
			Page:   p.Number,
			Source: string(p.Source),
			Chars:  utf8.RuneCountInString(p.Text),
		}
		if p.Source == extract.SourceOCR {
			conf := p.Confidence
			pi.Confidence = &conf
		}
		pages = append(pages, pi)
	}

	writeJSON(w, http.StatusOK, extractResponse{
		ExtractedText: text,
		Complexity:    string(tier),
		ResumeData:    res.Raw,
		Pages:         pages,
		Metadata: extractMetadata{
			Filename:              header.Filename,
			FileType:              string(f),
			FileSizeKB:            round2(float64(len(data)) / 1024),
			TextLength:            utf8.RuneCountInString(text),
			ProcessingTimeSeconds: round2(time.Since(start).Seconds()),
			ModelUsed:             res.Model,
			Cached:                res.Cached,
			Timestamp:             time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// clientKey is the rate limit bucket key: the client IP after RealIP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func slogLevelFor(status int) slog.Level {
	if status >= 500 {
		return slog.LevelError
	}
	return slog.LevelWarn
}
