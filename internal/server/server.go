// Package server exposes the extraction pipeline over HTTP: a health
// probe and the /extract-text upload endpoint.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/llm"
	"github.com/cvparse/cvparse/internal/parser"
	"github.com/cvparse/cvparse/internal/ratelimit"
	"github.com/cvparse/cvparse/internal/textproc"
)

// Server wires the parser, classifier, tier router, and rate limiter
// behind the HTTP surface.
type Server struct {
	cfg        common.Config
	parser     *parser.Parser
	classifier textproc.Classifier
	router     *llm.Router
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

func NewServer(
	cfg common.Config,
	p *parser.Parser,
	classifier textproc.Classifier,
	router *llm.Router,
	limiter *ratelimit.Limiter,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		parser:     p,
		classifier: classifier,
		router:     router,
		limiter:    limiter,
		logger:     logger,
	}
}

// Handler builds the routed HTTP handler with the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/extract-text", s.handleExtractText)
	return r
}
