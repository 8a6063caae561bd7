// cvparsed is the resume extraction daemon: it serves /extract-text and
// /health over HTTP, reading its configuration from the environment.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cvparse/cvparse/internal/cache"
	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/extract/pdf"
	"github.com/cvparse/cvparse/internal/llm"
	"github.com/cvparse/cvparse/internal/llm/openai"
	"github.com/cvparse/cvparse/internal/ocr"
	"github.com/cvparse/cvparse/internal/parser"
	"github.com/cvparse/cvparse/internal/ratelimit"
	"github.com/cvparse/cvparse/internal/server"
	"github.com/cvparse/cvparse/internal/textproc"
)

func main() {
	cfg := common.LoadConfig()

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache is best effort: disabled or unreachable Redis means every
	// request goes straight to the model.
	var store cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.URL, cfg.Cache.TTL, logger)
		if err != nil {
			logger.Warn("cache.unavailable", "url", cfg.Cache.URL, "err", err)
		} else {
			defer func() { _ = redisCache.Close() }()
			store = redisCache
			logger.Info("cache.connected", "url", cfg.Cache.URL, "ttl", cfg.Cache.TTL)
		}
	}

	runner := ocr.NewExecRunner(logger)
	pageOCR := ocr.NewExtractor(ocr.Config{
		Language: cfg.OCR.Language,
		DPI:      cfg.OCR.DPI,
	}, runner, logger)
	pdfSource := pdf.NewExtractor("", runner, logger)

	p := parser.NewParser(pdfSource, pageOCR, parser.Config{
		MinCharsPerPage: cfg.OCR.MinCharsPerPage,
		OCRConcurrency:  cfg.OCR.Concurrency,
	}, logger)

	extractor := openai.NewClient(openai.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Temperature:    cfg.LLM.Temperature,
		MaxPromptChars: cfg.LLM.MaxPromptChars,
		Timeout:        cfg.LLM.Timeout,
		MaxAttempts:    cfg.LLM.MaxAttempts,
	}, logger)
	router := llm.NewRouter(extractor, store, cfg.LLM.ModelSimple, cfg.LLM.ModelComplex, logger)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RPM:   cfg.Limit.RPM,
		Burst: cfg.Limit.Burst,
	}, logger)

	srv := server.NewServer(*cfg, p, textproc.NewClassifier(), router, limiter, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		logger.Info("http.listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http.serve_failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("http.shutdown_failed", "err", err)
	}
	logger.Info("stopped")
}
