package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cvparse/cvparse/internal/cache"
	"github.com/cvparse/cvparse/internal/textproc"
)

// Result is a routed extraction outcome.
type Result struct {
	Data   ResumeData
	Raw    json.RawMessage
	Model  string
	Tier   textproc.Tier
	Cached bool
}

// Router picks a model per complexity tier, consults the response cache,
// and collapses concurrent identical requests into one upstream call.
type Router struct {
	Extractor    ResumeExtractor
	Cache        cache.Cache
	ModelSimple  string
	ModelComplex string
	Logger       *slog.Logger

	group singleflight.Group
}

func NewRouter(extractor ResumeExtractor, c cache.Cache, modelSimple, modelComplex string, logger *slog.Logger) *Router {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		Extractor:    extractor,
		Cache:        c,
		ModelSimple:  modelSimple,
		ModelComplex: modelComplex,
		Logger:       logger,
	}
}

// ModelFor maps a complexity tier to the configured model name.
func (r *Router) ModelFor(tier textproc.Tier) string {
	if tier == textproc.TierComplex {
		return r.ModelComplex
	}
	return r.ModelSimple
}

// Extract returns the structured resume for the given preprocessed text,
// serving from cache when possible. A corrupt cache entry is treated as
// a miss, never as a failure.
func (r *Router) Extract(ctx context.Context, text string, params url.Values, tier textproc.Tier) (Result, error) {
	key := cache.Fingerprint(text, params, string(tier))

	if entry, ok := r.Cache.Get(ctx, key); ok {
		var data ResumeData
		if err := json.Unmarshal(entry.Response, &data); err != nil {
			r.Logger.Warn("router.cache_entry_invalid", "key", key, "err", err)
		} else {
			r.Logger.Info("router.cache_hit", "key", key, "model", entry.Model, "tier", tier)
			return Result{Data: data, Raw: entry.Response, Model: entry.Model, Tier: tier, Cached: true}, nil
		}
	}

	model := r.ModelFor(tier)
	v, err, shared := r.group.Do(key, func() (any, error) {
		res, err := r.Extractor.ExtractResume(ctx, ExtractRequest{
			Text:  text,
			Query: params.Get("query"),
			Model: model,
		})
		if err != nil {
			return nil, err
		}
		r.Cache.Put(ctx, key, &cache.Entry{
			Response: res.RawJSON,
			Model:    res.Model,
			Tier:     string(tier),
			StoredAt: time.Now().UTC(),
		})
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	res := v.(ExtractResult)
	if shared {
		r.Logger.Info("router.request_coalesced", "key", key)
	}
	return Result{Data: res.Data, Raw: res.RawJSON, Model: res.Model, Tier: tier, Cached: false}, nil
}
