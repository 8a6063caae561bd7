package llm

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/cvparse/cvparse/internal/cache"
	"github.com/cvparse/cvparse/internal/textproc"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*cache.Entry{}}
}

func (m *memCache) Get(ctx context.Context, key string) (*cache.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *memCache) Put(ctx context.Context, key string, e *cache.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	m.puts++
}

type fakeExtractor struct {
	mu      sync.Mutex
	calls   int
	lastReq ExtractRequest
	delay   time.Duration
	err     error
}

func (f *fakeExtractor) ExtractResume(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return ExtractResult{}, f.err
	}
	data := ResumeData{Name: "Jane Doe"}
	data.FillDefaults()
	raw, _ := json.Marshal(&data)
	return ExtractResult{Data: data, RawJSON: raw, Model: req.Model}, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRouterServesRepeatFromCache(t *testing.T) {
	ext := &fakeExtractor{}
	r := NewRouter(ext, newMemCache(), "model-s", "model-c", nil)
	params := url.Values{"query": {"short summary"}}

	first, err := r.Extract(context.Background(), "resume text", params, textproc.TierSimple)
	if err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	if first.Cached {
		t.Error("first call reported cached")
	}

	second, err := r.Extract(context.Background(), "resume text", params, textproc.TierSimple)
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}
	if !second.Cached {
		t.Error("second call not served from cache")
	}
	if got := ext.callCount(); got != 1 {
		t.Errorf("extractor calls = %d, want 1", got)
	}
	if second.Data.Name != "Jane Doe" {
		t.Errorf("cached name = %q", second.Data.Name)
	}
	if second.Model != first.Model {
		t.Errorf("cached model = %q, want %q", second.Model, first.Model)
	}
}

func TestRouterNopCachePassesEveryCallThrough(t *testing.T) {
	ext := &fakeExtractor{}
	r := NewRouter(ext, cache.Nop{}, "model-s", "model-c", nil)

	for i := 0; i < 2; i++ {
		res, err := r.Extract(context.Background(), "resume text", nil, textproc.TierSimple)
		if err != nil {
			t.Fatalf("Extract %d: %v", i, err)
		}
		if res.Cached {
			t.Errorf("call %d reported cached with nop cache", i)
		}
	}
	if got := ext.callCount(); got != 2 {
		t.Errorf("extractor calls = %d, want 2", got)
	}
}

func TestRouterModelPerTier(t *testing.T) {
	ext := &fakeExtractor{}
	r := NewRouter(ext, cache.Nop{}, "gpt-3.5-turbo", "gpt-4-turbo-preview", nil)

	if got := r.ModelFor(textproc.TierSimple); got != "gpt-3.5-turbo" {
		t.Errorf("simple model = %q", got)
	}
	if got := r.ModelFor(textproc.TierComplex); got != "gpt-4-turbo-preview" {
		t.Errorf("complex model = %q", got)
	}

	if _, err := r.Extract(context.Background(), "text", nil, textproc.TierComplex); err != nil {
		t.Fatal(err)
	}
	if ext.lastReq.Model != "gpt-4-turbo-preview" {
		t.Errorf("extractor invoked with %q", ext.lastReq.Model)
	}
}

func TestRouterTierIsPartOfKey(t *testing.T) {
	ext := &fakeExtractor{}
	r := NewRouter(ext, newMemCache(), "model-s", "model-c", nil)

	if _, err := r.Extract(context.Background(), "text", nil, textproc.TierSimple); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Extract(context.Background(), "text", nil, textproc.TierComplex); err != nil {
		t.Fatal(err)
	}
	if got := ext.callCount(); got != 2 {
		t.Errorf("extractor calls = %d, want 2 (one per tier)", got)
	}
}

func TestRouterCorruptCacheEntryIsAMiss(t *testing.T) {
	ext := &fakeExtractor{}
	mc := newMemCache()
	r := NewRouter(ext, mc, "model-s", "model-c", nil)

	key := cache.Fingerprint("text", nil, string(textproc.TierSimple))
	mc.entries[key] = &cache.Entry{Response: []byte("{not json")}

	res, err := r.Extract(context.Background(), "text", nil, textproc.TierSimple)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Cached {
		t.Error("corrupt entry served as a hit")
	}
	if got := ext.callCount(); got != 1 {
		t.Errorf("extractor calls = %d, want 1", got)
	}
}

func TestRouterCoalescesConcurrentRequests(t *testing.T) {
	ext := &fakeExtractor{delay: 50 * time.Millisecond}
	r := NewRouter(ext, newMemCache(), "model-s", "model-c", nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Extract(context.Background(), "same text", nil, textproc.TierSimple); err != nil {
				t.Errorf("Extract: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := ext.callCount(); got != 1 {
		t.Errorf("extractor calls = %d, want 1 for identical concurrent requests", got)
	}
}
