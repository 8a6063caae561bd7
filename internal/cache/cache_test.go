package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestFingerprintDeterministic(t *testing.T) {
	params := url.Values{"query": {"skills"}, "lang": {"en"}}
	a := Fingerprint("resume text", params, "simple")
	b := Fingerprint("resume text", url.Values{"lang": {"en"}, "query": {"skills"}}, "simple")
	if a != b {
		t.Fatalf("identical inputs produced different keys:\n%s\n%s", a, b)
	}
	if !strings.HasPrefix(a, keyPrefix) {
		t.Fatalf("key missing prefix: %s", a)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint("resume text", url.Values{"query": {"skills"}}, "simple")

	tests := []struct {
		name string
		key  string
	}{
		{"content change", Fingerprint("resume text!", url.Values{"query": {"skills"}}, "simple")},
		{"param value change", Fingerprint("resume text", url.Values{"query": {"education"}}, "simple")},
		{"param key change", Fingerprint("resume text", url.Values{"q": {"skills"}}, "simple")},
		{"tier change", Fingerprint("resume text", url.Values{"query": {"skills"}}, "complex")},
		{"dropped param", Fingerprint("resume text", nil, "simple")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Fatalf("expected a distinct key for %s", tt.name)
			}
		})
	}
}

func TestFingerprintNoConcatenationCollision(t *testing.T) {
	a := Fingerprint("ab", url.Values{"k": {"v"}}, "simple")
	b := Fingerprint("a", url.Values{"bk": {"v"}}, "simple")
	if a == b {
		t.Fatal("boundary shift produced a colliding key")
	}
}

func TestEntryCodecRoundTrip(t *testing.T) {
	in := &Entry{
		Response: json.RawMessage(`{"name":"Jane Doe","skills":{"languages":["Go"]}}`),
		Model:    "gpt-3.5-turbo",
		Tier:     "simple",
		StoredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	raw, err := encodeEntry(in)
	if err != nil {
		t.Fatalf("encodeEntry() error = %v", err)
	}
	out, err := decodeEntry(raw)
	if err != nil {
		t.Fatalf("decodeEntry() error = %v", err)
	}
	if string(out.Response) != string(in.Response) {
		t.Fatalf("response changed in round trip: %s", out.Response)
	}
	if out.Model != in.Model || out.Tier != in.Tier || !out.StoredAt.Equal(in.StoredAt) {
		t.Fatalf("metadata changed in round trip: %+v", out)
	}
}

func TestDecodeEntryGarbage(t *testing.T) {
	if _, err := decodeEntry([]byte("{not json")); err == nil {
		t.Fatal("expected error for corrupt entry")
	}
}

func TestNopAlwaysMisses(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	c.Put(ctx, "k", &Entry{Response: json.RawMessage(`{}`)})
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("Nop returned a hit")
	}
}
