package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/llm"
)

const validContent = `{"name":"Jane Doe","email":"jane@example.com","skills":{"languages":["Go","Python"]}}`

func chatBody(t *testing.T, content string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		MaxAttempts: 3,
		RetryWait:   time.Millisecond,
	}, nil)
	return c, srv
}

func TestExtractResumeSucceedsAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["model"] != "gpt-3.5-turbo" {
			t.Errorf("model = %v", body["model"])
		}
		if _, ok := body["response_format"]; !ok {
			t.Error("request missing response_format")
		}

		if calls.Add(1) <= 2 {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatBody(t, validContent))
	})

	res, err := c.ExtractResume(context.Background(), llm.ExtractRequest{
		Text:  "Jane Doe\njane@example.com",
		Model: "gpt-3.5-turbo",
	})
	if err != nil {
		t.Fatalf("ExtractResume: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
	if res.Data.Name != "Jane Doe" {
		t.Errorf("name = %q", res.Data.Name)
	}
	if res.Data.Phone != "Not provided" {
		t.Errorf("phone = %q, want default marker", res.Data.Phone)
	}
	if len(res.Data.Skills.Languages) != 2 {
		t.Errorf("languages = %v", res.Data.Skills.Languages)
	}
}

func TestExtractResumeFailsFastOnAuthError(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})

	_, err := c.ExtractResume(context.Background(), llm.ExtractRequest{Text: "x", Model: "m"})
	if err == nil {
		t.Fatal("want error on 401")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry on auth errors)", got)
	}
	if common.ErrorCode(err) != common.CodeUpstream {
		t.Errorf("error code = %s", common.ErrorCode(err))
	}
	if common.IsTransient(err) {
		t.Error("auth error reported transient")
	}
}

func TestExtractResumeRetriesMalformedPayload(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			_, _ = w.Write(chatBody(t, "I could not find a resume in this text."))
			return
		}
		_, _ = w.Write(chatBody(t, "```json\n"+validContent+"\n```"))
	})

	res, err := c.ExtractResume(context.Background(), llm.ExtractRequest{Text: "x", Model: "m"})
	if err != nil {
		t.Fatalf("ExtractResume: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
	if res.Data.Email != "jane@example.com" {
		t.Errorf("email = %q", res.Data.Email)
	}
}

func TestExtractResumeTruncatesOversizedText(t *testing.T) {
	var userPrompt atomic.Value
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		for _, m := range body.Messages {
			if m.Role == "user" {
				userPrompt.Store(m.Content)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatBody(t, validContent))
	})
	c.cfg.MaxPromptChars = 12

	head := "José is hére" // 12 runes, multibyte included
	_, err := c.ExtractResume(context.Background(), llm.ExtractRequest{
		Text:  head + strings.Repeat(" more text", 100),
		Model: "m",
	})
	if err != nil {
		t.Fatalf("ExtractResume: %v", err)
	}
	got, _ := userPrompt.Load().(string)
	if got == "" {
		t.Fatal("no user message captured")
	}
	if !strings.Contains(got, head) {
		t.Error("prompt lost text inside the rune budget")
	}
	if strings.Contains(got, "more text") {
		t.Error("prompt carries text beyond the rune budget")
	}
}

func TestExtractResumeExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.ExtractResume(context.Background(), llm.ExtractRequest{Text: "x", Model: "m"})
	if err == nil {
		t.Fatal("want error after exhausting attempts")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
	if !common.IsTransient(err) {
		t.Error("exhausted 5xx failure should stay transient")
	}
}

func TestExtractResumeHonorsContextDeadline(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c.cfg.RetryWait = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.ExtractResume(ctx, llm.ExtractRequest{Text: "x", Model: "m"})
	if err == nil {
		t.Fatal("want error on cancelled context")
	}
	if common.ErrorCode(err) != common.CodeTimeout {
		t.Errorf("error code = %s, want %s", common.ErrorCode(err), common.CodeTimeout)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled extract took %v, backoff not interrupted", elapsed)
	}
}
