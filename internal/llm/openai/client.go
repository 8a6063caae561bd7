// Package openai implements llm.ResumeExtractor over the chat/completions
// API, with schema validation and a bounded retry loop around each call.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cvparse/cvparse/internal/common"
	"github.com/cvparse/cvparse/internal/llm"
)

// errBadPayload tags completions that transported fine but did not carry
// a usable resume document. Worth a retry: the next sample may validate.
var errBadPayload = errors.New("malformed model output")

// ExtractResume calls chat/completions until a response validates or the
// attempt budget is spent. Transient upstream failures (429, 5xx, network)
// and malformed payloads are retried with doubling backoff; other errors
// fail immediately.
func (c *Client) ExtractResume(ctx context.Context, req llm.ExtractRequest) (llm.ExtractResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	if n := utf8.RuneCountInString(req.Text); n > c.cfg.MaxPromptChars {
		req.Text = clipRunes(req.Text, c.cfg.MaxPromptChars)
		c.log.Warn("llm.prompt_truncated",
			"req_id", rid,
			"text_runes", n,
			"limit", c.cfg.MaxPromptChars,
		)
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", req.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"has_query", req.Query != "",
	)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		res, err := c.extractOnce(ctx, req)
		if err == nil {
			c.log.Info("llm.extract.ok",
				"req_id", rid,
				"model", req.Model,
				"attempt", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return llm.ExtractResult{}, common.TimeoutError("llm", ctx.Err())
		}
		if !retryable(err) || attempt == c.cfg.MaxAttempts {
			break
		}
		wait := c.cfg.RetryWait << (attempt - 1)
		c.log.Warn("llm.extract.retry",
			"req_id", rid,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"err", err,
		)
		select {
		case <-ctx.Done():
			return llm.ExtractResult{}, common.TimeoutError("llm", ctx.Err())
		case <-time.After(wait):
		}
	}

	c.log.Error("llm.extract.failed",
		"req_id", rid,
		"model", req.Model,
		"err", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if errors.Is(lastErr, errBadPayload) {
		return llm.ExtractResult{}, common.UpstreamError("model returned unusable output", lastErr, false)
	}
	var appErr *common.AppError
	if errors.As(lastErr, &appErr) {
		return llm.ExtractResult{}, lastErr
	}
	return llm.ExtractResult{}, common.UpstreamError("openai request failed", lastErr, false)
}

func (c *Client) extractOnce(ctx context.Context, req llm.ExtractRequest) (llm.ExtractResult, error) {
	body := map[string]any{
		"model":           req.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req.Text, req.Query)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return llm.ExtractResult{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return llm.ExtractResult{}, fmt.Errorf("%w: decode response: %v", errBadPayload, err)
	}
	if len(cc.Choices) == 0 {
		return llm.ExtractResult{}, fmt.Errorf("%w: no choices in response", errBadPayload)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return llm.ExtractResult{}, fmt.Errorf("%w: empty completion", errBadPayload)
	}

	doc, err := llm.ExtractJSON(content)
	if err != nil {
		return llm.ExtractResult{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	cleaned, _, err := llm.SanitizeResume(doc, c.log)
	if err != nil {
		return llm.ExtractResult{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := llm.ValidateAgainstSchema(llm.BuildResumeJSONSchema(), cleaned); err != nil {
		return llm.ExtractResult{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}

	var data llm.ResumeData
	if err := json.Unmarshal(cleaned, &data); err != nil {
		return llm.ExtractResult{}, fmt.Errorf("%w: unmarshal fields: %v", errBadPayload, err)
	}
	data.FillDefaults()
	canonical, err := json.Marshal(&data)
	if err != nil {
		return llm.ExtractResult{}, fmt.Errorf("encode result: %w", err)
	}
	return llm.ExtractResult{Data: data, RawJSON: canonical, Model: req.Model}, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, common.UpstreamError("openai unreachable", err, true)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "err", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.UpstreamError("read openai response", err, true)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, common.UpstreamError(
			fmt.Sprintf("openai status %d", resp.StatusCode),
			errors.New(truncate(data, 512)),
			transient,
		)
	}
	return data, nil
}

func retryable(err error) bool {
	return common.IsTransient(err) || errors.Is(err, errBadPayload)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func clipRunes(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
