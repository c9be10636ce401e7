package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/config"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
)

// ErrAllCredentialsExhausted signals that every configured primary credential
// failed for one call. Callers must treat this as "primary provider
// unavailable", not as a rejected message.
var ErrAllCredentialsExhausted = errors.New("all primary provider credentials exhausted")

// Completion is one successful model response: the extracted text plus the
// raw body for diagnostics.
type Completion struct {
	Text string
	Raw  json.RawMessage
}

// geminiRequest is the structured prompt payload the primary provider expects.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient calls the primary generative-text provider. The credential
// list is iterated read-only per request; there is no circuit breaker, every
// call retries the full list from the start.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	keys       []string
	log        *logger.Logger
}

// NewGeminiClient builds the primary provider client from configuration.
func NewGeminiClient(cfg config.ProviderConfig, log *logger.Logger) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.GeminiBaseURL,
		model:      cfg.GeminiModel,
		keys:       append([]string(nil), cfg.GeminiKeys...),
		log:        log.With("provider", "gemini"),
	}
}

// Complete tries each configured credential in order and returns the first
// successful completion. Individual attempt failures are logged and the next
// credential is tried; ErrAllCredentialsExhausted terminates the loop.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (Completion, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	for i, key := range c.keys {
		completion, err := c.attempt(ctx, key, body)
		if err != nil {
			c.log.Warn("gemini credential attempt failed", "credential_index", i, "error", err)
			continue
		}
		return completion, nil
	}

	return Completion{}, ErrAllCredentialsExhausted
}

func (c *GeminiClient) attempt(ctx context.Context, key string, body []byte) (Completion, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Completion{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 256))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Completion{}, fmt.Errorf("parse response: %w", err)
	}

	return Completion{Text: firstCandidateText(parsed), Raw: raw}, nil
}

// firstCandidateText digs out candidates[0].content.parts[0].text; an empty
// string means the provider answered without usable content and the caller
// applies its own default.
func firstCandidateText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
