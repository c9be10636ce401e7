package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/config"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
)

// Canned replies for the fallback path. This path is the last line of
// defense, so it never surfaces an error to the caller.
const (
	groqEmptyReply   = "Groq did not return a response."
	groqFailureReply = "Sorry, something went wrong with Groq."
)

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GroqClient calls the secondary provider. It has exactly one credential and
// no retry; decoding parameters are fixed policy values.
type GroqClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	key        string
	log        *logger.Logger
}

// NewGroqClient builds the fallback provider client from configuration.
func NewGroqClient(cfg config.ProviderConfig, log *logger.Logger) *GroqClient {
	return &GroqClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.GroqBaseURL,
		model:      cfg.GroqModel,
		key:        cfg.GroqKey,
		log:        log.With("provider", "groq"),
	}
}

// Complete sends a single flat-text prompt to the fallback provider and
// returns the trimmed reply. The returned string is always usable: every
// failure mode collapses to a canned apology. The error only marks that the
// substitution happened, so the caller can tell a real completion from the
// canned one.
func (c *GroqClient) Complete(ctx context.Context, prompt string) (string, error) {
	reply, err := c.complete(ctx, prompt)
	if err != nil {
		c.log.Error("groq call failed", "error", err)
		return groqFailureReply, err
	}
	return reply, nil
}

func (c *GroqClient) complete(ctx context.Context, prompt string) (string, error) {
	payload := groqRequest{
		Model:       c.model,
		Messages:    []groqMessage{{Role: "user", Content: prompt}},
		Temperature: 1,
		MaxTokens:   1024,
		TopP:        1,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal groq request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 256))
	}

	var parsed groqResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return groqEmptyReply, nil
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return groqEmptyReply, nil
	}
	return content, nil
}
