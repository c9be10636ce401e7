package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/config"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/chat"
)

// Table names in the external row store.
const (
	tableMessages    = "messages"
	tableMoodData    = "mood_data"
	tablePreferences = "user_preferences"
)

// Client is the sole owner of the row-store schema. All calls authenticate
// with the service-level credential, never the end user's bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New builds a row-store client from configuration.
func New(cfg config.StoreConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.URL + "/rest/v1",
		apiKey:     cfg.ServiceRoleKey,
		log:        log.With("component", "store"),
	}
}

// AppendMessage inserts one message row. Identifier uniqueness is left to
// generated ids; there is no further enforcement.
func (c *Client) AppendMessage(ctx context.Context, msg chat.Message) error {
	return c.insert(ctx, tableMessages, msg)
}

// LoadRecentMessages fetches the limit most recent rows for userID and
// returns them in chronological order. The store's native order is
// newest-first, so the page is reversed in memory before returning.
func (c *Client) LoadRecentMessages(ctx context.Context, userID string, limit int) ([]chat.Message, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("order", "timestamp.desc")
	query.Set("limit", strconv.Itoa(limit))

	var rows []chat.Message
	if err := c.selectRows(ctx, tableMessages, query, &rows); err != nil {
		return nil, err
	}

	reverse(rows)
	return rows, nil
}

// ClearMessages deletes every message row owned by userID.
func (c *Client) ClearMessages(ctx context.Context, userID string) error {
	return c.deleteRows(ctx, tableMessages, userID)
}

// AppendMood inserts one mood sample.
func (c *Client) AppendMood(ctx context.Context, sample chat.MoodSample) error {
	return c.insert(ctx, tableMoodData, sample)
}

// LoadMoodHistory fetches the limit most recent mood samples for userID in
// chronological order.
func (c *Client) LoadMoodHistory(ctx context.Context, userID string, limit int) ([]chat.MoodSample, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("order", "timestamp.desc")
	query.Set("limit", strconv.Itoa(limit))

	var rows []chat.MoodSample
	if err := c.selectRows(ctx, tableMoodData, query, &rows); err != nil {
		return nil, err
	}

	reverse(rows)
	return rows, nil
}

// ClearMoods deletes every mood sample owned by userID.
func (c *Client) ClearMoods(ctx context.Context, userID string) error {
	return c.deleteRows(ctx, tableMoodData, userID)
}

// UpsertPreferences writes the per-user preference record keyed by user_id.
func (c *Client) UpsertPreferences(ctx context.Context, prefs chat.Preferences) error {
	body, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", tablePreferences, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, tablePreferences, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	return c.expectSuccess(req, tablePreferences)
}

// LoadPreferences fetches the preference record for userID. Absence yields
// defaults (persona "default", empty bag), not an error.
func (c *Client) LoadPreferences(ctx context.Context, userID string) (chat.Preferences, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("limit", "1")

	var rows []chat.Preferences
	if err := c.selectRows(ctx, tablePreferences, query, &rows); err != nil {
		return chat.Preferences{}, err
	}

	if len(rows) == 0 {
		return chat.Preferences{
			UserID:          userID,
			SelectedPersona: "default",
			Preferences:     map[string]any{},
		}, nil
	}

	prefs := rows[0]
	if prefs.SelectedPersona == "" {
		prefs.SelectedPersona = "default"
	}
	if prefs.Preferences == nil {
		prefs.Preferences = map[string]any{}
	}
	return prefs, nil
}

func (c *Client) insert(ctx context.Context, table string, row any) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", table, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, table, nil, body)
	if err != nil {
		return err
	}

	return c.expectSuccess(req, table)
}

func (c *Client) selectRows(ctx context.Context, table string, query url.Values, dest any) error {
	req, err := c.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("select %s: unexpected status %d: %s", table, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

func (c *Client) deleteRows(ctx context.Context, table, userID string) error {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)

	req, err := c.newRequest(ctx, http.MethodDelete, table, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	return c.expectSuccess(req, table)
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body []byte) (*http.Request, error) {
	endpoint := c.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", table, err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) expectSuccess(req *http.Request, table string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, table, resp.StatusCode, raw)
	}
	return nil
}

func reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
