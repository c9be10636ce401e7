package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	analysis "github.com/pranav-p-pathak/mental-health-chatbot/internal/analysis/sentiment"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/middleware"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/conversation"
)

const testSecret = "test-signing-secret"

type fakeOrchestrator struct {
	result   conversation.Result
	chatErr  error
	clearErr error

	lastUserID  string
	lastMessage string
	lastPersona string
}

func (f *fakeOrchestrator) HandleChat(_ context.Context, userID, message, _, personaID string) (conversation.Result, error) {
	f.lastUserID = userID
	f.lastMessage = message
	f.lastPersona = personaID
	return f.result, f.chatErr
}

func (f *fakeOrchestrator) ClearHistory(_ context.Context, userID string) error {
	f.lastUserID = userID
	return f.clearErr
}

func setupRouter(orchestrator *fakeOrchestrator) http.Handler {
	auth := middleware.NewAuth(testSecret, logger.NewNop())
	handler := New(orchestrator, logger.NewNop())

	r := chi.NewRouter()
	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireAuth)
		handler.RegisterRoutes(protected)
	})
	return r
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func TestHandleChatSuccess(t *testing.T) {
	orchestrator := &fakeOrchestrator{
		result: conversation.Result{
			Response:    "I'm here with you.",
			Timestamp:   "2026-08-30T10:00:00Z",
			Sentiment:   analysis.Anxious,
			Diagnostics: map[string]any{"sentimentRaw": "Sentiment: anxious"},
		},
	}
	router := setupRouter(orchestrator)

	body, _ := json.Marshal(map[string]string{
		"message":   "I feel anxious today",
		"timestamp": "2026-08-30T09:59:59Z",
		"persona":   "calm-therapist",
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Response        string         `json:"response"`
		Timestamp       string         `json:"timestamp"`
		Sentiment       string         `json:"sentiment"`
		RawGeminiOutput map[string]any `json:"rawGeminiOutput"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Response == "" {
		t.Fatal("response must never be empty")
	}
	if payload.Sentiment != "anxious" {
		t.Fatalf("unexpected sentiment: %q", payload.Sentiment)
	}
	if payload.RawGeminiOutput["sentimentRaw"] != "Sentiment: anxious" {
		t.Fatalf("diagnostics not forwarded: %+v", payload.RawGeminiOutput)
	}

	if orchestrator.lastUserID != "user-1" {
		t.Fatalf("orchestrator saw user %q", orchestrator.lastUserID)
	}
	if orchestrator.lastPersona != "calm-therapist" {
		t.Fatalf("orchestrator saw persona %q", orchestrator.lastPersona)
	}
}

func TestHandleChatRequiresAuth(t *testing.T) {
	router := setupRouter(&fakeOrchestrator{})

	body := []byte(`{"message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestHandleChatRejectsEmptyMessage(t *testing.T) {
	router := setupRouter(&fakeOrchestrator{})

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestClearMessagesSuccess(t *testing.T) {
	orchestrator := &fakeOrchestrator{}
	router := setupRouter(orchestrator)

	req := httptest.NewRequest(http.MethodDelete, "/clear-messages", nil)
	req.Header.Set("Authorization", bearer(t, "user-7"))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["message"] != "Messages deleted" {
		t.Fatalf("unexpected body: %+v", payload)
	}
	if orchestrator.lastUserID != "user-7" {
		t.Fatalf("cleared for wrong user: %q", orchestrator.lastUserID)
	}
}

func TestClearMessagesStoreFailure(t *testing.T) {
	orchestrator := &fakeOrchestrator{clearErr: errors.New("store outage")}
	router := setupRouter(orchestrator)

	req := httptest.NewRequest(http.MethodDelete, "/clear-messages", nil)
	req.Header.Set("Authorization", bearer(t, "user-7"))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
