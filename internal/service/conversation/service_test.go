package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	analysis "github.com/pranav-p-pathak/mental-health-chatbot/internal/analysis/sentiment"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/chat"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/persona"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/provider"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/mood"
)

type fakePrimary struct {
	text       string
	err        error
	lastPrompt string
}

func (f *fakePrimary) Complete(_ context.Context, prompt string) (provider.Completion, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return provider.Completion{}, f.err
	}
	return provider.Completion{Text: f.text, Raw: []byte(`{"candidates":[]}`)}, nil
}

type fakeFallback struct {
	reply      string
	err        error
	called     bool
	lastPrompt string
}

func (f *fakeFallback) Complete(_ context.Context, prompt string) (string, error) {
	f.called = true
	f.lastPrompt = prompt
	return f.reply, f.err
}

type fakeClassifier struct {
	label analysis.Label
	raw   string
	err   error
}

func (f *fakeClassifier) Classify(context.Context, string) (analysis.Label, string, error) {
	if f.err != nil {
		return analysis.Neutral, "", f.err
	}
	return f.label, f.raw, nil
}

type fakeStore struct {
	history    []chat.Message
	historyErr error

	appendErr error
	moodErr   error
	clearErr  error

	appended []chat.Message
	moods    []chat.MoodSample

	messagesCleared bool
	moodsCleared    bool
}

func (f *fakeStore) AppendMessage(_ context.Context, msg chat.Message) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, msg)
	return nil
}

func (f *fakeStore) LoadRecentMessages(context.Context, string, int) ([]chat.Message, error) {
	return f.history, f.historyErr
}

func (f *fakeStore) AppendMood(_ context.Context, sample chat.MoodSample) error {
	if f.moodErr != nil {
		return f.moodErr
	}
	f.moods = append(f.moods, sample)
	return nil
}

func (f *fakeStore) ClearMessages(context.Context, string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.messagesCleared = true
	return nil
}

func (f *fakeStore) ClearMoods(context.Context, string) error {
	f.moodsCleared = true
	return nil
}

func newTestService(primary *fakePrimary, fallback *fakeFallback, classifier *fakeClassifier, store *fakeStore) (*Service, *mood.Tracker) {
	personas := persona.NewMemoryStore(persona.Seed())
	trend := mood.NewTracker(100)
	svc := NewService(personas, primary, fallback, classifier, store, trend, 10, logger.NewNop())
	return svc, trend
}

func TestHandleChatHappyPath(t *testing.T) {
	primary := &fakePrimary{text: "Bot: Take a *deep* breath."}
	fallback := &fakeFallback{reply: "should not be used"}
	classifier := &fakeClassifier{label: analysis.Anxious, raw: "Sentiment: anxious"}
	store := &fakeStore{}

	svc, trend := newTestService(primary, fallback, classifier, store)

	result, err := svc.HandleChat(context.Background(), "user-1", "I feel anxious today", "2026-08-30T09:00:00Z", "calm-therapist")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}

	if result.Response != "Take a **deep** breath." {
		t.Fatalf("unexpected cleaned reply: %q", result.Response)
	}
	if result.Sentiment != analysis.Anxious {
		t.Fatalf("unexpected sentiment: %q", result.Sentiment)
	}
	if _, parseErr := time.Parse(time.RFC3339, result.Timestamp); parseErr != nil {
		t.Fatalf("bot timestamp not RFC3339: %q", result.Timestamp)
	}

	if fallback.called {
		t.Fatal("fallback must not run on the primary path")
	}
	if result.Diagnostics["sentimentRaw"] != "Sentiment: anxious" {
		t.Fatalf("diagnostics missing sentimentRaw: %+v", result.Diagnostics)
	}
	if _, ok := result.Diagnostics["botReplyRaw"]; !ok {
		t.Fatalf("diagnostics missing botReplyRaw: %+v", result.Diagnostics)
	}

	if len(store.appended) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(store.appended))
	}
	userRow, botRow := store.appended[0], store.appended[1]
	if userRow.Sender != chat.RoleUser || botRow.Sender != chat.RoleBot {
		t.Fatalf("write order wrong: %q then %q", userRow.Sender, botRow.Sender)
	}
	if userRow.ConversationID == "" || userRow.ConversationID != botRow.ConversationID {
		t.Fatal("turn sides must share one conversation id")
	}
	if userRow.MessageID == botRow.MessageID {
		t.Fatal("message ids must differ per side")
	}
	if userRow.Persona != "calm-therapist" || botRow.Persona != "calm-therapist" {
		t.Fatalf("persona tag missing: %q / %q", userRow.Persona, botRow.Persona)
	}
	if userRow.Timestamp != "2026-08-30T09:00:00Z" {
		t.Fatalf("user timestamp must be caller-supplied, got %q", userRow.Timestamp)
	}

	if len(store.moods) != 1 || store.moods[0].Sentiment != "anxious" {
		t.Fatalf("expected one anxious mood sample, got %+v", store.moods)
	}
	if entries := trend.Recent("user-1"); len(entries) != 1 || entries[0].Sentiment != analysis.Anxious {
		t.Fatalf("trend not updated: %+v", entries)
	}
}

func TestHandleChatUnknownPersonaBehavesLikeCalmTherapist(t *testing.T) {
	known := &fakePrimary{text: "ok"}
	unknown := &fakePrimary{text: "ok"}
	classifier := &fakeClassifier{label: analysis.Neutral, raw: "Sentiment: neutral"}

	knownSvc, _ := newTestService(known, &fakeFallback{}, classifier, &fakeStore{})
	unknownSvc, _ := newTestService(unknown, &fakeFallback{}, classifier, &fakeStore{})

	if _, err := knownSvc.HandleChat(context.Background(), "u", "hello", "", "calm-therapist"); err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if _, err := unknownSvc.HandleChat(context.Background(), "u", "hello", "", "zen-master"); err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}

	if known.lastPrompt != unknown.lastPrompt {
		t.Fatalf("unknown persona must produce the calm-therapist prompt:\n%q\nvs\n%q", known.lastPrompt, unknown.lastPrompt)
	}
}

func TestHandleChatRendersHistoryChronologically(t *testing.T) {
	primary := &fakePrimary{text: "ok"}
	store := &fakeStore{history: []chat.Message{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleBot, Content: "second"},
	}}

	svc, _ := newTestService(primary, &fakeFallback{}, &fakeClassifier{label: analysis.Neutral}, store)

	if _, err := svc.HandleChat(context.Background(), "u", "third", "", ""); err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}

	if !strings.Contains(primary.lastPrompt, "User: first\nBot: second\nUser: third") {
		t.Fatalf("history not rendered in order:\n%s", primary.lastPrompt)
	}
}

func TestHandleChatSentimentFailureSwitchesTurnToFallback(t *testing.T) {
	primary := &fakePrimary{text: "never used"}
	fallback := &fakeFallback{reply: "a fallback reply"}
	classifier := &fakeClassifier{err: provider.ErrAllCredentialsExhausted}
	store := &fakeStore{}

	svc, _ := newTestService(primary, fallback, classifier, store)

	result, err := svc.HandleChat(context.Background(), "u", "hello", "", "")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}

	if !fallback.called {
		t.Fatal("fallback should have been invoked")
	}
	if result.Response != "a fallback reply" {
		t.Fatalf("unexpected reply: %q", result.Response)
	}
	if result.Sentiment != analysis.Neutral {
		t.Fatalf("fallback turn must report neutral, got %q", result.Sentiment)
	}
	if result.Diagnostics["fallbackUsed"] != "Groq" {
		t.Fatalf("missing fallbackUsed marker: %+v", result.Diagnostics)
	}
	if len(store.moods) != 0 {
		t.Fatalf("no mood sample on the fallback path, got %+v", store.moods)
	}
	if len(store.appended) != 2 {
		t.Fatalf("fallback turns still persist both sides, got %d", len(store.appended))
	}
}

func TestHandleChatReplyFailureAbandonsSentiment(t *testing.T) {
	primary := &fakePrimary{err: provider.ErrAllCredentialsExhausted}
	fallback := &fakeFallback{reply: "fallback reply"}
	// Sentiment itself succeeded, but the reply call exhausting the
	// credentials abandons both primary results for the turn.
	classifier := &fakeClassifier{label: analysis.Sad, raw: "Sentiment: sad"}

	svc, _ := newTestService(primary, fallback, classifier, &fakeStore{})

	result, err := svc.HandleChat(context.Background(), "u", "hello", "", "")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if result.Sentiment != analysis.Neutral {
		t.Fatalf("expected neutral after abandoning primary results, got %q", result.Sentiment)
	}
	if result.Response != "fallback reply" {
		t.Fatalf("unexpected reply: %q", result.Response)
	}
}

func TestHandleChatPersistenceFailureStillResponds(t *testing.T) {
	primary := &fakePrimary{text: "a real reply"}
	store := &fakeStore{appendErr: errors.New("store outage"), moodErr: errors.New("store outage")}

	svc, _ := newTestService(primary, &fakeFallback{}, &fakeClassifier{label: analysis.Calm, raw: "Sentiment: calm"}, store)

	result, err := svc.HandleChat(context.Background(), "u", "hello", "", "")
	if err != nil {
		t.Fatalf("persistence failure must not fail the turn: %v", err)
	}
	if result.Response != "a real reply" {
		t.Fatalf("unexpected reply: %q", result.Response)
	}
}

func TestHandleChatHistoryLoadFailureContinues(t *testing.T) {
	primary := &fakePrimary{text: "ok"}
	store := &fakeStore{historyErr: errors.New("store outage")}

	svc, _ := newTestService(primary, &fakeFallback{}, &fakeClassifier{label: analysis.Neutral}, store)

	result, err := svc.HandleChat(context.Background(), "u", "hello", "", "")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if result.Response == "" {
		t.Fatal("expected a reply despite history outage")
	}
}

func TestHandleChatCrisisKeywordDuringTotalOutage(t *testing.T) {
	classifier := &fakeClassifier{err: provider.ErrAllCredentialsExhausted}
	fallback := &fakeFallback{reply: "Sorry, something went wrong with Groq.", err: errors.New("groq down")}

	svc, _ := newTestService(&fakePrimary{}, fallback, classifier, &fakeStore{})

	result, err := svc.HandleChat(context.Background(), "u", "I want to kill myself", "", "")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if result.Sentiment != analysis.Crisis {
		t.Fatalf("expected crisis label, got %q", result.Sentiment)
	}
	if !strings.Contains(result.Response, "988") {
		t.Fatalf("expected emergency reply, got %q", result.Response)
	}
}

func TestHandleChatTotalOutageWithoutCrisisKeyword(t *testing.T) {
	classifier := &fakeClassifier{err: provider.ErrAllCredentialsExhausted}
	fallback := &fakeFallback{reply: "Sorry, something went wrong with Groq.", err: errors.New("groq down")}

	svc, _ := newTestService(&fakePrimary{}, fallback, classifier, &fakeStore{})

	result, err := svc.HandleChat(context.Background(), "u", "rough day", "", "")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if result.Sentiment != analysis.Neutral {
		t.Fatalf("expected neutral, got %q", result.Sentiment)
	}
	if result.Response != "Sorry, something went wrong with Groq." {
		t.Fatalf("expected canned apology, got %q", result.Response)
	}
}

func TestHandleChatEmptyPrimaryReplyUsesApology(t *testing.T) {
	primary := &fakePrimary{text: "   "}

	svc, _ := newTestService(primary, &fakeFallback{}, &fakeClassifier{label: analysis.Neutral}, &fakeStore{})

	result, err := svc.HandleChat(context.Background(), "u", "hello", "", "")
	if err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if result.Response != genericApology {
		t.Fatalf("expected generic apology, got %q", result.Response)
	}
}

func TestClearHistoryClearsEverything(t *testing.T) {
	store := &fakeStore{}
	svc, trend := newTestService(&fakePrimary{text: "ok"}, &fakeFallback{}, &fakeClassifier{label: analysis.Happy, raw: "Sentiment: happy"}, store)

	if _, err := svc.HandleChat(context.Background(), "user-1", "great day", "", ""); err != nil {
		t.Fatalf("HandleChat err: %v", err)
	}
	if len(trend.Recent("user-1")) == 0 {
		t.Fatal("expected trend entry before clearing")
	}

	if err := svc.ClearHistory(context.Background(), "user-1"); err != nil {
		t.Fatalf("ClearHistory err: %v", err)
	}

	if !store.messagesCleared || !store.moodsCleared {
		t.Fatalf("expected both stores cleared: messages=%v moods=%v", store.messagesCleared, store.moodsCleared)
	}
	if len(trend.Recent("user-1")) != 0 {
		t.Fatal("expected trend reset")
	}
}

func TestClearHistorySurfacesMessageDeleteFailure(t *testing.T) {
	store := &fakeStore{clearErr: errors.New("store outage")}
	svc, _ := newTestService(&fakePrimary{}, &fakeFallback{}, &fakeClassifier{}, store)

	if err := svc.ClearHistory(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when message deletion fails")
	}
}

func TestCleanReply(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bot: hello", "hello"},
		{"bot:   hi there", "hi there"},
		{"You *can* do this", "You **can** do this"},
		{"  plain  ", "plain"},
		{"Bot: *breathe* slowly", "**breathe** slowly"},
	}
	for _, tc := range cases {
		if got := cleanReply(tc.in); got != tc.want {
			t.Fatalf("cleanReply(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
