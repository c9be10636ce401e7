package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	analysis "github.com/pranav-p-pathak/mental-health-chatbot/internal/analysis/sentiment"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/chat"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/persona"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/provider"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/service/mood"
)

// Canned replies for degraded turns. Users in distress must never see a hard
// error, so every total-failure path resolves to one of these.
const (
	genericApology = "Sorry, something went wrong."
	emergencyReply = "I'm concerned about what you're sharing. Please reach out for immediate help: National Suicide Prevention Lifeline: 988, or contact your local emergency services. Your life has value."
)

// Primary is the primary-provider surface the orchestrator depends on.
type Primary interface {
	Complete(ctx context.Context, prompt string) (provider.Completion, error)
}

// Fallback is the secondary-provider surface. The string result is always
// usable; a non-nil error marks that the canned apology was substituted.
type Fallback interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier resolves one sentiment label per user message.
type Classifier interface {
	Classify(ctx context.Context, message string) (analysis.Label, string, error)
}

// Store is the persistence surface one chat turn needs.
type Store interface {
	AppendMessage(ctx context.Context, msg chat.Message) error
	LoadRecentMessages(ctx context.Context, userID string, limit int) ([]chat.Message, error)
	AppendMood(ctx context.Context, sample chat.MoodSample) error
	ClearMessages(ctx context.Context, userID string) error
	ClearMoods(ctx context.Context, userID string) error
}

// Result is the outcome of one chat turn.
type Result struct {
	Response    string
	Timestamp   string
	Sentiment   analysis.Label
	Diagnostics map[string]any
}

// Service runs the single request/response cycle for one chat turn: resolve
// persona, load history, classify sentiment, generate the reply with the
// fallback policy, clean it, and persist both sides best-effort.
type Service struct {
	personas     persona.Store
	primary      Primary
	fallback     Fallback
	classifier   Classifier
	store        Store
	trend        *mood.Tracker
	historyLimit int
	log          *logger.Logger
}

// NewService wires the orchestrator. historyLimit bounds how many prior
// messages feed the prompt.
func NewService(personas persona.Store, primary Primary, fallback Fallback, classifier Classifier, store Store, trend *mood.Tracker, historyLimit int, log *logger.Logger) *Service {
	if historyLimit < 1 {
		historyLimit = 10
	}
	return &Service{
		personas:     personas,
		primary:      primary,
		fallback:     fallback,
		classifier:   classifier,
		store:        store,
		trend:        trend,
		historyLimit: historyLimit,
		log:          log.With("component", "conversation"),
	}
}

// HandleChat processes one inbound user message and returns the bot reply.
// Persistence failures are logged and never fail the turn.
func (s *Service) HandleChat(ctx context.Context, userID, message, clientTimestamp, personaID string) (Result, error) {
	resolved := s.personas.Resolve(personaID)

	history, err := s.store.LoadRecentMessages(ctx, userID, s.historyLimit)
	if err != nil {
		// A missing context window degrades the reply, not the request.
		s.log.Warn("history load failed, continuing with empty context", "user_id", userID, "error", err)
		history = nil
	}

	finalPrompt := fmt.Sprintf("%s\n%s\nUser: %s", resolved.Instruction, renderHistory(history), message)

	label, reply, diagnostics := s.generate(ctx, userID, message, finalPrompt, clientTimestamp)

	cleanedReply := cleanReply(reply)
	botTimestamp := time.Now().UTC().Format(time.RFC3339)

	conversationID := uuid.NewString()
	userMessage := chat.Message{
		UserID:         userID,
		Role:           chat.RoleUser,
		Content:        message,
		Timestamp:      clientTimestamp,
		Persona:        resolved.ID,
		Sender:         chat.RoleUser,
		MessageID:      uuid.NewString(),
		ConversationID: conversationID,
	}
	botMessage := chat.Message{
		UserID:         userID,
		Role:           chat.RoleBot,
		Content:        cleanedReply,
		Timestamp:      botTimestamp,
		Persona:        resolved.ID,
		Sender:         chat.RoleBot,
		MessageID:      uuid.NewString(),
		ConversationID: conversationID,
	}

	// User write strictly precedes the bot write so a crash mid-turn can
	// only lose the reply, never orphan it.
	if err := s.store.AppendMessage(ctx, userMessage); err != nil {
		s.log.Error("failed to store user message", "user_id", userID, "error", err)
	}
	if err := s.store.AppendMessage(ctx, botMessage); err != nil {
		s.log.Error("failed to store bot message", "user_id", userID, "error", err)
	}

	return Result{
		Response:    cleanedReply,
		Timestamp:   botTimestamp,
		Sentiment:   label,
		Diagnostics: diagnostics,
	}, nil
}

// generate runs the sentiment call and the reply call on the primary path;
// any primary failure abandons both results and switches the whole turn to
// the fallback provider.
func (s *Service) generate(ctx context.Context, userID, message, finalPrompt, clientTimestamp string) (analysis.Label, string, map[string]any) {
	label, sentimentRaw, err := s.classifier.Classify(ctx, message)
	if err == nil {
		completion, replyErr := s.primary.Complete(ctx, finalPrompt)
		if replyErr == nil {
			reply := completion.Text
			if strings.TrimSpace(reply) == "" {
				reply = genericApology
			}

			s.recordMood(ctx, userID, message, label, clientTimestamp)

			return label, reply, map[string]any{
				"sentimentRaw": sentimentRaw,
				"botReplyRaw":  completion.Raw,
			}
		}
		err = replyErr
	}

	s.log.Warn("primary provider unavailable, falling back", "user_id", userID, "error", err)

	reply, fallbackErr := s.fallback.Complete(ctx, finalPrompt)
	diagnostics := map[string]any{"fallbackUsed": "Groq"}

	// Total outage: both providers gone. Mirror the client-side emergency
	// net so crisis messages still get actionable help.
	if fallbackErr != nil && analysis.HasCrisisKeyword(message) {
		return analysis.Crisis, emergencyReply, diagnostics
	}

	return analysis.Neutral, reply, diagnostics
}

// recordMood persists one mood sample and updates the in-memory trend.
// Best-effort: failures are logged only.
func (s *Service) recordMood(ctx context.Context, userID, message string, label analysis.Label, timestamp string) {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	sample := chat.MoodSample{
		UserID:    userID,
		Sentiment: string(label),
		Message:   message,
		Timestamp: timestamp,
	}
	if err := s.store.AppendMood(ctx, sample); err != nil {
		s.log.Error("failed to store mood sample", "user_id", userID, "error", err)
	}

	if s.trend != nil {
		s.trend.Record(userID, label)
	}
}

// ClearHistory deletes every stored message for userID, then clears mood
// samples and the in-memory trend. Only the message deletion failing is
// surfaced; a mood wipe failure is logged and the operation still succeeds.
func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	if err := s.store.ClearMessages(ctx, userID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	if err := s.store.ClearMoods(ctx, userID); err != nil {
		s.log.Error("failed to clear mood samples", "user_id", userID, "error", err)
	}

	if s.trend != nil {
		s.trend.Reset(userID)
	}
	return nil
}

// renderHistory flattens stored turns into alternating User:/Bot: lines for
// the prompt.
func renderHistory(messages []chat.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		speaker := "Bot"
		if msg.Role == chat.RoleUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

var (
	botPrefixPattern = regexp.MustCompile(`(?i)^Bot:\s*`)
	emphasisPattern  = regexp.MustCompile(`\*([^*]+)\*`)
)

// cleanReply strips a leading "Bot:" prefix and promotes single-asterisk
// emphasis to the double-asterisk form the UI renders.
func cleanReply(text string) string {
	text = botPrefixPattern.ReplaceAllString(text, "")
	text = emphasisPattern.ReplaceAllString(text, "**$1**")
	return strings.TrimSpace(text)
}
