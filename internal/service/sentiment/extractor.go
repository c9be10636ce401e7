package sentiment

import (
	"context"
	"fmt"
	"strings"

	analysis "github.com/pranav-p-pathak/mental-health-chatbot/internal/analysis/sentiment"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/logger"
	"github.com/pranav-p-pathak/mental-health-chatbot/internal/provider"
)

// Primary is the slice of the primary provider the extractor needs.
type Primary interface {
	Complete(ctx context.Context, prompt string) (provider.Completion, error)
}

// Extractor maps one user message to exactly one sentiment label using a
// constrained-vocabulary prompt against the primary provider.
type Extractor struct {
	primary Primary
	log     *logger.Logger
}

// NewExtractor wires the extractor to a primary provider.
func NewExtractor(primary Primary, log *logger.Logger) *Extractor {
	return &Extractor{primary: primary, log: log.With("component", "sentiment")}
}

// Classify returns the label for message plus the raw model text it was
// extracted from. The returned error is non-nil only when the primary
// provider itself failed (credential exhaustion); the orchestrator uses that
// to switch the whole turn to the fallback path. Any other anomaly — missing
// pattern, off-vocabulary word, empty body — degrades silently to neutral.
func (e *Extractor) Classify(ctx context.Context, message string) (analysis.Label, string, error) {
	completion, err := e.primary.Complete(ctx, buildPrompt(message))
	if err != nil {
		return analysis.Neutral, "", err
	}

	raw := completion.Text
	if strings.TrimSpace(raw) == "" {
		raw = string(analysis.Neutral)
	}

	return analysis.Extract(raw), raw, nil
}

// buildPrompt asks for the literal "Sentiment: <word>" form so extraction
// stays a single pattern match.
func buildPrompt(message string) string {
	words := make([]string, 0, len(analysis.Vocabulary()))
	for _, label := range analysis.Vocabulary() {
		words = append(words, string(label))
	}

	return fmt.Sprintf(`Analyze the emotional tone of the following message and respond in this exact format:

Sentiment: <one-word-lowercase-sentiment>

Only use ONE of the following words:
%s

Message: "%s"

Your answer:
`, strings.Join(words, ", "), message)
}
