package sentiment

import (
	"regexp"
	"strings"
)

// Label is one word from the closed sentiment vocabulary.
type Label string

const (
	Positive    Label = "positive"
	Negative    Label = "negative"
	Neutral     Label = "neutral"
	Anxious     Label = "anxious"
	Angry       Label = "angry"
	Sad         Label = "sad"
	Happy       Label = "happy"
	Stressed    Label = "stressed"
	Overwhelmed Label = "overwhelmed"
	Confused    Label = "confused"
	Calm        Label = "calm"
	Hopeful     Label = "hopeful"
	Frustrated  Label = "frustrated"
	Lonely      Label = "lonely"
	Depressed   Label = "depressed"
	Excited     Label = "excited"
	Scared      Label = "scared"
	Grateful    Label = "grateful"
	Insecure    Label = "insecure"
	Ashamed     Label = "ashamed"
	Crisis      Label = "crisis"
)

// Vocabulary lists every accepted label in prompt order.
func Vocabulary() []Label {
	return []Label{
		Positive, Negative, Neutral, Anxious, Angry, Sad, Happy, Stressed,
		Overwhelmed, Confused, Calm, Hopeful, Frustrated, Lonely, Depressed,
		Excited, Scared, Grateful, Insecure, Ashamed, Crisis,
	}
}

var vocabulary = func() map[Label]struct{} {
	set := make(map[Label]struct{}, len(Vocabulary()))
	for _, label := range Vocabulary() {
		set[label] = struct{}{}
	}
	return set
}()

// labelPattern matches the constrained "Sentiment: <word>" response form.
var labelPattern = regexp.MustCompile(`(?i)sentiment:\s*(\w+)`)

// Normalize lowercases a candidate word and collapses anything outside the
// vocabulary to Neutral.
func Normalize(raw string) Label {
	candidate := Label(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := vocabulary[candidate]; ok {
		return candidate
	}
	return Neutral
}

// Extract pulls a label out of raw model output. A missing or off-vocabulary
// match yields Neutral; there is no error path.
func Extract(raw string) Label {
	match := labelPattern.FindStringSubmatch(raw)
	if match == nil {
		return Neutral
	}
	return Normalize(match[1])
}

// crisisKeywords mirror the client-side emergency scan so the backend keeps
// its own safety net when both providers are down.
var crisisKeywords = []string{
	"suicide",
	"kill myself",
	"end it all",
	"not worth living",
	"better off dead",
}

// HasCrisisKeyword reports whether the message contains any crisis phrase.
func HasCrisisKeyword(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range crisisKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
