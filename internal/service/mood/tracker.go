package mood

import (
	"sync"
	"time"

	analysis "github.com/pranav-p-pathak/mental-health-chatbot/internal/analysis/sentiment"
)

// Entry is one recorded sentiment observation.
type Entry struct {
	Sentiment analysis.Label `json:"sentiment"`
	Timestamp time.Time      `json:"timestamp"`
}

// Tracker keeps a bounded per-user window of recent sentiment labels in
// memory, so trend reads don't have to hit the row store. It is reset
// alongside the clear-history operation.
type Tracker struct {
	mu     sync.RWMutex
	window int
	byUser map[string][]Entry
}

// NewTracker bootstraps the in-memory tracker with the given window size.
func NewTracker(window int) *Tracker {
	if window < 1 {
		window = 1
	}
	return &Tracker{
		window: window,
		byUser: make(map[string][]Entry),
	}
}

// Record appends one observation for userID, evicting the oldest entry once
// the window is full.
func (t *Tracker) Record(userID string, label analysis.Label) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := append(t.byUser[userID], Entry{Sentiment: label, Timestamp: time.Now().UTC()})
	if len(entries) > t.window {
		entries = entries[len(entries)-t.window:]
	}
	t.byUser[userID] = entries
}

// Recent returns a copy of the recorded window for userID, oldest first.
func (t *Tracker) Recent(userID string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := t.byUser[userID]
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return copied
}

// Reset drops every observation for userID.
func (t *Tracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byUser, userID)
}
