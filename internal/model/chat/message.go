package chat

// Message is one turn in a conversation as stored in the row store. Rows are
// immutable once written; display order is strictly timestamp ascending.
//
// Timestamps travel as ISO-8601 strings: user turns carry the caller-supplied
// value unchanged, bot turns are stamped server-side.
type Message struct {
	ID             string `json:"id,omitempty"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	Persona        string `json:"persona,omitempty"`
	Sender         string `json:"sender,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Roles and senders used on stored messages.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// MoodSample is one sentiment observation tied to a user message.
type MoodSample struct {
	UserID    string `json:"user_id"`
	Sentiment string `json:"sentiment"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Preferences is the per-user preference record. The bag is opaque to the
// backend; only the selected persona is interpreted.
type Preferences struct {
	UserID          string         `json:"user_id"`
	SelectedPersona string         `json:"selected_persona"`
	Preferences     map[string]any `json:"preferences"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
}
