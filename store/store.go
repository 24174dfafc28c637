package store

import (
	"context"
	"time"
)

// Message is one persisted conversation turn.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Preferences holds the per-user settings the server acts on.
type Preferences struct {
	Voice       string `json:"voice,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// ChatStore persists conversation history keyed by chat id.
type ChatStore interface {
	AppendMessage(ctx context.Context, chatID string, msg Message) error
	Messages(ctx context.Context, chatID string) ([]Message, error)
	SetTitle(ctx context.Context, chatID, title string) error
	Title(ctx context.Context, chatID string) (string, error)
}

// PreferenceStore persists user settings. A user without stored settings
// yields zero-value Preferences, not an error.
type PreferenceStore interface {
	Preferences(ctx context.Context, userID string) (Preferences, error)
	SetPreferences(ctx context.Context, userID string, prefs Preferences) error
}

// Store is the full persistence surface consumed by the server.
type Store interface {
	ChatStore
	PreferenceStore
}
