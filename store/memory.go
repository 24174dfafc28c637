package store

import (
	"context"
	"sync"
)

// Memory is an in-process store used in tests and when Redis is not
// configured.
type Memory struct {
	mu       sync.RWMutex
	messages map[string][]Message
	titles   map[string]string
	prefs    map[string]Preferences
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		messages: make(map[string][]Message),
		titles:   make(map[string]string),
		prefs:    make(map[string]Preferences),
	}
}

func (m *Memory) AppendMessage(_ context.Context, chatID string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[chatID] = append(m.messages[chatID], msg)
	return nil
}

func (m *Memory) Messages(_ context.Context, chatID string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]Message, len(m.messages[chatID]))
	copy(msgs, m.messages[chatID])
	return msgs, nil
}

func (m *Memory) SetTitle(_ context.Context, chatID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[chatID] = title
	return nil
}

func (m *Memory) Title(_ context.Context, chatID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.titles[chatID], nil
}

func (m *Memory) Preferences(_ context.Context, userID string) (Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs[userID], nil
}

func (m *Memory) SetPreferences(_ context.Context, userID string, prefs Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.prefs[userID]
	if prefs.Voice != "" {
		current.Voice = prefs.Voice
	}
	if prefs.DisplayName != "" {
		current.DisplayName = prefs.DisplayName
	}
	m.prefs[userID] = current
	return nil
}
