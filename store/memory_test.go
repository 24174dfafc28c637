package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryMessagesKeepOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	turns := []Message{
		{Role: "user", Content: "hi", Timestamp: time.Now()},
		{Role: "assistant", Content: "hello", Timestamp: time.Now()},
		{Role: "user", Content: "bye", Timestamp: time.Now()},
	}
	for _, msg := range turns {
		if err := m.AppendMessage(ctx, "chat-1", msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	got, err := m.Messages(ctx, "chat-1")
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("got %d messages, want %d", len(got), len(turns))
	}
	for i := range turns {
		if got[i].Role != turns[i].Role || got[i].Content != turns[i].Content {
			t.Errorf("message %d = %+v, want %+v", i, got[i], turns[i])
		}
	}

	// Other chats are independent.
	if other, _ := m.Messages(ctx, "chat-2"); len(other) != 0 {
		t.Error("unrelated chat should be empty")
	}
}

func TestMemoryTitle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if title, _ := m.Title(ctx, "chat-1"); title != "" {
		t.Error("untitled chat should return empty title")
	}
	if err := m.SetTitle(ctx, "chat-1", "Recursion explained"); err != nil {
		t.Fatalf("SetTitle failed: %v", err)
	}
	if title, _ := m.Title(ctx, "chat-1"); title != "Recursion explained" {
		t.Errorf("title = %q", title)
	}
}

func TestMemoryPreferencesMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// Missing user yields zero preferences, not an error.
	prefs, err := m.Preferences(ctx, "u1")
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if prefs.Voice != "" || prefs.DisplayName != "" {
		t.Errorf("expected zero prefs, got %+v", prefs)
	}

	if err := m.SetPreferences(ctx, "u1", Preferences{Voice: "Vega"}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}
	if err := m.SetPreferences(ctx, "u1", Preferences{DisplayName: "Ada"}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}

	prefs, _ = m.Preferences(ctx, "u1")
	if prefs.Voice != "Vega" || prefs.DisplayName != "Ada" {
		t.Errorf("partial updates must merge, got %+v", prefs)
	}
}
