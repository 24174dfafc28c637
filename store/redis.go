package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Redis persists chats and preferences in Redis hashes and lists.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func chatMessagesKey(chatID string) string { return "chat:" + chatID + ":messages" }
func chatKey(chatID string) string         { return "chat:" + chatID }
func userKey(userID string) string         { return "user:" + userID }

// AppendMessage pushes a message onto the chat's history list.
func (r *Redis) AppendMessage(ctx context.Context, chatID string, msg Message) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.RPush(ctx, chatMessagesKey(chatID), data).Err(); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Messages returns the chat history in chronological order.
func (r *Redis) Messages(ctx context.Context, chatID string) ([]Message, error) {
	raw, err := r.client.LRange(ctx, chatMessagesKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := sonic.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("corrupt message in chat %s: %w", chatID, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *Redis) SetTitle(ctx context.Context, chatID, title string) error {
	if err := r.client.HSet(ctx, chatKey(chatID), "title", title).Err(); err != nil {
		return fmt.Errorf("failed to set chat title: %w", err)
	}
	return nil
}

func (r *Redis) Title(ctx context.Context, chatID string) (string, error) {
	title, err := r.client.HGet(ctx, chatKey(chatID), "title").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read chat title: %w", err)
	}
	return title, nil
}

func (r *Redis) Preferences(ctx context.Context, userID string) (Preferences, error) {
	fields, err := r.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}
	return Preferences{
		Voice:       fields["voice"],
		DisplayName: fields["display_name"],
	}, nil
}

func (r *Redis) SetPreferences(ctx context.Context, userID string, prefs Preferences) error {
	// Only overwrite fields the caller actually set.
	values := map[string]interface{}{}
	if prefs.Voice != "" {
		values["voice"] = prefs.Voice
	}
	if prefs.DisplayName != "" {
		values["display_name"] = prefs.DisplayName
	}
	if len(values) == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, userKey(userID), values).Err(); err != nil {
		return fmt.Errorf("failed to set preferences: %w", err)
	}
	return nil
}
