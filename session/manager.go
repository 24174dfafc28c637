package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moude-ai/moude-server/call"
	"github.com/moude-ai/moude-server/config"
	"github.com/moude-ai/moude-server/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Manager manages all client sessions
type Manager struct {
	sessions map[string]*Client
	mu       sync.RWMutex

	redis     *redis.Client
	config    *config.Config
	store     store.Store
	generator Generator
	calls     *call.Manager
}

// NewManager creates a session manager. Redis is optional: when it is
// unreachable the server falls back to the in-memory store and keeps no
// session mirror.
func NewManager(cfg *config.Config, generator Generator, synth call.Synthesizer) (*Manager, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var st store.Store
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Redis unavailable, continue without it
		redisClient = nil
		st = store.NewMemory()
	} else {
		st = store.NewRedis(redisClient)
	}

	return &Manager{
		sessions:  make(map[string]*Client),
		redis:     redisClient,
		config:    cfg,
		store:     st,
		generator: generator,
		calls:     call.NewManager(synth, redisClient),
	}, nil
}

// Store exposes the persistence layer the manager selected.
func (sm *Manager) Store() store.Store {
	return sm.store
}

// CreateSession creates a new client session for a connection
func (sm *Manager) CreateSession(ctx context.Context, userID string, conn *websocket.Conn) (*Client, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.config.MaxSessions {
		return nil, fmt.Errorf("maximum sessions reached")
	}

	sessionID := uuid.New().String()
	client := NewClient(sessionID, userID, conn, sm.store, sm.generator, sm.calls)

	sm.storeSession(ctx, sessionID, client)
	return client, nil
}

// storeSession saves a session to memory and Redis
func (sm *Manager) storeSession(ctx context.Context, sessionID string, client *Client) {
	sm.sessions[sessionID] = client

	if sm.redis != nil {
		sm.redis.HSet(ctx, "session:"+sessionID, map[string]interface{}{
			"created_at":    client.CreatedAt.Format(time.RFC3339),
			"last_activity": client.LastActivity.Format(time.RFC3339),
			"user_id":       client.UserID,
			"status":        "active",
		})
		sm.redis.SAdd(ctx, "active_sessions", sessionID)
		sm.redis.Expire(ctx, "session:"+sessionID, sm.config.SessionTimeout)
	}
}

// GetSession retrieves a session by ID
func (sm *Manager) GetSession(sessionID string) (*Client, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	client, exists := sm.sessions[sessionID]
	return client, exists
}

// RemoveSession cleans up and removes a session
func (sm *Manager) RemoveSession(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	client, exists := sm.sessions[sessionID]
	if !exists {
		return nil
	}

	client.Close()
	delete(sm.sessions, sessionID)

	if sm.redis != nil {
		sm.redis.Del(ctx, "session:"+sessionID)
		sm.redis.SRem(ctx, "active_sessions", sessionID)
	}

	return nil
}

// GetActiveSessionCount returns current session count
func (sm *Manager) GetActiveSessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupInactiveSessions removes sessions that have been inactive
func (sm *Manager) CleanupInactiveSessions(ctx context.Context) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for id, client := range sm.sessions {
		client.mu.RLock()
		lastActivity := client.LastActivity
		client.mu.RUnlock()

		if now.Sub(lastActivity) > sm.config.SessionTimeout {
			client.Close()
			delete(sm.sessions, id)

			if sm.redis != nil {
				sm.redis.Del(ctx, "session:"+id)
				sm.redis.SRem(ctx, "active_sessions", id)
			}
		}
	}
}

// StartCleanupRoutine starts periodic cleanup of inactive sessions
func (sm *Manager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.CleanupInactiveSessions(ctx)
		}
	}
}

// Shutdown closes all sessions
func (sm *Manager) Shutdown() {
	sm.calls.Shutdown()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, client := range sm.sessions {
		client.Close()
		delete(sm.sessions, id)
	}

	if sm.redis != nil {
		sm.redis.Close()
	}
}
