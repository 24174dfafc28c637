package call

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSpeakerBusy is returned when a call is requested while another one is
// still live. The playback sink is a single shared resource; a new call
// must not pre-empt the running one.
var ErrSpeakerBusy = errors.New("another call is already active")

// Manager serializes voice calls: at most one session is live at a time.
// Live calls are mirrored into Redis when it is available.
type Manager struct {
	synth Synthesizer
	redis *redis.Client

	mu     sync.Mutex
	active *Session
}

// NewManager creates a call manager. redisClient may be nil; the manager
// then keeps its state purely in memory.
func NewManager(synth Synthesizer, redisClient *redis.Client) *Manager {
	return &Manager{synth: synth, redis: redisClient}
}

// StartCall creates and starts a session speaking the given text. It
// fails with ErrSpeakerBusy while another session holds the speaker.
// onState receives every state change of the new session.
func (m *Manager) StartCall(ctx context.Context, text, voiceID string, sink Sink, onState func(*Session, State, error)) (*Session, error) {
	m.mu.Lock()
	if m.active != nil {
		select {
		case <-m.active.Done():
			// Previous call finished; slot is free.
		default:
			m.mu.Unlock()
			return nil, ErrSpeakerBusy
		}
	}

	session := NewSession(uuid.New().String(), text, voiceID, m.synth, sink)
	session.OnState = func(state State, err error) {
		m.trackState(session, state)
		if onState != nil {
			onState(session, state, err)
		}
	}
	m.active = session
	m.mu.Unlock()

	m.storeCall(ctx, session, voiceID)
	session.Start(ctx)
	return session, nil
}

// ActiveCall returns the live session, if any.
func (m *Manager) ActiveCall() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, false
	}
	select {
	case <-m.active.Done():
		return nil, false
	default:
		return m.active, true
	}
}

// Shutdown hangs up the live call, if any.
func (m *Manager) Shutdown() {
	if session, ok := m.ActiveCall(); ok {
		_ = session.Hangup()
	}
}

// storeCall mirrors a new call into Redis.
func (m *Manager) storeCall(ctx context.Context, session *Session, voiceID string) {
	if m.redis == nil {
		return
	}
	m.redis.HSet(ctx, "call:"+session.ID, map[string]interface{}{
		"state":      session.State().String(),
		"voice":      voiceID,
		"started_at": time.Now().Format(time.RFC3339),
	})
	m.redis.SAdd(ctx, "active_calls", session.ID)
	m.redis.Expire(ctx, "call:"+session.ID, time.Hour)
}

// trackState keeps the Redis mirror in sync and frees the speaker slot on
// terminal states.
func (m *Manager) trackState(session *Session, state State) {
	if m.redis != nil {
		ctx := context.Background()
		if state == StateEnded || state == StateError {
			m.redis.Del(ctx, "call:"+session.ID)
			m.redis.SRem(ctx, "active_calls", session.ID)
		} else {
			m.redis.HSet(ctx, "call:"+session.ID, "state", state.String())
		}
	}
}
