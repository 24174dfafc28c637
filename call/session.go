package call

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/moude-ai/moude-server/audio"
)

// State is the lifecycle phase of a voice call.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateEnded
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "invalid"
	}
}

// ErrSessionTerminated is returned for operations on a session that has
// already reached Ended or Error. Terminal states are final; start a new
// session for a new call.
var ErrSessionTerminated = errors.New("call session already terminated")

// Synthesizer produces raw speech samples for a text.
type Synthesizer interface {
	GenerateSpeech(ctx context.Context, text, voiceID string) (*audio.RawSample, error)
}

// Sink plays encoded audio. Play returns a channel that delivers nil on
// natural completion or an error if playback breaks. Implementations must
// tolerate Stop being called more than once.
type Sink interface {
	Play(a *audio.Encoded) (<-chan error, error)
	SetMuted(muted bool)
	Stop()
}

// Session drives one voice call: synthesize speech, wrap it in a playable
// container, hand it to the sink, then track elapsed time until hang-up,
// natural completion or failure.
//
// The state machine is Connecting -> Active -> {Ended, Error}; any failure
// before Active goes straight to Error.
type Session struct {
	ID string

	// OnState is invoked after every state change with the new state and,
	// for StateError, the failure. Set before calling Start.
	OnState func(state State, err error)

	text  string
	voice string
	synth Synthesizer
	sink  Sink

	// tick is the elapsed-time resolution, one second outside of tests.
	tick time.Duration

	mu      sync.Mutex
	state   State
	elapsed int
	muted   bool
	failure error
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSession creates a session in Connecting with the text to be spoken
// and a voice preference.
func NewSession(id, text, voiceID string, synth Synthesizer, sink Sink) *Session {
	return &Session{
		ID:    id,
		text:  text,
		voice: voiceID,
		synth: synth,
		sink:  sink,
		tick:  time.Second,
		state: StateConnecting,
		done:  make(chan struct{}),
	}
}

// Start launches the synthesize -> encode -> play sequence. Each step
// happens-after the previous one completes; nothing is reordered.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	sample, err := s.synth.GenerateSpeech(ctx, s.text, s.voice)
	if err != nil {
		s.fail(fmt.Errorf("speech synthesis failed: %w", err))
		return
	}

	// A hang-up during synthesis has already terminated the session; the
	// late result must be discarded, never applied.
	if s.State() != StateConnecting {
		log.Printf("🗑 [%s] Discarding synthesis result for terminated call", s.ID)
		return
	}

	encoded, err := audio.Encode(sample)
	if err != nil {
		s.fail(fmt.Errorf("audio encoding failed: %w", err))
		return
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	muted := s.muted
	s.mu.Unlock()

	// Apply a mute toggled during Connecting before audio starts.
	s.sink.SetMuted(muted)

	playDone, err := s.sink.Play(encoded)
	if err != nil {
		s.fail(fmt.Errorf("playback failed to start: %w", err))
		return
	}

	if !s.transition(StateConnecting, StateActive, nil) {
		// Hang-up won the race; release the sink.
		s.sink.Stop()
		return
	}

	go s.countElapsed()

	select {
	case <-ctx.Done():
		// Hangup already performed the transition and stopped the sink.
		return
	case err := <-playDone:
		if err != nil {
			s.sink.Stop()
			s.fail(fmt.Errorf("playback error: %w", err))
			return
		}
		if s.transition(StateActive, StateEnded, nil) {
			s.sink.Stop()
		}
	}
}

// countElapsed increments the call timer once per tick while Active.
func (s *Session) countElapsed() {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state == StateActive {
				s.elapsed++
			}
			s.mu.Unlock()
		}
	}
}

// Hangup terminates the call. During Connecting it aborts the in-flight
// synthesis without waiting for it to resolve.
func (s *Session) Hangup() error {
	s.mu.Lock()
	if s.state == StateEnded || s.state == StateError {
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	s.state = StateEnded
	cancel := s.cancel
	close(s.done)
	callback := s.OnState
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.sink.Stop()

	log.Printf("📴 [%s] Call hung up", s.ID)
	if callback != nil {
		callback(StateEnded, nil)
	}
	return nil
}

// SetMuted toggles the playback mute flag. Permitted only while the call
// is Connecting or Active; the state itself never changes.
func (s *Session) SetMuted(muted bool) error {
	s.mu.Lock()
	if s.state == StateEnded || s.state == StateError {
		s.mu.Unlock()
		return fmt.Errorf("cannot mute: %w", ErrSessionTerminated)
	}
	s.muted = muted
	started := s.state == StateActive
	s.mu.Unlock()

	if started {
		s.sink.SetMuted(muted)
	}
	return nil
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the seconds spent in Active so far.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Muted reports the current mute flag.
func (s *Session) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Err returns the failure that moved the session to Error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// transition moves from one state to another if the session is still in
// the expected state. Returns false when the move was lost to a
// concurrent terminal transition.
func (s *Session) transition(from, to State, cause error) bool {
	s.mu.Lock()
	if s.state != from {
		s.mu.Unlock()
		return false
	}
	s.state = to
	s.failure = cause
	callback := s.OnState
	if to == StateEnded || to == StateError {
		close(s.done)
	}
	s.mu.Unlock()

	log.Printf("📞 [%s] Call %s -> %s", s.ID, from, to)
	if callback != nil {
		callback(to, cause)
	}
	return true
}

// fail moves a live session to Error. Failures are never silent: the
// state callback always fires so the caller can surface the condition.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state == StateEnded || s.state == StateError {
		// Hang-up already terminated the session; the failure is moot.
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = StateError
	s.failure = err
	callback := s.OnState
	close(s.done)
	s.mu.Unlock()

	log.Printf("❌ [%s] Call %s -> error: %v", s.ID, from, err)
	if callback != nil {
		callback(StateError, err)
	}
}
