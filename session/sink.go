package session

import (
	"sync"
	"time"

	"github.com/moude-ai/moude-server/audio"
	"github.com/moude-ai/moude-server/messages"
)

// wsSink plays call audio through the client's WebSocket: the encoded
// clip is pushed to the browser and the decoded clip length serves as the
// playback clock. Stop cuts the clock short; the browser discards audio
// for calls it no longer shows.
type wsSink struct {
	client *Client

	mu      sync.Mutex
	callID  string
	stopped bool
	stop    chan struct{}
}

func newWsSink(client *Client) *wsSink {
	return &wsSink{client: client, stop: make(chan struct{})}
}

func (w *wsSink) setCallID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callID = id
}

// Play pushes the clip to the client and reports completion once the
// clip duration has elapsed.
func (w *wsSink) Play(a *audio.Encoded) (<-chan error, error) {
	length, err := audio.Duration(a.Bytes)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	callID := w.callID
	w.mu.Unlock()

	w.client.queueMessage(messages.NewCallAudioMessage(w.client.ID, callID, a.DataURI(), a.MimeType))

	done := make(chan error, 1)
	go func() {
		timer := time.NewTimer(length)
		defer timer.Stop()
		select {
		case <-timer.C:
			done <- nil
		case <-w.stop:
		}
	}()
	return done, nil
}

// SetMuted relays the mute flag to the client's audio element.
func (w *wsSink) SetMuted(muted bool) {
	w.mu.Lock()
	callID := w.callID
	w.mu.Unlock()

	status := "unmuted"
	if muted {
		status = "muted"
	}
	w.client.queueMessage(messages.NewStatusMessage(w.client.ID, status, callID))
}

// Stop halts the playback clock. Safe to call repeatedly.
func (w *wsSink) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stop)
}
