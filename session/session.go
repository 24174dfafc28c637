package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/moude-ai/moude-server/call"
	"github.com/moude-ai/moude-server/gemini"
	"github.com/moude-ai/moude-server/messages"
	"github.com/moude-ai/moude-server/prompt"
	"github.com/moude-ai/moude-server/store"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeBufferSize = 256
	writeTimeout    = 10 * time.Second

	// titleFallbackLen bounds the generic title used when title
	// generation fails.
	titleFallbackLen = 30
)

// Generator is the slice of the generation client a chat session needs.
type Generator interface {
	GenerateText(ctx context.Context, req *prompt.ComposedRequest) (string, error)
	GenerateTitle(ctx context.Context, message string) (string, error)
	GenerateImage(ctx context.Context, imagePrompt string) (*gemini.GeneratedImage, error)
}

// Client represents a single user's connection
type Client struct {
	ID           string
	UserID       string
	Conn         *websocket.Conn
	CreatedAt    time.Time
	LastActivity time.Time

	store     store.Store
	generator Generator
	calls     *call.Manager

	// Use channels for non-blocking writes
	writeChan chan any

	mu          sync.RWMutex
	closed      bool
	callSession *call.Session // this connection's live call, if any
	CloseChan   chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewClient creates a session for one WebSocket connection. userID is the
// opaque identifier the auth layer resolved for this connection.
func NewClient(id, userID string, conn *websocket.Conn, st store.Store, gen Generator, calls *call.Manager) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	// Configure WebSocket for better performance
	conn.SetReadLimit(512 * 1024) // 512KB max message
	conn.EnableWriteCompression(true)
	conn.SetCompressionLevel(6)

	return &Client{
		ID:           id,
		UserID:       userID,
		Conn:         conn,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		store:        st,
		generator:    gen,
		calls:        calls,
		writeChan:    make(chan any, writeBufferSize),
		CloseChan:    make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins the bidirectional message handling
func (c *Client) Start() {
	go c.writePump()
	c.queueMessage(messages.NewStatusMessage(c.ID, "connected", "Session established"))
	go c.handleClientMessages()
}

// writePump handles all outgoing messages in a single goroutine
func (c *Client) writePump() {
	defer func() {
		// Send close message before exiting
		c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		c.Conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-c.CloseChan:
			return
		case msg, ok := <-c.writeChan:
			if !ok {
				return
			}
			if err := c.writeMessage(msg); err != nil {
				return
			}

			// Drain whatever queued up behind the first message.
			n := len(c.writeChan)
			for i := 0; i < n; i++ {
				select {
				case msg, ok := <-c.writeChan:
					if !ok {
						return
					}
					if err := c.writeMessage(msg); err != nil {
						return
					}
				default:
				}
			}
		}
	}
}

func (c *Client) writeMessage(msg any) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		log.Printf("❌ [%s] Failed to marshal message: %v", c.ID[:8], err)
		return nil
	}
	c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// queueMessage adds a message to the write queue (non-blocking)
func (c *Client) queueMessage(msg any) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}
	select {
	case c.writeChan <- msg:
		c.mu.Lock()
		c.LastActivity = time.Now()
		c.mu.Unlock()
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
	}
}

// Close terminates the session and cleans up resources
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()

	// Hang up a call this connection left running.
	if session := c.currentCall(); session != nil {
		_ = session.Hangup()
	}

	close(c.writeChan)
	close(c.CloseChan)

	if c.Conn != nil {
		c.Conn.Close()
	}
	return nil
}

func (c *Client) setCall(session *call.Session) {
	c.mu.Lock()
	c.callSession = session
	c.mu.Unlock()
}

// currentCall returns this connection's call if it is still live.
func (c *Client) currentCall() *call.Session {
	c.mu.RLock()
	session := c.callSession
	c.mu.RUnlock()
	if session == nil {
		return nil
	}
	select {
	case <-session.Done():
		return nil
	default:
		return session
	}
}

// IsClosed returns whether the session is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) handleClientMessages() {
	defer c.Close()

	for {
		select {
		case <-c.CloseChan:
			return
		default:
			_, message, err := c.Conn.ReadMessage()
			if err != nil {
				if !c.IsClosed() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("❌ [%s] WebSocket read error: %v", c.ID[:8], err)
				}
				return
			}

			c.mu.Lock()
			c.LastActivity = time.Now()
			c.mu.Unlock()

			var clientMsg messages.ClientMessage
			if err := sonic.Unmarshal(message, &clientMsg); err != nil {
				c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Invalid message format"))
				continue
			}

			c.processClientMessage(&clientMsg)
		}
	}
}

func (c *Client) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case "chat":
		var payload messages.ChatPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Invalid chat payload"))
			return
		}
		c.handleChat(&payload)

	case "speak":
		var payload messages.SpeakPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Invalid speak payload"))
			return
		}
		c.handleSpeak(&payload)

	case "control":
		var payload messages.ControlPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		c.handleControlMessage(&payload)

	case "settings":
		var payload messages.SettingsPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Invalid settings payload"))
			return
		}
		c.handleSettings(&payload)

	default:
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Unknown message type: "+msg.Type))
	}
}

// handleChat runs one generation turn: compose the request, call the
// model, persist both turns, and auto-title new chats.
func (c *Client) handleChat(payload *messages.ChatPayload) {
	chatID := payload.ChatID
	if chatID == "" {
		chatID = uuid.New().String()
	}
	module := prompt.Module(payload.Module)

	// Imagine modules generate an image from the query instead of text.
	if module == prompt.ModuleImagine1Pro || module == prompt.ModuleImagine1Suno {
		c.handleImage(chatID, payload.Query)
		return
	}

	history, err := c.loadHistory(chatID)
	if err != nil {
		log.Printf("⚠️ [%s] Failed to load history for chat %s: %v", c.ID[:8], chatID, err)
	}

	req, err := prompt.Compose(module, history, payload.Query, toTextAttachments(payload.Files), toImageAttachments(payload.Images))
	if err != nil {
		code := messages.ErrCodeInvalidMessage
		if errors.Is(err, prompt.ErrEmptyRequest) {
			code = messages.ErrCodeEmptyRequest
		}
		c.queueMessage(messages.NewErrorMessage(c.ID, code, err.Error()))
		return
	}

	reply, err := c.generator.GenerateText(c.ctx, req)
	if err != nil {
		log.Printf("❌ [%s] Generation failed: %v", c.ID[:8], err)
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeGenerationError, err.Error()))
		return
	}

	now := time.Now()
	if err := c.store.AppendMessage(c.ctx, chatID, store.Message{Role: "user", Content: payload.Query, Timestamp: now}); err != nil {
		log.Printf("⚠️ [%s] Failed to persist user turn: %v", c.ID[:8], err)
	}
	if err := c.store.AppendMessage(c.ctx, chatID, store.Message{Role: "assistant", Content: reply, Timestamp: time.Now()}); err != nil {
		log.Printf("⚠️ [%s] Failed to persist assistant turn: %v", c.ID[:8], err)
	}

	c.queueMessage(messages.NewTextMessage(c.ID, chatID, reply))

	if len(history) == 0 {
		go c.generateTitle(chatID, payload.Query)
	}
}

// handleImage serves the Imagine modules.
func (c *Client) handleImage(chatID, query string) {
	if query == "" {
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeEmptyRequest, "Image prompt cannot be empty"))
		return
	}

	img, err := c.generator.GenerateImage(c.ctx, query)
	if err != nil {
		log.Printf("❌ [%s] Image generation failed: %v", c.ID[:8], err)
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeGenerationError, err.Error()))
		return
	}
	c.queueMessage(messages.NewImageMessage(c.ID, chatID, img.DataURI()))
}

// generateTitle names a fresh chat from its first message. Falls back to
// a prefix of the message when the model call fails.
func (c *Client) generateTitle(chatID, firstMessage string) {
	title, err := c.generator.GenerateTitle(c.ctx, firstMessage)
	if err != nil {
		log.Printf("⚠️ [%s] Title generation failed: %v", c.ID[:8], err)
		title = firstMessage
		if len(title) > titleFallbackLen {
			title = title[:titleFallbackLen]
		}
	}
	if err := c.store.SetTitle(c.ctx, chatID, title); err != nil {
		log.Printf("⚠️ [%s] Failed to store chat title: %v", c.ID[:8], err)
		return
	}
	c.queueMessage(messages.NewTitleMessage(c.ID, chatID, title))
}

// handleSpeak starts a voice call reading the given text aloud with the
// user's preferred voice.
func (c *Client) handleSpeak(payload *messages.SpeakPayload) {
	if payload.Text == "" {
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeEmptyRequest, "Nothing to speak"))
		return
	}

	prefs, err := c.store.Preferences(c.ctx, c.UserID)
	if err != nil {
		log.Printf("⚠️ [%s] Failed to load preferences: %v", c.ID[:8], err)
	}

	sink := newWsSink(c)
	session, err := c.calls.StartCall(c.ctx, payload.Text, prefs.Voice, sink, c.onCallState)
	if err != nil {
		code := messages.ErrCodeCallFailed
		if errors.Is(err, call.ErrSpeakerBusy) {
			code = messages.ErrCodeSpeakerBusy
		}
		c.queueMessage(messages.NewErrorMessage(c.ID, code, err.Error()))
		return
	}
	sink.setCallID(session.ID)
	c.setCall(session)

	c.queueMessage(messages.NewCallMessage(c.ID, session.ID, call.StateConnecting.String(), 0, ""))
}

// onCallState forwards call state changes to the client.
func (c *Client) onCallState(session *call.Session, state call.State, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	c.queueMessage(messages.NewCallMessage(c.ID, session.ID, state.String(), session.Elapsed(), detail))
}

func (c *Client) handleControlMessage(payload *messages.ControlPayload) {
	switch payload.Action {
	case "ping":
		c.queueMessage(messages.NewStatusMessage(c.ID, "pong", ""))

	case "hangup":
		session := c.currentCall()
		if session == nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeCallFailed, "No active call"))
			return
		}
		if err := session.Hangup(); err != nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeCallFailed, err.Error()))
		}

	case "mute", "unmute":
		session := c.currentCall()
		if session == nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeCallFailed, "No active call"))
			return
		}
		if err := session.SetMuted(payload.Action == "mute"); err != nil {
			c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeCallFailed, err.Error()))
		}

	default:
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

// handleSettings persists user preferences.
func (c *Client) handleSettings(payload *messages.SettingsPayload) {
	prefs := store.Preferences{Voice: payload.Voice, DisplayName: payload.DisplayName}
	if err := c.store.SetPreferences(c.ctx, c.UserID, prefs); err != nil {
		c.queueMessage(messages.NewErrorMessage(c.ID, messages.ErrCodeSessionFailed, fmt.Sprintf("Failed to save settings: %v", err)))
		return
	}
	c.queueMessage(messages.NewStatusMessage(c.ID, "settings_saved", ""))
}

// loadHistory converts the persisted chat into composer turns.
func (c *Client) loadHistory(chatID string) ([]prompt.Turn, error) {
	msgs, err := c.store.Messages(c.ctx, chatID)
	if err != nil {
		return nil, err
	}
	turns := make([]prompt.Turn, 0, len(msgs))
	for _, msg := range msgs {
		turns = append(turns, prompt.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns, nil
}

func toTextAttachments(files []messages.FilePayload) []prompt.TextAttachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]prompt.TextAttachment, 0, len(files))
	for _, f := range files {
		out = append(out, prompt.TextAttachment{Name: f.Name, Content: f.Content})
	}
	return out
}

func toImageAttachments(images []messages.FilePayload) []prompt.ImageAttachment {
	if len(images) == 0 {
		return nil
	}
	out := make([]prompt.ImageAttachment, 0, len(images))
	for _, img := range images {
		// Reject obviously malformed uploads before they reach the model.
		if !strings.HasPrefix(img.Content, "data:") {
			continue
		}
		out = append(out, prompt.ImageAttachment{Name: img.Name, Content: img.Content})
	}
	return out
}
