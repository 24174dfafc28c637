package messages

// Error codes
const (
	ErrCodeInvalidMessage  = "INVALID_MESSAGE"
	ErrCodeEmptyRequest    = "EMPTY_REQUEST"
	ErrCodeGenerationError = "GENERATION_ERROR"
	ErrCodeCallFailed      = "CALL_FAILED"
	ErrCodeSpeakerBusy     = "SPEAKER_BUSY"
	ErrCodeSessionFailed   = "SESSION_FAILED"
)

// Message types
const (
	TypeText      = "text"
	TypeTitle     = "title"
	TypeImage     = "image"
	TypeCall      = "call"
	TypeCallAudio = "call_audio"
	TypeStatus    = "status"
	TypeError     = "error"
)

// ServerMessage represents a message sent to the frontend client
type ServerMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// TextResponsePayload contains a generated chat reply
type TextResponsePayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

// TitlePayload carries a freshly generated chat title
type TitlePayload struct {
	ChatID string `json:"chatId"`
	Title  string `json:"title"`
}

// ImagePayload contains a generated image as a data URI
type ImagePayload struct {
	ChatID  string `json:"chatId"`
	DataURI string `json:"dataUri"`
}

// CallPayload reports a voice-call state change
type CallPayload struct {
	CallID  string `json:"callId"`
	State   string `json:"state"` // "connecting", "active", "ended", "error"
	Elapsed int    `json:"elapsed"`
	Message string `json:"message,omitempty"`
}

// CallAudioPayload carries the encoded call audio for playback
type CallAudioPayload struct {
	CallID   string `json:"callId"`
	DataURI  string `json:"dataUri"`
	MimeType string `json:"mimeType"` // "audio/wav"
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "connected", "pong", "muted", "unmuted", "settings_saved"
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewTextMessage creates a chat reply message
func NewTextMessage(sessionID, chatID, text string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeText,
		SessionID: sessionID,
		Payload: TextResponsePayload{
			ChatID: chatID,
			Text:   text,
		},
	}
}

// NewTitleMessage creates a chat title message
func NewTitleMessage(sessionID, chatID, title string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTitle,
		SessionID: sessionID,
		Payload: TitlePayload{
			ChatID: chatID,
			Title:  title,
		},
	}
}

// NewImageMessage creates a generated-image message
func NewImageMessage(sessionID, chatID, dataURI string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeImage,
		SessionID: sessionID,
		Payload: ImagePayload{
			ChatID:  chatID,
			DataURI: dataURI,
		},
	}
}

// NewCallMessage creates a call state-change message
func NewCallMessage(sessionID, callID, state string, elapsed int, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeCall,
		SessionID: sessionID,
		Payload: CallPayload{
			CallID:  callID,
			State:   state,
			Elapsed: elapsed,
			Message: message,
		},
	}
}

// NewCallAudioMessage creates a call audio playback message
func NewCallAudioMessage(sessionID, callID, dataURI, mimeType string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeCallAudio,
		SessionID: sessionID,
		Payload: CallAudioPayload{
			CallID:   callID,
			DataURI:  dataURI,
			MimeType: mimeType,
		},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}
