package messages

import "encoding/json"

// ClientMessage represents a message from the frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "chat", "speak", "control", "settings"
	Payload json.RawMessage `json:"payload"`
}

// ChatPayload carries one user turn: the query plus any uploaded files and
// images. History is loaded server-side from the chat id.
type ChatPayload struct {
	ChatID string        `json:"chatId"`
	Module string        `json:"module"`
	Query  string        `json:"query"`
	Files  []FilePayload `json:"files,omitempty"`
	Images []FilePayload `json:"images,omitempty"`
}

// FilePayload is an uploaded attachment: raw text for files, a base64
// data URI for images.
type FilePayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// SpeakPayload asks the server to read a text aloud in a voice call.
type SpeakPayload struct {
	Text string `json:"text"`
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "ping", "hangup", "mute", "unmute"
}

// SettingsPayload updates the user's stored preferences.
type SettingsPayload struct {
	Voice       string `json:"voice,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}
