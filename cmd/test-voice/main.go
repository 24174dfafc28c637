package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message shapes matching the server
type ClientMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SpeakPayload struct {
	Text string `json:"text"`
}

type ControlPayload struct {
	Action string `json:"action"`
}

type ServerMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type CallPayload struct {
	CallID  string `json:"callId"`
	State   string `json:"state"`
	Elapsed int    `json:"elapsed"`
	Message string `json:"message,omitempty"`
}

type CallAudioPayload struct {
	CallID   string `json:"callId"`
	DataURI  string `json:"dataUri"`
	MimeType string `json:"mimeType"`
}

// AudioPlayer pipes a WAV clip through sox
type AudioPlayer struct {
	mu sync.Mutex
}

func (p *AudioPlayer) Play(wav []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cmd := exec.Command("sox", "-t", "wav", "-", "-d")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Println("sox stdin error:", err)
		return
	}
	if err := cmd.Start(); err != nil {
		log.Println("sox start error:", err)
		return
	}
	stdin.Write(wav)
	stdin.Close()
	cmd.Wait()
}

func main() {
	// Flags
	serverURL := flag.String("server", "ws://localhost:8080/ws?uid=test-user", "WebSocket server URL")
	text := flag.String("text", "Hello! This is a voice call test.", "Text to read aloud")
	hangupAfter := flag.Duration("hangup", 0, "Hang up after this long (0 = let the call finish)")
	flag.Parse()

	log.Printf("🔌 Connecting to %s...", *serverURL)

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("✅ Connected!")

	player := &AudioPlayer{}

	// Handle interrupt
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	callOver := make(chan struct{}, 1)

	// Read responses from server
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}

			var msg ServerMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Println("Parse error:", err)
				continue
			}

			switch msg.Type {
			case "call":
				var payload CallPayload
				json.Unmarshal(msg.Payload, &payload)
				log.Printf("📞 Call %s: %s (%ds) %s", payload.CallID[:8], payload.State, payload.Elapsed, payload.Message)
				if payload.State == "ended" || payload.State == "error" {
					select {
					case callOver <- struct{}{}:
					default:
					}
				}

			case "call_audio":
				var payload CallAudioPayload
				json.Unmarshal(msg.Payload, &payload)
				_, b64, ok := strings.Cut(payload.DataURI, ",")
				if !ok {
					log.Println("❌ Malformed audio data URI")
					continue
				}
				wav, err := base64.StdEncoding.DecodeString(b64)
				if err != nil {
					log.Println("❌ Audio decode error:", err)
					continue
				}
				log.Printf("🔊 Playing call audio: %d bytes (%s)", len(wav), payload.MimeType)
				go player.Play(wav)

			case "status":
				log.Printf("📊 Status: %s", string(msg.Payload))

			case "error":
				log.Printf("❌ Error: %s", string(msg.Payload))
			}
		}
	}()

	// Wait for connected status
	time.Sleep(500 * time.Millisecond)

	log.Println("📤 Starting call...")
	if err := conn.WriteJSON(ClientMessage{Type: "speak", Payload: SpeakPayload{Text: *text}}); err != nil {
		log.Fatalf("Send error: %v", err)
	}

	if *hangupAfter > 0 {
		go func() {
			time.Sleep(*hangupAfter)
			log.Println("📤 Hanging up...")
			conn.WriteJSON(ClientMessage{Type: "control", Payload: ControlPayload{Action: "hangup"}})
		}()
	}

	// Wait for the call to end or an interrupt
	select {
	case <-callOver:
		log.Println("✅ Call finished")
	case <-done:
		log.Println("Connection closed")
	case <-interrupt:
		log.Println("\n👋 Interrupted, closing...")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-time.After(2 * time.Minute):
		log.Println("⏰ Timeout waiting for call to end")
	}
}
