package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

// Message shapes matching the server
type ClientMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ChatPayload struct {
	ChatID string `json:"chatId"`
	Module string `json:"module"`
	Query  string `json:"query"`
}

type ServerMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type TextResponsePayload struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

type TitlePayload struct {
	ChatID string `json:"chatId"`
	Title  string `json:"title"`
}

type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func main() {
	// Flags
	serverURL := flag.String("server", "ws://localhost:8080/ws?uid=test-user", "WebSocket server URL")
	module := flag.String("module", "Geniea 1 Flash", "Module to route the request through")
	query := flag.String("query", "Say hi back in one sentence.", "Query to send")
	flag.Parse()

	log.Printf("🔌 Connecting to %s...", *serverURL)

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("✅ Connected!")

	// Handle interrupt
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	reply := make(chan struct{}, 1)

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
			case "text":
				var payload TextResponsePayload
				json.Unmarshal(msg.Payload, &payload)
				fmt.Printf("📝 [%s] %s\n", payload.ChatID, payload.Text)
				select {
				case reply <- struct{}{}:
				default:
				}

			case "title":
				var payload TitlePayload
				json.Unmarshal(msg.Payload, &payload)
				log.Printf("🏷️ Chat titled: %s", payload.Title)

			case "status":
				var payload StatusPayload
				json.Unmarshal(msg.Payload, &payload)
				log.Printf("📊 Status: %s %s", payload.Status, payload.Message)

			case "error":
				log.Printf("❌ Error: %s", string(msg.Payload))
			}
		}
	}()

	// Wait for connected status
	time.Sleep(500 * time.Millisecond)

	log.Printf("📤 Sending query via %q...", *module)
	msg := ClientMessage{Type: "chat", Payload: ChatPayload{Module: *module, Query: *query}}
	if err := conn.WriteJSON(msg); err != nil {
		log.Fatalf("Send error: %v", err)
	}

	// Wait for the reply, a title may trail it
	select {
	case <-reply:
		time.Sleep(2 * time.Second)
	case <-done:
		log.Println("Connection closed")
	case <-interrupt:
		log.Println("\n👋 Interrupted, closing...")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-time.After(30 * time.Second):
		log.Println("⏰ Timeout waiting for response")
	}
}
