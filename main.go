package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moude-ai/moude-server/config"
	"github.com/moude-ai/moude-server/gemini"
	"github.com/moude-ai/moude-server/server"
	"github.com/moude-ai/moude-server/session"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create the generation client
	genClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, gemini.Options{
		TextModel:    cfg.TextModel,
		SpeechModel:  cfg.SpeechModel,
		ImageModel:   cfg.ImageModel,
		TitleModel:   cfg.TitleModel,
		DefaultVoice: cfg.DefaultVoice,
	})
	if err != nil {
		log.Fatalf("Failed to create generation client: %v", err)
	}

	// Create session manager. The same client serves text generation and
	// speech synthesis.
	sessionManager, err := session.NewManager(cfg, genClient, genClient)
	if err != nil {
		log.Fatalf("Failed to create session manager: %v", err)
	}

	// Start cleanup routine
	ctx, cancel := context.WithCancel(context.Background())
	go sessionManager.StartCleanupRoutine(ctx)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	srv := server.NewServerWebsocket(cfg, sessionManager)

	go func() {
		<-sigChan
		log.Println("\nReceived shutdown signal...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}
