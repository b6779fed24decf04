package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"haven/pkg/api"
	"haven/pkg/chat"
	"haven/pkg/config"
	"haven/pkg/consent"
	"haven/pkg/openai"
)

func main() {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	openaiKeys := os.Getenv("OPENAI_API_KEY")
	if openaiKeys == "" {
		log.Fatal("Missing required environment variable: OPENAI_API_KEY")
	}

	// Consent store: Redis when configured, otherwise in-process memory.
	ttl := time.Duration(cfg.Consent.TTLHours * float64(time.Hour))
	var store consent.Store
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisStore, err := consent.NewRedisStore(redisURL, "haven", ttl)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Println("Consent store: Redis")
	} else {
		store = consent.NewMemoryStore(ttl)
		log.Println("REDIS_URL not set, consent store is in-memory (single process only)")
	}

	llm := openai.NewClient(openaiKeys, cfg.ModelSettings.Temperature, cfg.ModelSettings.TopP, nil)

	plans := chat.NewPlanTable(cfg.Plans.RomanticAllowed, cfg.Plans.IntimateAllowed)
	svc := chat.NewService(llm, store, plans, chat.Options{
		RequireConsent:    cfg.Consent.RequireExplicitConsent,
		UpgradeURL:        cfg.Plans.UpgradeURL,
		GenerationTimeout: time.Duration(cfg.Server.GenerationTimeoutSeconds * float64(time.Second)),
	})

	handler := api.NewHandler(svc, store, cfg.Server.Debug)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Routes(cfg.Server.CORSAllowOrigins),
	}

	go func() {
		log.Printf("Haven gatekeeper listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
