package main

import (
	"context"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/stylistio/tryon-backend/internal/catalog"
	"github.com/stylistio/tryon-backend/internal/config"
	"github.com/stylistio/tryon-backend/internal/database"
	"github.com/stylistio/tryon-backend/internal/handlers"
	"github.com/stylistio/tryon-backend/internal/routes"
	"github.com/stylistio/tryon-backend/internal/tryon"
)

func main() {
	cfg := config.Load()

	// 1. --- Catalog Database (Read-Only) ---
	db, err := database.Open(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog database: %v", err)
	}
	defer db.Close()

	store := catalog.NewStore(db, cfg.CatalogDBPath)

	// 2. --- Gemini Client ---
	// A missing API key degrades the try-on endpoint only; catalog browsing
	// must keep working, so this is a warning, never fatal.
	var geminiClient *genai.Client
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		defer geminiClient.Close()
		log.Println("Gemini client initialized")
	} else {
		log.Println("WARNING: GEMINI_API_KEY not set. Virtual try-on will not work.")
	}

	tryonService := tryon.NewService(geminiClient, cfg.GeminiModel, cfg.CatalogImagesDir)

	// --- Application Setup ---
	app := &handlers.Handlers{
		Store: store,
		TryOn: tryonService,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, cfg.CatalogImagesDir)

	// --- Start Server ---
	log.Printf("Starting virtual try-on API server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
