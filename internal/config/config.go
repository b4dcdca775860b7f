package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting the service recognizes.
type Config struct {
	Port             string
	CatalogDBPath    string
	CatalogImagesDir string
	GeminiAPIKey     string
	GeminiModel      string
}

// Load reads the .env file (if present) and assembles the configuration.
// Missing optional values fall back to the same defaults the deployment
// scripts assume.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		CatalogDBPath:    getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogImagesDir: getEnv("CATALOG_IMAGES_DIR", "./archive/images"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash-image"),
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
