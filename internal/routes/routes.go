package routes

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stylistio/tryon-backend/internal/catalog"
	"github.com/stylistio/tryon-backend/internal/handlers"
	"github.com/stylistio/tryon-backend/internal/middleware"
)

// CORSMiddleware allows browser frontends on any origin to call the API.
// The service carries no credentials or sessions, so a wildcard is safe
// here.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		// Preflight OPTIONS requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter wires all endpoints. imagesDir backs the static catalog-image
// mount; when the directory is missing the mount is skipped and the rest of
// the API keeps working (image URLs will simply 404).
func SetupRouter(h *handlers.Handlers, imagesDir string) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())
	router.Use(middleware.RequestID())

	// --- Health (Public) ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Static Catalog Images ---
	if info, err := os.Stat(imagesDir); err == nil && info.IsDir() {
		router.Static(catalog.ImageMountPath, imagesDir)
		log.Printf("Serving catalog images from %s", imagesDir)
	} else {
		log.Println("WARNING: Catalog images directory not found")
	}

	// --- Catalog ---
	router.GET("/products", h.GetProducts)

	// --- Virtual Try-On ---
	router.POST("/virtual-try-on", h.VirtualTryOn)

	return router
}
