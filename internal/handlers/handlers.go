package handlers

import (
	"github.com/stylistio/tryon-backend/internal/catalog"
	"github.com/stylistio/tryon-backend/internal/tryon"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store *catalog.Store // Read-only catalog queries
	TryOn *tryon.Service // Gemini-backed try-on composer
}
