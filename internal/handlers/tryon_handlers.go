package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/stylistio/tryon-backend/internal/catalog"
	"github.com/stylistio/tryon-backend/internal/tryon"
)

// VirtualTryOn handles POST /virtual-try-on.
//
// The multipart body carries the person photo, the garment type, and one of
// two garment sources: an uploaded image or a catalog image URL. When both
// are present the upload wins.
func (h *Handlers) VirtualTryOn(c *gin.Context) {
	// 1. Required person photo and garment type
	userFile, err := c.FormFile("user_image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_image is required"})
		return
	}

	garmentType := strings.TrimSpace(c.PostForm("garment_type"))
	if garmentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "garment_type is required"})
		return
	}

	personBytes, err := readFormFile(userFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read user image"})
		return
	}

	// 2. Garment source: uploaded image takes priority over a catalog URL
	var garment tryon.Garment
	if garmentFile, err := c.FormFile("garment_image"); err == nil {
		garmentBytes, err := readFormFile(garmentFile)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read garment image"})
			return
		}
		garment = tryon.UploadedGarment(garmentBytes)
		log.Printf("Using custom uploaded garment for %s", garmentType)
	} else if garmentURL := c.PostForm("garment_image_url"); garmentURL != "" {
		relPath := strings.TrimPrefix(garmentURL, catalog.ImageMountPath+"/")
		relPath = strings.TrimPrefix(relPath, "/")
		garment = tryon.CatalogGarment(relPath)
		log.Printf("Using catalog garment: %s for %s", relPath, garmentType)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Must provide either garment_image or garment_image_url"})
		return
	}

	// 3. Compose and map failures to status codes
	result, err := h.TryOn.Compose(c.Request.Context(), personBytes, garment, garmentType)
	if err != nil {
		var genErr *tryon.GenerationError
		switch {
		case errors.Is(err, tryon.ErrNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Gemini not configured"})
		case errors.Is(err, tryon.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, tryon.ErrGarmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Garment image not found"})
		case errors.As(err, &genErr):
			log.Printf("Virtual try-on failed: %s", genErr.Reason)
			c.JSON(http.StatusBadGateway, gin.H{"error": genErr.Reason})
		case errors.Is(err, tryon.ErrUpstream):
			log.Printf("Virtual try-on failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			log.Printf("Virtual try-on failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	filename := fmt.Sprintf("tryon-%s.png", slug.Make(garmentType))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "image/png", result)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
