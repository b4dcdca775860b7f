package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stylistio/tryon-backend/internal/catalog"
)

// ListProductsQuery binds the /products query parameters. Limit is capped
// at 50 per page; out-of-range values are rejected rather than clamped.
type ListProductsQuery struct {
	Gender string `form:"gender"`
	Limit  int    `form:"limit,default=12" binding:"min=1,max=50"`
	Offset int    `form:"offset,default=0" binding:"min=0"`
}

// GetProducts handles GET /products: one page of the catalog, optionally
// filtered by category.
func (h *Handlers) GetProducts(c *gin.Context) {
	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := h.Store.ListProducts(c.Request.Context(), q.Gender, q.Limit, q.Offset)
	if err != nil {
		if errors.Is(err, catalog.ErrStoreUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog database not found"})
			return
		}
		log.Printf("Error listing products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	log.Printf("Returning %d products for gender=%s", len(products), q.Gender)

	c.JSON(http.StatusOK, gin.H{
		"items":  products,
		"limit":  q.Limit,
		"offset": q.Offset,
		"count":  len(products),
	})
}
