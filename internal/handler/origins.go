package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"locator-api/internal/models"
)

// OriginStore persists a user's saved search origins.
type OriginStore interface {
	ListOrigins(ctx context.Context, userID int) ([]models.Marker, error)
	AddUserOrigin(ctx context.Context, userID int, markerID string) error
	DeleteUserOrigin(ctx context.Context, userID int, markerID string) error
}

// OriginHandler lets logged-in users save markers as search origins.
type OriginHandler struct {
	store OriginStore
}

// NewOriginHandler creates a new origin handler.
func NewOriginHandler(store OriginStore) *OriginHandler {
	return &OriginHandler{store: store}
}

// List handles GET /origins requests, returning the system origin markers
// visible to the caller plus their own saved origins.
func (h *OriginHandler) List(c *gin.Context) {
	origins, err := h.store.ListOrigins(c.Request.Context(), requestUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if origins == nil {
		origins = []models.Marker{}
	}
	c.JSON(http.StatusOK, gin.H{"origins": origins})
}

// Add handles POST /origins/:id requests.
func (h *OriginHandler) Add(c *gin.Context) {
	userID := requestUserID(c)
	if userID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "login required"})
		return
	}
	if err := h.store.AddUserOrigin(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /origins/:id requests.
func (h *OriginHandler) Delete(c *gin.Context) {
	userID := requestUserID(c)
	if userID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "login required"})
		return
	}
	if err := h.store.DeleteUserOrigin(c.Request.Context(), userID, c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
