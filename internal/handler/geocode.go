package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locator-api/internal/models"
	"locator-api/internal/provider"
	"locator-api/internal/service"
)

// OriginResolver resolves a marker ID or free-text address to a coordinate.
type OriginResolver interface {
	ResolveOrigin(ctx context.Context, p service.OriginParams) (models.Coordinate, provider.Outcome, error)
}

// GeocodeHandler handles address lookup requests.
type GeocodeHandler struct {
	resolver OriginResolver
}

// NewGeocodeHandler creates a new geocode handler.
func NewGeocodeHandler(resolver OriginResolver) *GeocodeHandler {
	return &GeocodeHandler{resolver: resolver}
}

// requestUserID reads the authenticated user ID injected by the front
// controller, zero for anonymous visitors.
func requestUserID(c *gin.Context) int {
	id, err := strconv.Atoi(c.GetHeader("X-User-ID"))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// Geocode handles GET /geocode requests.
func (h *GeocodeHandler) Geocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'address'"})
		return
	}

	coord, outcome, err := h.resolver.ResolveOrigin(c.Request.Context(), service.OriginParams{
		UserID:  requestUserID(c),
		Address: address,
		EndUser: true,
	})
	if err != nil {
		if errors.Is(err, service.ErrSpeedLimit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "lookup limit exceeded, try again shortly"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	switch outcome {
	case provider.Success:
		c.JSON(http.StatusOK, gin.H{"coordinate": coord})
	case provider.NotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
	default:
		// ConfigError and TransientError both degrade to an empty
		// feature for the caller; the distinction is in the logs.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding unavailable"})
	}
}
