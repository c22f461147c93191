package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locator-api/internal/geo"
	"locator-api/internal/models"
	"locator-api/internal/service"
)

// NearbySearcher ranks markers by distance from an origin.
type NearbySearcher interface {
	FindNearby(ctx context.Context, p service.NearbyParams) ([]models.NearbyResult, error)
}

// NearbyHandler handles radius search requests.
type NearbyHandler struct {
	resolver      OriginResolver
	searcher      NearbySearcher
	defaultRadius float64
	defaultUnit   geo.Unit
}

// NewNearbyHandler creates a new nearby search handler.
func NewNearbyHandler(resolver OriginResolver, searcher NearbySearcher, defaultRadius int, defaultUnit string) *NearbyHandler {
	return &NearbyHandler{
		resolver:      resolver,
		searcher:      searcher,
		defaultRadius: float64(defaultRadius),
		defaultUnit:   geo.Unit(defaultUnit),
	}
}

// Nearby handles GET /nearby requests. The origin is either a stored marker
// (?origin=id) or a free-text address (?address=...); the latter counts
// against the caller's lookup speed limit.
func (h *NearbyHandler) Nearby(c *gin.Context) {
	markerID := c.Query("origin")
	address := c.Query("address")
	if markerID == "" && address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'origin' or 'address' query parameter"})
		return
	}

	radius := h.defaultRadius
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'radius' query parameter"})
			return
		}
		radius = parsed
	}

	unit := h.defaultUnit
	if raw := c.Query("units"); raw != "" {
		if raw != string(geo.UnitKM) && raw != string(geo.UnitMiles) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'units' query parameter"})
			return
		}
		unit = geo.Unit(raw)
	}

	userID := requestUserID(c)
	ctx := c.Request.Context()

	origin, _, err := h.resolver.ResolveOrigin(ctx, service.OriginParams{
		UserID:   userID,
		MarkerID: markerID,
		Address:  address,
		EndUser:  address != "",
	})
	if err != nil {
		if errors.Is(err, service.ErrSpeedLimit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "lookup limit exceeded, try again shortly"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// An unresolved origin is not an error: the search contract returns an
	// empty result set for unset coordinates.
	results, err := h.searcher.FindNearby(ctx, service.NearbyParams{
		Origin:    origin,
		Radius:    radius,
		Unit:      unit,
		Keywords:  c.Query("keywords"),
		ExcludeID: markerID,
		UserID:    userID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"origin":  origin,
		"radius":  radius,
		"units":   unit,
		"results": results,
	})
}
