package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locator-api/internal/models"
	"locator-api/internal/provider"
)

// ProviderRegistry is the view of the provider registry the map endpoints
// need.
type ProviderRegistry interface {
	Mapper() provider.GeoProvider
	All() []provider.GeoProvider
	Mappers() []provider.GeoProvider
	Geocoders() []provider.GeoProvider
}

// MapHandler serves map descriptions and the provider catalog.
type MapHandler struct {
	registry ProviderRegistry
}

// NewMapHandler creates a new map handler.
func NewMapHandler(registry ProviderRegistry) *MapHandler {
	return &MapHandler{registry: registry}
}

func parseCoordinate(c *gin.Context) (models.Coordinate, bool) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: lat, Lng: lng}, true
}

// Map handles GET /map requests, returning the structured description of an
// interactive map plus the client assets it needs, or an empty body when
// mapping is disabled or the coordinate is unset.
func (h *MapHandler) Map(c *gin.Context) {
	coord, ok := parseCoordinate(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'lat' or 'lng' query parameter"})
		return
	}

	// One collector per request: each provider's assets register once no
	// matter how many maps the page asks for.
	assets := provider.NewAssets()
	rendered := h.registry.Mapper().RenderMap(assets, coord, c.Query("label"))
	if rendered == nil {
		c.JSON(http.StatusOK, gin.H{"map": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"map": rendered,
		"assets": gin.H{
			"scripts":     assets.Scripts,
			"stylesheets": assets.Stylesheets,
		},
	})
}

// StaticMap handles GET /map/static requests, returning a no-script embed.
func (h *MapHandler) StaticMap(c *gin.Context) {
	coord, ok := parseCoordinate(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'lat' or 'lng' query parameter"})
		return
	}

	embed := h.registry.Mapper().StaticMap(coord, c.Query("label"))
	if embed == nil {
		c.JSON(http.StatusOK, gin.H{"embed": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"embed": embed})
}

type providerInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	IsMapper    bool   `json:"is_mapper"`
	IsGeocoder  bool   `json:"is_geocoder"`
}

func describe(providers []provider.GeoProvider) []providerInfo {
	out := make([]providerInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, providerInfo{
			Name:        p.Name(),
			DisplayName: p.DisplayName(),
			IsMapper:    p.IsMapper(),
			IsGeocoder:  p.IsGeocoder(),
		})
	}
	return out
}

// Providers handles GET /providers requests, listing every known provider
// and its capabilities. The admin screens use it to populate the mapper and
// geocoder selection lists.
func (h *MapHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": describe(h.registry.All()),
		"mappers":   describe(h.registry.Mappers()),
		"geocoders": describe(h.registry.Geocoders()),
	})
}

// tileURL builds the upstream OSM tile URL.
func tileURL(z, x, y string) string {
	return fmt.Sprintf("https://a.tile.openstreetmap.org/%s/%s/%s.png", z, x, y)
}
