package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"locator-api/internal/cache"
	"locator-api/internal/config"
	"locator-api/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapTestHandler(cfg config.Config) *MapHandler {
	registry := provider.NewRegistry(cfg, provider.Deps{Store: cache.NewMemoryCache()})
	return NewMapHandler(registry)
}

func TestMapHandler_Map(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newMapTestHandler(config.Config{
		Mapper:  "openstreetmap",
		ShowMap: true,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/map?lat=44.9778&lng=-93.265&label=Home", nil)

	handler.Map(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Map *provider.RenderedMap `json:"map"`
		Assets struct {
			Scripts     []string `json:"scripts"`
			Stylesheets []string `json:"stylesheets"`
		} `json:"assets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Map)
	assert.Equal(t, "openstreetmap", body.Map.Provider)
	assert.Equal(t, "Home", body.Map.Label)
	assert.Len(t, body.Assets.Scripts, 1)
	assert.Len(t, body.Assets.Stylesheets, 1)
}

func TestMapHandler_Map_InvalidCoordinate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newMapTestHandler(config.Config{Mapper: "openstreetmap", ShowMap: true})

	tests := []struct {
		name  string
		query string
	}{
		{name: "missing both", query: ""},
		{name: "missing lng", query: "lat=44.9"},
		{name: "garbage lat", query: "lat=north&lng=-93.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/map?"+tt.query, nil)

			handler.Map(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMapHandler_Map_MappingDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newMapTestHandler(config.Config{Mapper: "openstreetmap", ShowMap: false})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/map?lat=44.9778&lng=-93.265", nil)

	handler.Map(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "null", string(body["map"]))
}

func TestMapHandler_StaticMap(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newMapTestHandler(config.Config{
		Mapper:  "google",
		ShowMap: true,
		Keys:    config.ProviderKeys{GoogleAPIKey: "apikey"},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/map/static?lat=44.9778&lng=-93.265", nil)

	handler.StaticMap(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Embed *provider.MapEmbed `json:"embed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Embed)
	assert.Equal(t, "iframe", body.Embed.Kind)
}

func TestMapHandler_StaticMap_Unsupported(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// OSM has no static map embed.
	handler := newMapTestHandler(config.Config{Mapper: "openstreetmap", ShowMap: true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/map/static?lat=44.9778&lng=-93.265", nil)

	handler.StaticMap(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "null", string(body["embed"]))
}

func TestMapHandler_Providers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newMapTestHandler(config.Config{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/providers", nil)

	handler.Providers(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Providers []providerInfo `json:"providers"`
		Mappers   []providerInfo `json:"mappers"`
		Geocoders []providerInfo `json:"geocoders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Len(t, body.Providers, 6)
	assert.Len(t, body.Mappers, 5)
	assert.Len(t, body.Geocoders, 5)

	names := make([]string, 0, len(body.Providers))
	for _, p := range body.Providers {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"google", "here", "mapbox", "mapquest", "openstreetmap", "uscensus"}, names)
}

func TestTileURL(t *testing.T) {
	assert.Equal(t, "https://a.tile.openstreetmap.org/3/4/5.png", tileURL("3", "4", "5"))
}
