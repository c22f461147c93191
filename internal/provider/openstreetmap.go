package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"locator-api/internal/models"
)

const (
	nominatimSearchURL = "https://nominatim.openstreetmap.org/search?format=json&q=%s"
	osmTileURL         = "https://a.tile.openstreetmap.org/{z}/{x}/{y}.png"
	leafletCSSURL      = "https://unpkg.com/leaflet@1.3.4/dist/leaflet.css"
	leafletJSURL       = "https://unpkg.com/leaflet@1.3.4/dist/leaflet.js"
)

// OpenStreetMap supports mapping through Leaflet tiles and geocoding through
// Nominatim. No API key is needed for either.
//
// Candidate tie-break: Nominatim returns an "importance" score per candidate;
// the highest score wins and ties keep the first-seen candidate.
type OpenStreetMap struct {
	base
	showMap    bool
	tileServer string
}

// NewOpenStreetMap creates the OSM provider. tileServer overrides the public
// tile endpoint, typically pointing at the local caching tile proxy.
func NewOpenStreetMap(showMap bool, tileServer string, deps Deps) *OpenStreetMap {
	if tileServer == "" {
		tileServer = osmTileURL
	}
	return &OpenStreetMap{
		base:       deps.base("openstreetmap", "OpenStreetMap"),
		showMap:    showMap,
		tileServer: tileServer,
	}
}

func (o *OpenStreetMap) IsMapper() bool   { return true }
func (o *OpenStreetMap) IsGeocoder() bool { return true }

type nominatimPlace struct {
	PlaceID    json.Number `json:"place_id"`
	Lat        string      `json:"lat"`
	Lon        string      `json:"lon"`
	Importance float64     `json:"importance"`
}

// Geocode resolves an address through Nominatim.
func (o *OpenStreetMap) Geocode(ctx context.Context, address string) (models.Coordinate, Outcome) {
	return o.geocode(ctx, address,
		func(address string) (string, Outcome) {
			return fmt.Sprintf(nominatimSearchURL, url.QueryEscape(address)), Success
		},
		parseNominatim,
	)
}

func parseNominatim(payload []byte) (models.Coordinate, Outcome) {
	var places []nominatimPlace
	if err := json.Unmarshal(payload, &places); err != nil {
		return models.Coordinate{}, TransientError
	}
	if len(places) == 0 {
		return models.Coordinate{}, NotFound
	}

	best := 0
	bestScore := float64(-1)
	for i, p := range places {
		if p.Importance > bestScore {
			bestScore = p.Importance
			best = i
		}
	}

	lat, err1 := strconv.ParseFloat(places[best].Lat, 64)
	lng, err2 := strconv.ParseFloat(places[best].Lon, 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, TransientError
	}
	coord := models.Coordinate{Lat: lat, Lng: lng}
	if !coord.IsSet() {
		return models.Coordinate{}, NotFound
	}
	return coord, Success
}

// RenderMap describes a Leaflet map over the configured tile server and
// registers the Leaflet assets once per rendering context.
func (o *OpenStreetMap) RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap {
	if !o.showMap || !coord.IsSet() {
		return nil
	}
	assets.AddStylesheet(leafletCSSURL)
	assets.AddScript(leafletJSURL)
	return &RenderedMap{
		Provider:   o.name,
		Coordinate: coord,
		Label:      label,
		TileServer: o.tileServer,
	}
}
