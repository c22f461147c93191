package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"locator-api/internal/models"
)

const (
	googleMapJSURL   = "https://maps.google.com/maps/api/js?key=%s&callback=initializeGMap"
	googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json?address=%s&key=%s"
	googleEmbedURL   = "https://maps.google.com/maps?q=%f,%f&t=&z=13&ie=UTF8&iwloc=&output=embed"
)

// Google supports both mapping and geocoding. Candidate tie-break: Google
// orders results by its own relevance, so the first candidate is taken.
type Google struct {
	base
	geocodeKey string
	jsKey      string
	showMap    bool
}

// NewGoogle creates the Google provider. The javascript key falls back to the
// geocoding key when not set separately.
func NewGoogle(geocodeKey, jsKey string, showMap bool, deps Deps) *Google {
	if jsKey == "" {
		jsKey = geocodeKey
	}
	return &Google{
		base:       deps.base("google", "Google"),
		geocodeKey: geocodeKey,
		jsKey:      jsKey,
		showMap:    showMap,
	}
}

func (g *Google) IsMapper() bool   { return true }
func (g *Google) IsGeocoder() bool { return true }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address through the Google Geocoding API.
func (g *Google) Geocode(ctx context.Context, address string) (models.Coordinate, Outcome) {
	return g.geocode(ctx, address,
		func(address string) (string, Outcome) {
			if g.geocodeKey == "" {
				return "", ConfigError
			}
			return fmt.Sprintf(googleGeocodeURL, url.QueryEscape(address), g.geocodeKey), Success
		},
		parseGoogle,
	)
}

func parseGoogle(payload []byte) (models.Coordinate, Outcome) {
	var data googleResponse
	if err := json.Unmarshal(payload, &data); err != nil {
		return models.Coordinate{}, TransientError
	}
	switch data.Status {
	case "OK":
	case "ZERO_RESULTS":
		return models.Coordinate{}, NotFound
	case "REQUEST_DENIED", "OVER_DAILY_LIMIT", "OVER_QUERY_LIMIT":
		return models.Coordinate{}, ConfigError
	default:
		return models.Coordinate{}, TransientError
	}
	if len(data.Results) == 0 {
		return models.Coordinate{}, NotFound
	}
	loc := data.Results[0].Geometry.Location
	coord := models.Coordinate{Lat: loc.Lat, Lng: loc.Lng}
	if !coord.IsSet() {
		return models.Coordinate{}, NotFound
	}
	return coord, Success
}

// RenderMap describes an interactive Google map and registers the maps
// javascript once per rendering context.
func (g *Google) RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap {
	if !g.showMap || g.jsKey == "" || !coord.IsSet() {
		return nil
	}
	assets.AddScript(fmt.Sprintf(googleMapJSURL, g.jsKey))
	return &RenderedMap{
		Provider:   g.name,
		Coordinate: coord,
		Label:      label,
		APIKey:     g.jsKey,
	}
}

// StaticMap returns a no-script iframe embed. Iframe embeds are not
// proxied through the image cache.
func (g *Google) StaticMap(coord models.Coordinate, label string) *MapEmbed {
	if !coord.IsSet() {
		return nil
	}
	return &MapEmbed{
		Kind: "iframe",
		URL:  fmt.Sprintf(googleEmbedURL, coord.Lat, coord.Lng),
	}
}
