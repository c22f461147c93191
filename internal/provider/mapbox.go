package provider

import (
	"fmt"

	"locator-api/internal/models"
)

const (
	mapboxStaticURL = "https://api.mapbox.com/styles/v1/mapbox/streets-v11/static/pin-s+ec1313(%f,%f)/%f,%f,15,0/400x400?access_token=%s"
	mapboxCSSURL    = "https://api.mapbox.com/mapbox.js/v3.3.1/mapbox.css"
	mapboxJSURL     = "https://api.mapbox.com/mapbox.js/v3.3.1/mapbox.js"
)

// Mapbox provides mapping only; it is not wired as a geocoder.
type Mapbox struct {
	base
	token   string
	showMap bool
}

// NewMapbox creates the Mapbox provider.
func NewMapbox(token string, showMap bool, deps Deps) *Mapbox {
	return &Mapbox{
		base:    deps.base("mapbox", "Mapbox"),
		token:   token,
		showMap: showMap,
	}
}

func (m *Mapbox) IsMapper() bool { return true }

// RenderMap describes an interactive Mapbox map and registers its assets
// once per rendering context.
func (m *Mapbox) RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap {
	if !m.showMap || m.token == "" || !coord.IsSet() {
		return nil
	}
	assets.AddStylesheet(mapboxCSSURL)
	assets.AddScript(mapboxJSURL)
	return &RenderedMap{
		Provider:   m.name,
		Coordinate: coord,
		Label:      label,
		APIKey:     m.token,
	}
}

// StaticMap returns a static image embed served through the disk cache, so
// repeated requests for the same map never re-fetch it.
func (m *Mapbox) StaticMap(coord models.Coordinate, label string) *MapEmbed {
	if m.token == "" || !coord.IsSet() {
		return nil
	}
	url := fmt.Sprintf(mapboxStaticURL, coord.Lng, coord.Lat, coord.Lng, coord.Lat, m.token)
	return m.cachedStaticMap(url)
}
