package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"locator-api/internal/models"
)

const hereGeocodeURL = "https://geocoder.ls.hereapi.com/search/6.2/geocode.json?languages=en-US&maxresults=4&searchtext=%s&apiKey=%s"

var hereAssets = struct {
	stylesheet string
	scripts    []string
}{
	stylesheet: "https://js.api.here.com/v3/3.1/mapsjs-ui.css",
	scripts: []string{
		"https://js.api.here.com/v3/3.1/mapsjs-core.js",
		"https://js.api.here.com/v3/3.1/mapsjs-service.js",
		"https://js.api.here.com/v3/3.1/mapsjs-ui.js",
		"https://js.api.here.com/v3/3.1/mapsjs-mapevents.js",
	},
}

// Here supports both mapping and geocoding. Candidate tie-break: the service
// ranks its own results, so the first one in the first view is taken.
type Here struct {
	base
	restKey string
	jsKey   string
	showMap bool
}

// NewHere creates the Here.com provider.
func NewHere(restKey, jsKey string, showMap bool, deps Deps) *Here {
	return &Here{
		base:    deps.base("here", "Here.com"),
		restKey: restKey,
		jsKey:   jsKey,
		showMap: showMap,
	}
}

func (h *Here) IsMapper() bool   { return true }
func (h *Here) IsGeocoder() bool { return true }

type hereResponse struct {
	Response struct {
		View []struct {
			Result []struct {
				Location struct {
					DisplayPosition struct {
						Latitude  float64 `json:"Latitude"`
						Longitude float64 `json:"Longitude"`
					} `json:"DisplayPosition"`
				} `json:"Location"`
			} `json:"Result"`
		} `json:"View"`
	} `json:"Response"`
}

// Geocode resolves an address through the Here geocoder API.
func (h *Here) Geocode(ctx context.Context, address string) (models.Coordinate, Outcome) {
	return h.geocode(ctx, address,
		func(address string) (string, Outcome) {
			if h.restKey == "" {
				return "", ConfigError
			}
			return fmt.Sprintf(hereGeocodeURL, url.QueryEscape(address), h.restKey), Success
		},
		parseHere,
	)
}

func parseHere(payload []byte) (models.Coordinate, Outcome) {
	var data hereResponse
	if err := json.Unmarshal(payload, &data); err != nil {
		return models.Coordinate{}, TransientError
	}
	if len(data.Response.View) == 0 || len(data.Response.View[0].Result) == 0 {
		return models.Coordinate{}, NotFound
	}
	pos := data.Response.View[0].Result[0].Location.DisplayPosition
	coord := models.Coordinate{Lat: pos.Latitude, Lng: pos.Longitude}
	if !coord.IsSet() {
		return models.Coordinate{}, NotFound
	}
	return coord, Success
}

// RenderMap describes an interactive Here map and registers the maps
// javascript and stylesheet once per rendering context.
func (h *Here) RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap {
	if !h.showMap || h.jsKey == "" || !coord.IsSet() {
		return nil
	}
	assets.AddStylesheet(hereAssets.stylesheet)
	for _, s := range hereAssets.scripts {
		assets.AddScript(s)
	}
	return &RenderedMap{
		Provider:   h.name,
		Coordinate: coord,
		Label:      label,
		APIKey:     h.jsKey,
	}
}
