package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"locator-api/internal/models"
)

const (
	mapquestGeocodeURL = "http://www.mapquestapi.com/geocoding/v1/address?inFormat=kvp&outFormat=json&key=%s&location=%s"
	mapquestCSSURL     = "https://api.mqcdn.com/sdk/mapquest-js/v1.3.2/mapquest.css"
	mapquestJSURL      = "https://api.mqcdn.com/sdk/mapquest-js/v1.3.2/mapquest.js"
)

// Mapquest supports both mapping and geocoding. Geocoding requires an
// extended license key.
//
// Candidate tie-break: each candidate's five-character geocodeQualityCode is
// re-ordered to put the postal-code, administrative-area and address
// confidence characters first, and the candidate whose re-ordered code sorts
// lowest wins. Ties keep the first-seen candidate.
type Mapquest struct {
	base
	clientKey string
	showMap   bool
}

// NewMapquest creates the MapQuest provider.
func NewMapquest(clientKey string, showMap bool, deps Deps) *Mapquest {
	return &Mapquest{
		base:      deps.base("mapquest", "MapQuest"),
		clientKey: clientKey,
		showMap:   showMap,
	}
}

func (m *Mapquest) IsMapper() bool   { return true }
func (m *Mapquest) IsGeocoder() bool { return true }

type mapquestResponse struct {
	Info struct {
		StatusCode int `json:"statuscode"`
	} `json:"info"`
	Results []struct {
		Locations []struct {
			GeocodeQualityCode string `json:"geocodeQualityCode"`
			LatLng             struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

// Geocode resolves an address through the MapQuest geocoding API.
func (m *Mapquest) Geocode(ctx context.Context, address string) (models.Coordinate, Outcome) {
	return m.geocode(ctx, address,
		func(address string) (string, Outcome) {
			if m.clientKey == "" {
				return "", ConfigError
			}
			return fmt.Sprintf(mapquestGeocodeURL, m.clientKey, url.QueryEscape(address)), Success
		},
		parseMapquest,
	)
}

func parseMapquest(payload []byte) (models.Coordinate, Outcome) {
	var data mapquestResponse
	if err := json.Unmarshal(payload, &data); err != nil {
		return models.Coordinate{}, TransientError
	}
	if data.Info.StatusCode != 0 {
		return models.Coordinate{}, TransientError
	}
	if len(data.Results) == 0 || len(data.Results[0].Locations) == 0 {
		return models.Coordinate{}, NotFound
	}

	// Pick the most confident candidate by its re-ordered quality code.
	best := -1
	bestCode := "ZZZ"
	for i, loc := range data.Results[0].Locations {
		code := reorderQualityCode(loc.GeocodeQualityCode)
		if code < bestCode {
			bestCode = code
			best = i
		}
	}
	if best < 0 {
		return models.Coordinate{}, NotFound
	}
	ll := data.Results[0].Locations[best].LatLng
	coord := models.Coordinate{Lat: ll.Lat, Lng: ll.Lng}
	if !coord.IsSet() {
		return models.Coordinate{}, NotFound
	}
	return coord, Success
}

// reorderQualityCode rearranges a geocodeQualityCode such as "L1AAA" so the
// postal, admin-area and address confidence characters compare first.
// Malformed codes compare worst.
func reorderQualityCode(code string) string {
	if len(code) < 5 {
		return "ZZZ"
	}
	return string([]byte{code[4], code[3], code[2]})
}

// RenderMap describes an interactive MapQuest map and registers the SDK
// assets once per rendering context.
func (m *Mapquest) RenderMap(assets *Assets, coord models.Coordinate, label string) *RenderedMap {
	if !m.showMap || m.clientKey == "" || !coord.IsSet() {
		return nil
	}
	assets.AddStylesheet(mapquestCSSURL)
	assets.AddScript(mapquestJSURL)
	return &RenderedMap{
		Provider:   m.name,
		Coordinate: coord,
		Label:      label,
		APIKey:     m.clientKey,
	}
}
