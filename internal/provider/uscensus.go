package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"locator-api/internal/models"
)

const censusGeocodeURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress?benchmark=9&format=json&address=%s"

// USCensus provides geocoding for US addresses only. It has no mapping
// capability and needs no API key. The first address match is taken.
type USCensus struct {
	base
}

// NewUSCensus creates the US Census geocoder.
func NewUSCensus(deps Deps) *USCensus {
	return &USCensus{base: deps.base("uscensus", "US Census")}
}

func (u *USCensus) IsGeocoder() bool { return true }

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
		} `json:"addressMatches"`
	} `json:"result"`
}

// Geocode resolves an address through the US Census geocoder.
func (u *USCensus) Geocode(ctx context.Context, address string) (models.Coordinate, Outcome) {
	return u.geocode(ctx, address,
		func(address string) (string, Outcome) {
			return fmt.Sprintf(censusGeocodeURL, url.QueryEscape(address)), Success
		},
		parseCensus,
	)
}

func parseCensus(payload []byte) (models.Coordinate, Outcome) {
	var data censusResponse
	if err := json.Unmarshal(payload, &data); err != nil {
		return models.Coordinate{}, TransientError
	}
	if len(data.Result.AddressMatches) == 0 {
		return models.Coordinate{}, NotFound
	}
	// x is longitude, y is latitude.
	xy := data.Result.AddressMatches[0].Coordinates
	coord := models.Coordinate{Lat: xy.Y, Lng: xy.X}
	if !coord.IsSet() {
		return models.Coordinate{}, NotFound
	}
	return coord, Success
}
