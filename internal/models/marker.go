package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Coordinate is a latitude/longitude pair. The zero value (0,0) means
// "unset": geocoders return it on failure and searches reject it as an
// origin, so it is never treated as a real location.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsSet reports whether both components have been resolved. A coordinate
// with either component at zero is considered unset.
func (c Coordinate) IsSet() bool {
	return c.Lat != 0 && c.Lng != 0
}

// Address holds the optional components of a postal address in display order.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

// Join concatenates the non-empty components with the given delimiter.
// Empty components are skipped so the result never carries a stray delimiter.
func (a Address) Join(delim string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.Region, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, delim)
}

// GeocodeResult is the outcome of a provider geocode call. Raw carries the
// parsed provider payload so cached entries can be re-parsed without another
// network round trip.
type GeocodeResult struct {
	Coordinate Coordinate      `json:"coordinate"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// Marker is a stored point of interest. The store owns every field here;
// Distance and IsUserOrigin are derived per search and never persisted.
type Marker struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Address     Address    `json:"address"`
	Coordinate  Coordinate `json:"coordinate"`
	Keywords    string     `json:"keywords"`
	URL         string     `json:"url"`
	IsOrigin    bool       `json:"is_origin"`
	Enabled     bool       `json:"enabled"`
	OwnerID     int        `json:"owner_id"`
	GroupID     int        `json:"group_id"`
	PermMembers bool       `json:"perm_members"`
	PermAnon    bool       `json:"perm_anon"`
	Views       int        `json:"views"`
	AddedAt     time.Time  `json:"added_at"`
}

// NearbyResult is a marker plus its computed distance from the search origin.
type NearbyResult struct {
	Marker
	Distance     float64 `json:"distance"`
	IsUserOrigin bool    `json:"is_user_origin"`
}

// UserLocation is a geocoded address remembered for a user. Type 0 records
// come from the user's profile; type 1 records are search origins entered as
// free text and may be purged later.
type UserLocation struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	Type       int        `json:"type"`
	Location   string     `json:"location"`
	Coordinate Coordinate `json:"coordinate"`
}
