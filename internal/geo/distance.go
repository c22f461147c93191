// Package geo provides great-circle distance calculations.
package geo

import (
	"math"

	"locator-api/internal/models"
)

// Unit selects the earth radius used for distance results.
type Unit string

const (
	UnitKM    Unit = "km"
	UnitMiles Unit = "miles"
)

const (
	earthRadiusKM    = 6371
	earthRadiusMiles = 3959
)

// Radius returns the earth radius for the unit. Anything other than "km"
// falls back to miles, matching the search defaults.
func (u Unit) Radius() float64 {
	if u == UnitKM {
		return earthRadiusKM
	}
	return earthRadiusMiles
}

// Haversine calculates the great-circle distance between two coordinates
// in the given unit.
func Haversine(a, b models.Coordinate, unit Unit) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return unit.Radius() * c
}
