package entities

import (
	"fmt"
	"math"

	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

// SearchRadiusMeters is the fixed radius of every proximity query
const SearchRadiusMeters = 2000

// DefaultFocus is the San Francisco city center, used before any location is resolved
var DefaultFocus = Coordinate{Latitude: 37.77493, Longitude: -122.41116}

// Coordinate represents a geographic point in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// NewCoordinate validates latitude and longitude ranges
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinate{}, apperrors.NewValidationError(fmt.Sprintf("latitude %v out of range [-90,90]", lat))
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Coordinate{}, apperrors.NewValidationError(fmt.Sprintf("longitude %v out of range [-180,180]", lng))
	}
	return Coordinate{Latitude: lat, Longitude: lng}, nil
}

// WrapLongitude maps a longitude from a horizontally panned map into
// [-180,180]. Values already in range, NaN and infinities are returned as is.
func WrapLongitude(lng float64) float64 {
	if (lng >= -180 && lng <= 180) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return lng
	}
	wrapped := math.Mod(lng+180, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	return wrapped - 180
}

// String formats the coordinate as "lat,lng"
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// DistanceMeters returns the great-circle distance to other using the Haversine formula
func (c Coordinate) DistanceMeters(other Coordinate) float64 {
	const earthRadiusMeters = 6371000.0

	lat1 := toRadians(c.Latitude)
	lat2 := toRadians(other.Latitude)
	dLat := toRadians(other.Latitude - c.Latitude)
	dLng := toRadians(other.Longitude - c.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
