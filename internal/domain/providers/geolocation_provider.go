package providers

import (
	"context"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// GeolocationProvider defines the interface for geocoding services.
//
// Resolve returns a NOT_FOUND AppError when the provider has no match for the
// address and an EXTERNAL AppError for transport or provider failures.
type GeolocationProvider interface {
	// Resolve converts a non-empty address to a coordinate
	Resolve(ctx context.Context, address string) (entities.Coordinate, error)

	// ReverseGeocode converts coordinates to an address
	ReverseGeocode(ctx context.Context, at entities.Coordinate) (*GeocodedAddress, error)
}

// AddressSuggester returns candidate full addresses for partial user input
type AddressSuggester interface {
	Suggest(ctx context.Context, input string) ([]AddressSuggestion, error)
}

// GeocodedAddress represents a geocoded address
type GeocodedAddress struct {
	FormattedAddress string              `json:"formatted_address"`
	Street           string              `json:"street,omitempty"`
	City             string              `json:"city,omitempty"`
	State            string              `json:"state,omitempty"`
	ZipCode          string              `json:"zip_code,omitempty"`
	Country          string              `json:"country,omitempty"`
	Coordinates      entities.Coordinate `json:"coordinates"`
}

// AddressSuggestion is one autocomplete candidate
type AddressSuggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}
