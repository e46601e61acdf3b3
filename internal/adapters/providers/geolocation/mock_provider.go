package geolocation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

// MockGeolocationProvider resolves a fixed set of San Francisco landmarks.
// It is used for local development when no Google API key is configured.
type MockGeolocationProvider struct {
	places map[string]entities.Coordinate
}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() *MockGeolocationProvider {
	return &MockGeolocationProvider{
		places: map[string]entities.Coordinate{
			"ferry building":     {Latitude: 37.7955, Longitude: -122.3937},
			"city hall":          {Latitude: 37.7793, Longitude: -122.4193},
			"union square":       {Latitude: 37.7880, Longitude: -122.4075},
			"mission dolores":    {Latitude: 37.7644, Longitude: -122.4269},
			"golden gate park":   {Latitude: 37.7694, Longitude: -122.4862},
			"fishermans wharf":   {Latitude: 37.8080, Longitude: -122.4177},
			"market st":          {Latitude: 37.7749, Longitude: -122.4194},
			"san francisco":      {Latitude: 37.77493, Longitude: -122.41116},
			"oracle park":        {Latitude: 37.7786, Longitude: -122.3893},
			"embarcadero center": {Latitude: 37.7946, Longitude: -122.3999},
		},
	}
}

// Resolve matches the address against the known landmarks, case-insensitively
func (m *MockGeolocationProvider) Resolve(ctx context.Context, address string) (entities.Coordinate, error) {
	normalized := strings.ToLower(strings.TrimSpace(address))
	if normalized == "" {
		return entities.Coordinate{}, apperrors.NewValidationError("address is required")
	}
	if coord, ok := m.lookup(normalized); ok {
		return coord, nil
	}
	return entities.Coordinate{}, apperrors.NewNotFoundError("address not found")
}

// ReverseGeocode returns the nearest landmark's name
func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, at entities.Coordinate) (*providers.GeocodedAddress, error) {
	nearest := ""
	best := -1.0
	for name, coord := range m.places {
		d := at.DistanceMeters(coord)
		if best < 0 || d < best || (d == best && name < nearest) {
			nearest, best = name, d
		}
	}
	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("near %s (%s)", nearest, at),
		City:             "San Francisco",
		State:            "CA",
		Country:          "United States",
		Coordinates:      at,
	}, nil
}

// Suggest returns landmarks whose name contains the input
func (m *MockGeolocationProvider) Suggest(ctx context.Context, input string) ([]providers.AddressSuggestion, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	suggestions := []providers.AddressSuggestion{}
	if normalized == "" {
		return suggestions, nil
	}
	for name := range m.places {
		if strings.Contains(name, normalized) {
			suggestions = append(suggestions, providers.AddressSuggestion{
				PlaceID:     "mock:" + strings.ReplaceAll(name, " ", "-"),
				Description: name + ", San Francisco, CA, USA",
			})
		}
	}
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Description < suggestions[j].Description
	})
	return suggestions, nil
}

func (m *MockGeolocationProvider) lookup(normalized string) (entities.Coordinate, bool) {
	if coord, ok := m.places[normalized]; ok {
		return coord, true
	}
	// Longest landmark name contained in the address wins.
	match := ""
	for name := range m.places {
		if strings.Contains(normalized, name) && len(name) > len(match) {
			match = name
		}
	}
	if match == "" {
		return entities.Coordinate{}, false
	}
	return m.places[match], true
}
