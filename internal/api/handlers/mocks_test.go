package handlers_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/events"
	"github.com/zatekoja/foodtruckfinder/internal/application/services"
	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

type MockGeolocationProvider struct {
	mock.Mock
}

func (m *MockGeolocationProvider) Resolve(ctx context.Context, address string) (entities.Coordinate, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(entities.Coordinate), args.Error(1)
}

func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, at entities.Coordinate) (*providers.GeocodedAddress, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.GeocodedAddress), args.Error(1)
}

func (m *MockGeolocationProvider) Suggest(ctx context.Context, input string) ([]providers.AddressSuggestion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]providers.AddressSuggestion), args.Error(1)
}

type MockVendorDataset struct {
	mock.Mock
}

func (m *MockVendorDataset) Query(ctx context.Context, center entities.Coordinate, radiusMeters int) ([]entities.VendorRecord, error) {
	args := m.Called(ctx, center, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.VendorRecord), args.Error(1)
}

// testEnv wires a session registry whose sessions render to an in-memory event bus
type testEnv struct {
	geocoder *MockGeolocationProvider
	dataset  *MockVendorDataset
	bus      providers.EventBus
	sessions *services.SessionRegistry
}

func newTestEnv() *testEnv {
	env := &testEnv{
		geocoder: new(MockGeolocationProvider),
		dataset:  new(MockVendorDataset),
		bus:      events.NewMemoryEventBus(),
	}
	env.sessions = services.NewSessionRegistry(env.geocoder, env.dataset, func(sessionID string) providers.MapSurface {
		return events.NewEventBusMapSurface(env.bus, sessionID)
	}, 100, time.Hour)
	return env
}

func validRecord(id string, at entities.Coordinate) entities.VendorRecord {
	expires := time.Now().AddDate(1, 0, 0)
	return entities.VendorRecord{
		ID:             id,
		Applicant:      "Truck " + id,
		Address:        "1 MARKET ST",
		Status:         entities.PermitStatusApproved,
		ExpirationDate: &expires,
		FacilityType:   "Truck",
		FoodItems:      "Tacos",
		Position:       &at,
	}
}
