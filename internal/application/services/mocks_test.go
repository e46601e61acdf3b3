package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Resolve(ctx context.Context, address string) (entities.Coordinate, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(entities.Coordinate), args.Error(1)
}

func (m *MockGeocoder) ReverseGeocode(ctx context.Context, at entities.Coordinate) (*providers.GeocodedAddress, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.GeocodedAddress), args.Error(1)
}

type MockDataset struct {
	mock.Mock
}

func (m *MockDataset) Query(ctx context.Context, center entities.Coordinate, radiusMeters int) ([]entities.VendorRecord, error) {
	args := m.Called(ctx, center, radiusMeters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.VendorRecord), args.Error(1)
}

type surfaceCall struct {
	Op      string
	Seq     uint64
	Center  entities.Coordinate
	Markers []entities.Marker
	Circle  entities.Circle
}

// recordingSurface captures every command in the order it was issued
type recordingSurface struct {
	mu    sync.Mutex
	calls []surfaceCall
}

func (s *recordingSurface) SetViewport(ctx context.Context, seq uint64, viewport entities.Viewport) error {
	s.record(surfaceCall{Op: "viewport", Seq: seq, Center: viewport.Center})
	return nil
}

func (s *recordingSurface) RenderMarkers(ctx context.Context, seq uint64, markers []entities.Marker) error {
	s.record(surfaceCall{Op: "markers", Seq: seq, Markers: markers})
	return nil
}

func (s *recordingSurface) RenderCircle(ctx context.Context, seq uint64, circle entities.Circle) error {
	s.record(surfaceCall{Op: "circle", Seq: seq, Circle: circle})
	return nil
}

func (s *recordingSurface) record(call surfaceCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *recordingSurface) Calls() []surfaceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]surfaceCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *recordingSurface) Ops() []string {
	var ops []string
	for _, c := range s.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

func approvedRecord(id string, expires time.Time, at entities.Coordinate) entities.VendorRecord {
	return entities.VendorRecord{
		ID:             id,
		Applicant:      "Vendor " + id,
		Address:        id + " MARKET ST",
		Status:         entities.PermitStatusApproved,
		ExpirationDate: &expires,
		FacilityType:   "Truck",
		Position:       &at,
	}
}
