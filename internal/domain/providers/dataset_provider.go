package providers

import (
	"context"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// VendorDataset queries the external vendor permit dataset.
//
// Query returns every record within radiusMeters of center, in provider
// order, without interpreting them. An empty slice is a valid result;
// failures are EXTERNAL AppErrors.
type VendorDataset interface {
	Query(ctx context.Context, center entities.Coordinate, radiusMeters int) ([]entities.VendorRecord, error)
}
