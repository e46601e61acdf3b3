package dataset

import (
	"context"
	"time"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// StaticDataset serves a fixed list of permits filtered by distance.
// It backs local development and demos without network access.
type StaticDataset struct {
	records []entities.VendorRecord
}

// NewStaticDataset creates a dataset over records
func NewStaticDataset(records []entities.VendorRecord) *StaticDataset {
	return &StaticDataset{records: records}
}

// Query returns the records whose position lies within radiusMeters of center
func (d *StaticDataset) Query(ctx context.Context, center entities.Coordinate, radiusMeters int) ([]entities.VendorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []entities.VendorRecord{}
	for _, r := range d.records {
		if r.Position == nil {
			continue
		}
		if center.DistanceMeters(*r.Position) <= float64(radiusMeters) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SampleRecords returns a handful of downtown San Francisco permits
func SampleRecords(now time.Time) []entities.VendorRecord {
	nextYear := now.AddDate(1, 0, 0)
	lastYear := now.AddDate(-1, 0, 0)
	at := func(lat, lng float64) *entities.Coordinate {
		return &entities.Coordinate{Latitude: lat, Longitude: lng}
	}
	return []entities.VendorRecord{
		{
			ID: "1", Address: "1 FERRY BLDG", Applicant: "Off the Grid Services, LLC", PermitID: "24MFF-00001",
			Status: entities.PermitStatusApproved, ExpirationDate: &nextYear, FacilityType: "Truck",
			FoodItems: "Tacos: burritos: quesadillas", Position: at(37.7955, -122.3937),
		},
		{
			ID: "2", Address: "50 FREMONT ST", Applicant: "Curry Up Now", PermitID: "24MFF-00002",
			Status: entities.PermitStatusApproved, ExpirationDate: &nextYear, FacilityType: "Truck",
			FoodItems: "Indian street food", Position: at(37.7906, -122.3972),
		},
		{
			ID: "3", Address: "1 MARKET ST", Applicant: "Natan's Catering", PermitID: "24MFF-00003",
			Status: entities.PermitStatusRequested, FacilityType: "Push Cart",
			FoodItems: "Hot dogs: pretzels", Position: at(37.7941, -122.3951),
		},
		{
			ID: "4", Address: "555 CALIFORNIA ST", Applicant: "Bay Area Mobile Catering", PermitID: "23MFF-00004",
			Status: entities.PermitStatusApproved, ExpirationDate: &lastYear, FacilityType: "Truck",
			FoodItems: "Sandwiches: salads", Position: at(37.7923, -122.4037),
		},
		{
			ID: "5", Address: "1 DR CARLTON B GOODLETT PL", Applicant: "Senor Sisig", PermitID: "24MFF-00005",
			Status: entities.PermitStatusApproved, ExpirationDate: &nextYear, FacilityType: "Truck",
			FoodItems: "Filipino fusion", Position: at(37.7793, -122.4193),
		},
	}
}
