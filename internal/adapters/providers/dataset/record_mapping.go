package dataset

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// rawRecord is one row of the SODA response. Socrata returns most values as
// strings, but numbers and nested objects are tolerated.
type rawRecord map[string]interface{}

// Floating timestamps carry no zone; they are read as UTC.
var expirationLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
	"01/02/2006 03:04:05 PM",
}

func toVendorRecord(r rawRecord) entities.VendorRecord {
	return entities.VendorRecord{
		ID:                  r.str("objectid"),
		Address:             r.str("address"),
		Applicant:           r.str("applicant"),
		PermitID:            r.str("permit"),
		LocationDescription: r.str("locationdescription"),
		Status:              entities.PermitStatus(r.str("status")),
		ExpirationDate:      parseExpiration(r.str("expirationdate")),
		FacilityType:        r.str("facilitytype"),
		FoodItems:           r.str("fooditems"),
		Position:            r.position(),
	}
}

func (r rawRecord) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (r rawRecord) position() *entities.Coordinate {
	lat, latOK := parseFloat(r.str("latitude"))
	lng, lngOK := parseFloat(r.str("longitude"))
	if !latOK || !lngOK {
		if loc, ok := r["location"].(map[string]interface{}); ok {
			nested := rawRecord(loc)
			lat, latOK = parseFloat(nested.str("latitude"))
			lng, lngOK = parseFloat(nested.str("longitude"))
		}
	}
	if !latOK || !lngOK {
		return nil
	}
	// The dataset uses 0,0 for permits without a geocoded location.
	if lat == 0 && lng == 0 {
		return nil
	}
	coord, err := entities.NewCoordinate(lat, lng)
	if err != nil {
		return nil
	}
	return &coord
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parseExpiration(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range expirationLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}
