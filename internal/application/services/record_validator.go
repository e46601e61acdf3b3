package services

import (
	"time"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// IsValid reports whether a permit should be shown at time now: it must be
// approved and carry an expiration date strictly after now. Missing data
// excludes the record.
func IsValid(record entities.VendorRecord, now time.Time) bool {
	if !record.Status.IsApproved() {
		return false
	}
	if record.ExpirationDate == nil {
		return false
	}
	return record.ExpirationDate.After(now)
}

// FilterValid returns the valid records in their original order
func FilterValid(records []entities.VendorRecord, now time.Time) []entities.VendorRecord {
	valid := make([]entities.VendorRecord, 0, len(records))
	for _, r := range records {
		if IsValid(r, now) {
			valid = append(valid, r)
		}
	}
	return valid
}
