package entities

import (
	"strings"
	"time"
)

// PermitStatus is the dataset-level status of a vendor permit
type PermitStatus string

const (
	PermitStatusApproved  PermitStatus = "APPROVED"
	PermitStatusRequested PermitStatus = "REQUESTED"
	PermitStatusExpired   PermitStatus = "EXPIRED"
	PermitStatusSuspended PermitStatus = "SUSPEND"
	PermitStatusIssued    PermitStatus = "ISSUED"
)

// IsApproved reports whether the status indicates dataset-level approval
func (s PermitStatus) IsApproved() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(PermitStatusApproved))
}

// VendorRecord is a mobile food facility permit as returned by the dataset provider.
// Every field is optional; unknown status values are kept verbatim.
type VendorRecord struct {
	ID                  string       `json:"id,omitempty"`
	Address             string       `json:"address,omitempty"`
	Applicant           string       `json:"applicant,omitempty"`
	PermitID            string       `json:"permit,omitempty"`
	LocationDescription string       `json:"location_description,omitempty"`
	Status              PermitStatus `json:"status,omitempty"`
	ExpirationDate      *time.Time   `json:"expiration_date,omitempty"`
	FacilityType        string       `json:"facility_type,omitempty"`
	FoodItems           string       `json:"food_items,omitempty"`
	Position            *Coordinate  `json:"position,omitempty"`
}
