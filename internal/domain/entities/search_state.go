package entities

import "time"

// SearchPhase is the phase of the proximity search state machine
type SearchPhase string

const (
	SearchPhaseIdle      SearchPhase = "idle"
	SearchPhaseResolving SearchPhase = "resolving"
	SearchPhaseQuerying  SearchPhase = "querying"
	SearchPhaseReady     SearchPhase = "ready"
	SearchPhaseError     SearchPhase = "error"
)

// Status messages shown to the user
const (
	StatusEnterAddress    = "Enter an address!"
	StatusAddressNotFound = "Address not found!"
	StatusNoResults       = "No results found!"
	StatusProviderFailure = "Something went wrong. Please try again."
)

// SearchState is a snapshot of one session's search. Snapshots are never
// modified after they are published; each transition builds a new one.
type SearchState struct {
	Seq           uint64         `json:"seq"`
	Phase         SearchPhase    `json:"phase"`
	Focus         Coordinate     `json:"focus"`
	Results       []VendorRecord `json:"results"`
	StatusMessage string         `json:"status_message,omitempty"`
	// Recenter is set on snapshots whose focus was just adopted from a
	// geocoded address or a map click.
	Recenter  bool      `json:"recenter"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSearchState returns the initial state: default focus, no results
func NewSearchState(now time.Time) *SearchState {
	return &SearchState{
		Phase:     SearchPhaseIdle,
		Focus:     DefaultFocus,
		Results:   []VendorRecord{},
		UpdatedAt: now,
	}
}

// HasResults reports whether the snapshot holds at least one vendor
func (s *SearchState) HasResults() bool {
	return len(s.Results) > 0
}

// Clone returns a copy that shares no mutable memory with s
func (s *SearchState) Clone() *SearchState {
	next := *s
	next.Results = make([]VendorRecord, len(s.Results))
	copy(next.Results, s.Results)
	return &next
}
