package services

import (
	"strings"
	"time"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

// Message is an input to the search state machine
type Message interface {
	isMessage()
}

// SubmitAddress is the user submitting the address form
type SubmitAddress struct {
	Address string
}

// MapClicked is the user clicking a point on the map
type MapClicked struct {
	At entities.Coordinate
}

// GeocodeSucceeded completes a ResolveAddress effect
type GeocodeSucceeded struct {
	Seq uint64
	At  entities.Coordinate
}

// GeocodeFailed completes a ResolveAddress effect with an error
type GeocodeFailed struct {
	Seq uint64
	Err error
}

// QuerySucceeded completes a QueryDataset effect with the raw records
type QuerySucceeded struct {
	Seq     uint64
	Records []entities.VendorRecord
}

// QueryFailed completes a QueryDataset effect with an error
type QueryFailed struct {
	Seq uint64
	Err error
}

func (SubmitAddress) isMessage()    {}
func (MapClicked) isMessage()       {}
func (GeocodeSucceeded) isMessage() {}
func (GeocodeFailed) isMessage()    {}
func (QuerySucceeded) isMessage()   {}
func (QueryFailed) isMessage()      {}

// Effect is an external call requested by a transition
type Effect interface {
	CycleSeq() uint64
}

// ResolveAddress asks the geocoder for the address's coordinate
type ResolveAddress struct {
	Seq     uint64
	Address string
}

// QueryDataset asks the dataset for records around Center
type QueryDataset struct {
	Seq          uint64
	Center       entities.Coordinate
	RadiusMeters int
}

// CycleSeq returns the cycle that requested the effect
func (e ResolveAddress) CycleSeq() uint64 { return e.Seq }

// CycleSeq returns the cycle that requested the effect
func (e QueryDataset) CycleSeq() uint64 { return e.Seq }

// Reduce applies msg to state and returns the next state with the effects to
// run. It never modifies state. Completions that belong to a superseded cycle
// return state itself and no effects.
func Reduce(state *entities.SearchState, msg Message, now time.Time) (*entities.SearchState, []Effect) {
	switch m := msg.(type) {
	case SubmitAddress:
		next := begin(state, now)
		address := strings.TrimSpace(m.Address)
		if address == "" {
			next.Phase = entities.SearchPhaseError
			next.StatusMessage = entities.StatusEnterAddress
			return next, nil
		}
		next.Phase = entities.SearchPhaseResolving
		return next, []Effect{ResolveAddress{Seq: next.Seq, Address: address}}

	case MapClicked:
		next := begin(state, now)
		next.Focus = m.At
		next.Recenter = true
		next.Phase = entities.SearchPhaseQuerying
		return next, []Effect{queryAround(next)}

	case GeocodeSucceeded:
		if !current(state, m.Seq, entities.SearchPhaseResolving) {
			return state, nil
		}
		next := advance(state, now)
		next.Focus = m.At
		next.Recenter = true
		next.Phase = entities.SearchPhaseQuerying
		return next, []Effect{queryAround(next)}

	case GeocodeFailed:
		if !current(state, m.Seq, entities.SearchPhaseResolving) {
			return state, nil
		}
		next := advance(state, now)
		next.Phase = entities.SearchPhaseError
		if apperrors.IsNotFound(m.Err) {
			next.StatusMessage = entities.StatusAddressNotFound
		} else {
			next.StatusMessage = entities.StatusProviderFailure
		}
		return next, nil

	case QuerySucceeded:
		if !current(state, m.Seq, entities.SearchPhaseQuerying) {
			return state, nil
		}
		next := advance(state, now)
		next.Results = FilterValid(m.Records, now)
		next.Phase = entities.SearchPhaseReady
		if len(next.Results) == 0 {
			next.StatusMessage = entities.StatusNoResults
		}
		return next, nil

	case QueryFailed:
		if !current(state, m.Seq, entities.SearchPhaseQuerying) {
			return state, nil
		}
		next := advance(state, now)
		next.Phase = entities.SearchPhaseError
		next.StatusMessage = entities.StatusProviderFailure
		return next, nil
	}

	return state, nil
}

// begin starts a new cycle: a fresh sequence token supersedes any cycle in flight.
func begin(state *entities.SearchState, now time.Time) *entities.SearchState {
	next := advance(state, now)
	next.Seq = state.Seq + 1
	return next
}

func advance(state *entities.SearchState, now time.Time) *entities.SearchState {
	next := state.Clone()
	next.StatusMessage = ""
	next.Recenter = false
	next.UpdatedAt = now
	return next
}

func current(state *entities.SearchState, seq uint64, phase entities.SearchPhase) bool {
	return state.Seq == seq && state.Phase == phase
}

func queryAround(state *entities.SearchState) QueryDataset {
	return QueryDataset{
		Seq:          state.Seq,
		Center:       state.Focus,
		RadiusMeters: entities.SearchRadiusMeters,
	}
}
