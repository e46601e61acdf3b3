package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/observability"
)

// StateObserver receives every committed snapshot, in commit order.
// Observers run while the controller holds its lock and must not call back into it.
type StateObserver func(ctx context.Context, state *entities.SearchState)

// SearchController owns one session's SearchState. Transitions are computed
// by Reduce; the controller executes the resulting effects against the
// geocoder and the dataset and commits each new snapshot.
type SearchController struct {
	mu        sync.Mutex
	state     *entities.SearchState
	observers []StateObserver

	sessionID string
	geocoder  providers.GeolocationProvider
	dataset   providers.VendorDataset
	metrics   *observability.Metrics
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSearchController creates a controller in the initial Idle state
func NewSearchController(sessionID string, geocoder providers.GeolocationProvider, dataset providers.VendorDataset) *SearchController {
	c := &SearchController{
		sessionID: sessionID,
		geocoder:  geocoder,
		dataset:   dataset,
		now:       time.Now,
		logger:    log.With().Str("session_id", sessionID).Logger(),
	}
	c.state = entities.NewSearchState(c.now())
	return c
}

// SetMetrics enables search cycle metrics
func (c *SearchController) SetMetrics(metrics *observability.Metrics) {
	c.metrics = metrics
}

// SetClock replaces the time source used for validity filtering
func (c *SearchController) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// AddObserver registers an observer for committed snapshots
func (c *SearchController) AddObserver(observer StateObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

// SessionID returns the session the controller belongs to
func (c *SearchController) SessionID() string {
	return c.sessionID
}

// State returns the latest committed snapshot
func (c *SearchController) State() *entities.SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubmitAddress runs a full address cycle and returns the latest snapshot.
// The returned snapshot belongs to a newer cycle if one was triggered meanwhile.
func (c *SearchController) SubmitAddress(ctx context.Context, address string) *entities.SearchState {
	return c.run(ctx, "address", SubmitAddress{Address: address})
}

// ClickMap runs a full click cycle centered at at and returns the latest snapshot
func (c *SearchController) ClickMap(ctx context.Context, at entities.Coordinate) *entities.SearchState {
	return c.run(ctx, "click", MapClicked{At: at})
}

func (c *SearchController) run(ctx context.Context, trigger string, msg Message) *entities.SearchState {
	ctx, span := observability.StartSpan(ctx, "search.cycle."+trigger)
	defer span.End()

	started, effects := c.dispatch(ctx, msg)
	seq := started.Seq
	c.logger.Debug().Str("trigger", trigger).Uint64("seq", seq).Str("phase", string(started.Phase)).Msg("search cycle started")

	for len(effects) > 0 {
		var next []Effect
		for _, effect := range effects {
			if !c.isCurrent(effect.CycleSeq()) {
				continue
			}
			_, more := c.dispatch(ctx, c.execute(ctx, effect))
			next = append(next, more...)
		}
		effects = next
	}

	final := c.State()
	outcome := string(final.Phase)
	if final.Seq != seq {
		outcome = "superseded"
	}
	observability.RecordSearchCycle(ctx, c.metrics, trigger, outcome)
	c.logger.Info().
		Str("trigger", trigger).
		Uint64("seq", seq).
		Str("outcome", outcome).
		Int("results", len(final.Results)).
		Str("status_message", final.StatusMessage).
		Msg("search cycle finished")
	return final
}

// dispatch applies msg and commits the resulting snapshot
func (c *SearchController) dispatch(ctx context.Context, msg Message) (*entities.SearchState, []Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, effects := Reduce(c.state, msg, c.now())
	if next == c.state {
		c.logger.Debug().Uint64("current_seq", c.state.Seq).Msgf("ignored stale %T", msg)
		return next, nil
	}
	c.state = next
	// Observers run under the lock so surfaces see snapshots in commit order.
	// The cost is that State() readers wait behind a slow observer, such as a
	// Redis PUBLISH from the map surface.
	for _, observer := range c.observers {
		observer(ctx, next)
	}
	return next, effects
}

func (c *SearchController) isCurrent(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Seq == seq
}

// execute performs an effect's external call and converts the outcome into
// the completion message. Failures are reported, never retried.
func (c *SearchController) execute(ctx context.Context, effect Effect) Message {
	switch e := effect.(type) {
	case ResolveAddress:
		at, err := c.geocoder.Resolve(ctx, e.Address)
		if err != nil {
			c.logger.Warn().Err(err).Uint64("seq", e.Seq).Msg("address resolution failed")
			return GeocodeFailed{Seq: e.Seq, Err: err}
		}
		return GeocodeSucceeded{Seq: e.Seq, At: at}

	case QueryDataset:
		records, err := c.dataset.Query(ctx, e.Center, e.RadiusMeters)
		if err != nil {
			c.logger.Warn().Err(err).Uint64("seq", e.Seq).Msg("dataset query failed")
			return QueryFailed{Seq: e.Seq, Err: err}
		}
		return QuerySucceeded{Seq: e.Seq, Records: records}
	}
	return nil
}
