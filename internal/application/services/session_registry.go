package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

// MapSurfaceFactory returns the surface a new session renders to
type MapSurfaceFactory func(sessionID string) providers.MapSurface

// Session is one user's search: a controller and the view bound to it
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *SearchController
	View       *ViewSync
}

// SessionRegistry holds live sessions. Sessions idle for longer than the
// configured TTL, or pushed out by the size limit, are dropped.
type SessionRegistry struct {
	sessions *expirable.LRU[string, *Session]
	geocoder providers.GeolocationProvider
	dataset  providers.VendorDataset
	surfaces MapSurfaceFactory
	metrics  *observability.Metrics

	mu      sync.RWMutex
	onEvict []func(sessionID string)
}

// NewSessionRegistry creates a registry holding at most maxSessions sessions
func NewSessionRegistry(
	geocoder providers.GeolocationProvider,
	dataset providers.VendorDataset,
	surfaces MapSurfaceFactory,
	maxSessions int,
	idleTTL time.Duration,
) *SessionRegistry {
	r := &SessionRegistry{
		geocoder: geocoder,
		dataset:  dataset,
		surfaces: surfaces,
	}
	r.sessions = expirable.NewLRU[string, *Session](maxSessions, r.evicted, idleTTL)
	return r
}

// SetMetrics enables search cycle metrics on sessions created afterwards
func (r *SessionRegistry) SetMetrics(metrics *observability.Metrics) {
	r.metrics = metrics
}

// OnEvict registers fn to be called with the id of every dropped session
func (r *SessionRegistry) OnEvict(fn func(sessionID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = append(r.onEvict, fn)
}

// Create starts a new session in the initial state
func (r *SessionRegistry) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()

	controller := NewSearchController(id, r.geocoder, r.dataset)
	controller.SetMetrics(r.metrics)

	session := &Session{
		ID:         id,
		CreatedAt:  time.Now().UTC(),
		Controller: controller,
		View:       NewViewSync(controller, r.surfaces(id)),
	}
	r.sessions.Add(id, session)

	observability.LoggerFromContext(ctx).Info().Str("session_id", id).Int("sessions", r.sessions.Len()).Msg("session created")
	return session, nil
}

// Get returns a live session and marks it as recently used
func (r *SessionRegistry) Get(ctx context.Context, id string) (*Session, error) {
	session, ok := r.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("session not found: " + id)
	}
	// re-adding restarts the idle TTL
	r.sessions.Add(id, session)
	return session, nil
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	return r.sessions.Len()
}

func (r *SessionRegistry) evicted(id string, _ *Session) {
	log.Debug().Str("session_id", id).Msg("session dropped")

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fn := range r.onEvict {
		fn(id)
	}
}
