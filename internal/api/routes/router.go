package routes

import (
	"net/http"

	"github.com/zatekoja/foodtruckfinder/internal/api/handlers"
	"github.com/zatekoja/foodtruckfinder/internal/api/middleware"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler      *handlers.SearchHandler
	sseHandler         *handlers.SSEHandler
	geolocationHandler *handlers.GeolocationHandler
	mapsHandler        *handlers.MapsHandler

	rateLimiter     *middleware.IPRateLimiter
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. rateLimiter, cacheMiddleware and
// mapsHandler are optional.
func NewRouter(
	searchHandler *handlers.SearchHandler,
	sseHandler *handlers.SSEHandler,
	geolocationHandler *handlers.GeolocationHandler,
	mapsHandler *handlers.MapsHandler,
	rateLimiter *middleware.IPRateLimiter,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		searchHandler:      searchHandler,
		sseHandler:         sseHandler,
		geolocationHandler: geolocationHandler,
		mapsHandler:        mapsHandler,
		rateLimiter:        rateLimiter,
		cacheMiddleware:    cacheMiddleware,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// limited applies the per-client rate limit to routes that reach paid providers
func (r *Router) limited(h http.HandlerFunc) http.Handler {
	if r.rateLimiter == nil {
		return h
	}
	return r.rateLimiter.LimitFunc(h)
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search sessions
	r.mux.HandleFunc("POST /api/sessions", r.searchHandler.CreateSession)
	r.mux.HandleFunc("GET /api/sessions/{id}", r.searchHandler.GetState)
	r.mux.Handle("POST /api/sessions/{id}/address", r.limited(r.searchHandler.SubmitAddress))
	r.mux.Handle("POST /api/sessions/{id}/click", r.limited(r.searchHandler.ClickMap))
	r.mux.HandleFunc("GET /api/sessions/{id}/view", r.searchHandler.GetView)

	// Map command stream
	r.mux.HandleFunc("GET /api/stream/sessions/{id}", r.sseHandler.StreamSession)

	// Geolocation
	r.mux.Handle("GET /api/geocode", r.limited(r.geolocationHandler.Geocode))
	r.mux.Handle("GET /api/reverse-geocode", r.limited(r.geolocationHandler.ReverseGeocode))
	r.mux.Handle("GET /api/places/autocomplete", r.limited(r.geolocationHandler.Autocomplete))

	if r.mapsHandler != nil {
		r.mux.Handle("GET /api/maps/static", r.limited(r.mapsHandler.GetStaticMap))
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
