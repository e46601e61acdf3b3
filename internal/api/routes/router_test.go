package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/cache"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/events"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/providers/dataset"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/providers/geolocation"
	"github.com/zatekoja/foodtruckfinder/internal/api/handlers"
	"github.com/zatekoja/foodtruckfinder/internal/api/middleware"
	"github.com/zatekoja/foodtruckfinder/internal/api/routes"
	"github.com/zatekoja/foodtruckfinder/internal/application/services"
	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

func newTestServer(t *testing.T, limiter *middleware.IPRateLimiter) *httptest.Server {
	t.Helper()
	geocoder := geolocation.NewMockGeolocationProvider()
	vendors := dataset.NewStaticDataset(dataset.SampleRecords(time.Now()))
	bus := events.NewMemoryEventBus()
	memCache := cache.NewMemoryAdapter()

	sessions := services.NewSessionRegistry(geocoder, vendors, func(sessionID string) providers.MapSurface {
		return events.NewEventBusMapSurface(bus, sessionID)
	}, 100, time.Hour)

	router := routes.NewRouter(
		handlers.NewSearchHandler(sessions),
		handlers.NewSSEHandler(bus, sessions),
		handlers.NewGeolocationHandler(geocoder, geocoder),
		nil,
		limiter,
		middleware.NewCacheMiddleware(memCache, nil),
		[]string{"*"},
		nil,
	)
	srv := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_AddressSearchAgainstSampleData(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created handlers.CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = post(t, srv.URL+"/api/sessions/"+created.SessionID+"/address", `{"address":"Ferry Building"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state entities.SearchState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))

	assert.Equal(t, entities.SearchPhaseReady, state.Phase)
	assert.Equal(t, 37.7955, state.Focus.Latitude)
	require.Len(t, state.Results, 2)
	assert.Equal(t, "1", state.Results[0].ID)
	assert.Equal(t, "2", state.Results[1].ID)

	resp = post(t, srv.URL+"/api/sessions/"+created.SessionID+"/address", `{"address":"Atlantis"}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, entities.StatusAddressNotFound, state.StatusMessage)
	assert.Len(t, state.Results, 2, "previous results are kept")
}

func TestRouter_GeocodeStatusCodes(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/geocode?address=City+Hall")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/geocode?address=Atlantis")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_RateLimitsProviderRoutes(t *testing.T) {
	srv := newTestServer(t, middleware.NewIPRateLimiter(0.001, 1))

	resp := post(t, srv.URL+"/api/sessions", "")
	var created handlers.CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	first := post(t, srv.URL+"/api/sessions/"+created.SessionID+"/click", `{"lat":37.79,"lng":-122.39}`)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	second := post(t, srv.URL+"/api/sessions/"+created.SessionID+"/click", `{"lat":37.79,"lng":-122.39}`)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	// reads are not limited
	resp, err := http.Get(srv.URL + "/api/sessions/" + created.SessionID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/sessions")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
