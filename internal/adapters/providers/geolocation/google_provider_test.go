package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/cache"
	"github.com/zatekoja/foodtruckfinder/internal/adapters/providers/geolocation"
	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

const okGeocodeBody = `{
  "status": "OK",
  "results": [{
    "formatted_address": "1 Ferry Building, San Francisco, CA 94111, USA",
    "address_components": [
      {"long_name": "1", "types": ["street_number"]},
      {"long_name": "The Embarcadero", "types": ["route"]},
      {"long_name": "San Francisco", "types": ["locality"]},
      {"long_name": "California", "types": ["administrative_area_level_1"]},
      {"long_name": "94111", "types": ["postal_code"]},
      {"long_name": "United States", "types": ["country"]}
    ],
    "geometry": { "location": { "lat": 37.7955, "lng": -122.3937 } }
  }]
}`

func newGoogleServer(t *testing.T, calls *int32, body string, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGoogleProvider_ResolveAndCache(t *testing.T) {
	var calls int32
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(okGeocodeBody))
	}))
	defer server.Close()

	provider := geolocation.NewGoogleGeolocationProviderWithOptions("test-key", cache.NewMemoryAdapter(), server.URL+"/geocode", server.Client())
	ctx := context.Background()

	coord, err := provider.Resolve(ctx, "  1 Ferry Building ")
	require.NoError(t, err)
	assert.Equal(t, entities.Coordinate{Latitude: 37.7955, Longitude: -122.3937}, coord)
	assert.Contains(t, gotQuery, "address=1+Ferry+Building")
	assert.Contains(t, gotQuery, "language=en")
	assert.Contains(t, gotQuery, "region=us")
	assert.Contains(t, gotQuery, "key=test-key")

	coord, err = provider.Resolve(ctx, "1 ferry building")
	require.NoError(t, err)
	assert.Equal(t, 37.7955, coord.Latitude)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGoogleProvider_SharedLookupSurvivesLeaderCancel(t *testing.T) {
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(okGeocodeBody))
	}))
	defer server.Close()

	provider := geolocation.NewGoogleGeolocationProviderWithOptions("test-key", nil, server.URL+"/geocode", server.Client())

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := provider.Resolve(leaderCtx, "1 Ferry Building")
		leaderErr <- err
	}()
	<-started

	type result struct {
		coord entities.Coordinate
		err   error
	}
	follower := make(chan result, 1)
	go func() {
		coord, err := provider.Resolve(context.Background(), "1 Ferry Building")
		follower <- result{coord, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		assert.True(t, apperrors.IsExternal(err))
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case got := <-follower:
		require.NoError(t, got.err)
		assert.Equal(t, entities.Coordinate{Latitude: 37.7955, Longitude: -122.3937}, got.coord)
	case <-time.After(2 * time.Second):
		t.Fatal("shared lookup did not complete")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGoogleProvider_ResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantType apperrors.ErrorType
	}{
		{"zero results", `{"status":"ZERO_RESULTS","results":[]}`, http.StatusOK, apperrors.ErrorTypeNotFound},
		{"ok with empty results", `{"status":"OK","results":[]}`, http.StatusOK, apperrors.ErrorTypeNotFound},
		{"denied", `{"status":"REQUEST_DENIED","error_message":"bad key"}`, http.StatusOK, apperrors.ErrorTypeExternal},
		{"malformed body", `{"status":`, http.StatusOK, apperrors.ErrorTypeExternal},
		{"server error", `oops`, http.StatusInternalServerError, apperrors.ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := newGoogleServer(t, &calls, tt.body, tt.status)
			provider := geolocation.NewGoogleGeolocationProviderWithOptions("test-key", nil, server.URL+"/geocode", server.Client())

			_, err := provider.Resolve(context.Background(), "nowhere")
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestGoogleProvider_TransportFailureIsExternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := geolocation.NewGoogleGeolocationProviderWithOptions("test-key", nil, url+"/geocode", nil)
	_, err := provider.Resolve(context.Background(), "1 Ferry Building")
	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
}

func TestGoogleProvider_MissingKeyIsExternal(t *testing.T) {
	provider := geolocation.NewGoogleGeolocationProvider("", nil)
	_, err := provider.Resolve(context.Background(), "1 Ferry Building")
	assert.True(t, apperrors.IsExternal(err))
}

func TestGoogleProvider_ReverseGeocode(t *testing.T) {
	var calls int32
	server := newGoogleServer(t, &calls, okGeocodeBody, http.StatusOK)
	provider := geolocation.NewGoogleGeolocationProviderWithOptions("test-key", nil, server.URL+"/geocode", server.Client())

	addr, err := provider.ReverseGeocode(context.Background(), entities.Coordinate{Latitude: 37.7955, Longitude: -122.3937})
	require.NoError(t, err)
	assert.Equal(t, "1 The Embarcadero", addr.Street)
	assert.Equal(t, "San Francisco", addr.City)
	assert.Equal(t, "94111", addr.ZipCode)
}

func TestGoogleProvider_Suggest(t *testing.T) {
	var gotPath, gotComponents string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotComponents = r.URL.Query().Get("components")
		_, _ = w.Write([]byte(`{"status":"OK","predictions":[{"description":"1 Ferry Building, San Francisco, CA, USA","place_id":"abc"}]}`))
	}))
	defer server.Close()

	provider := geolocation.NewGoogleGeolocationProviderWithOptions("test-key", nil, server.URL+"/geocode", server.Client())
	suggestions, err := provider.Suggest(context.Background(), "1 Ferry")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "abc", suggestions[0].PlaceID)
	assert.Equal(t, "/autocomplete", gotPath)
	assert.Equal(t, "country:us", gotComponents)
}

func TestMockProvider_Resolve(t *testing.T) {
	provider := geolocation.NewMockGeolocationProvider()
	ctx := context.Background()

	coord, err := provider.Resolve(ctx, "Ferry Building, San Francisco")
	require.NoError(t, err)
	assert.Equal(t, 37.7955, coord.Latitude)

	_, err = provider.Resolve(ctx, "Atlantis")
	assert.True(t, apperrors.IsNotFound(err))

	suggestions, err := provider.Suggest(ctx, "ferry")
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}

func TestMockProvider_SuggestIsSorted(t *testing.T) {
	provider := geolocation.NewMockGeolocationProvider()
	ctx := context.Background()

	first, err := provider.Suggest(ctx, "park")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "golden gate park, San Francisco, CA, USA", first[0].Description)
	assert.Equal(t, "oracle park, San Francisco, CA, USA", first[1].Description)

	for i := 0; i < 20; i++ {
		again, err := provider.Suggest(ctx, "o")
		require.NoError(t, err)
		for j := 1; j < len(again); j++ {
			assert.Less(t, again[j-1].Description, again[j].Description)
		}
	}
}
