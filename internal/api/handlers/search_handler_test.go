package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/foodtruckfinder/internal/api/handlers"
	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

func newSearchMux(env *testEnv) *http.ServeMux {
	h := handlers.NewSearchHandler(env.sessions)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetState)
	mux.HandleFunc("POST /api/sessions/{id}/address", h.SubmitAddress)
	mux.HandleFunc("POST /api/sessions/{id}/click", h.ClickMap)
	mux.HandleFunc("GET /api/sessions/{id}/view", h.GetView)
	return mux
}

func doRequest(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, mux http.Handler) string {
	t.Helper()
	w := doRequest(t, mux, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp handlers.CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) entities.SearchState {
	t.Helper()
	var state entities.SearchState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	return state
}

func TestSearchHandler_CreateSession_StartsIdleAtDefaultFocus(t *testing.T) {
	mux := newSearchMux(newTestEnv())

	w := doRequest(t, mux, http.MethodPost, "/api/sessions", "")

	require.Equal(t, http.StatusCreated, w.Code)
	var resp handlers.CreateSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entities.SearchPhaseIdle, resp.State.Phase)
	assert.Equal(t, entities.DefaultFocus, resp.State.Focus)
	assert.Empty(t, resp.State.Results)
}

func TestSearchHandler_SubmitAddress(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)
	ferry := entities.Coordinate{Latitude: 37.7955, Longitude: -122.3937}

	env.geocoder.On("Resolve", mock.Anything, "1 Ferry Building").Return(ferry, nil)
	env.dataset.On("Query", mock.Anything, ferry, entities.SearchRadiusMeters).
		Return([]entities.VendorRecord{validRecord("1", ferry)}, nil)

	w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/address", `{"address":"1 Ferry Building"}`)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.Equal(t, entities.SearchPhaseReady, state.Phase)
	assert.Equal(t, ferry, state.Focus)
	assert.Len(t, state.Results, 1)

	w = doRequest(t, mux, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, state.Seq, decodeState(t, w).Seq)
}

func TestSearchHandler_SubmitBlankAddress(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)

	w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/address", `{"address":"   "}`)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.Equal(t, entities.SearchPhaseError, state.Phase)
	assert.Equal(t, entities.StatusEnterAddress, state.StatusMessage)
	env.geocoder.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestSearchHandler_AddressNotFoundKeepsFocus(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)
	env.geocoder.On("Resolve", mock.Anything, "Atlantis").
		Return(entities.Coordinate{}, apperrors.NewNotFoundError("address not found"))

	w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/address", `{"address":"Atlantis"}`)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.Equal(t, entities.StatusAddressNotFound, state.StatusMessage)
	assert.Equal(t, entities.DefaultFocus, state.Focus)
}

func TestSearchHandler_ClickMap(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)
	point := entities.Coordinate{Latitude: 37.0, Longitude: -122.0}
	env.dataset.On("Query", mock.Anything, point, 2000).Return([]entities.VendorRecord{}, nil)

	w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/click", `{"lat":37.0,"lng":-122.0}`)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.Equal(t, entities.SearchPhaseReady, state.Phase)
	assert.Equal(t, entities.StatusNoResults, state.StatusMessage)

	w = doRequest(t, mux, http.MethodGet, "/api/sessions/"+id+"/view", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view entities.MapView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, point, view.Circle.Center)
	assert.Equal(t, entities.CircleStyleNoCoverage, view.Circle.Style)
	require.Len(t, view.Markers, 1)
	assert.Equal(t, entities.MarkerKindCurrentLocation, view.Markers[0].Kind)
}

func TestSearchHandler_ClickMap_ValidatesBody(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"latitude out of range", `{"lat":91,"lng":0}`, "lat"},
		{"missing longitude", `{"lat":37.7}`, "lng is required"},
		{"malformed", `{"lat":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/click", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.want)
		})
	}
	env.dataset.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchHandler_ClickMap_WrapsPannedLongitude(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)
	wrapped := entities.Coordinate{Latitude: 37.0, Longitude: 160.0}
	env.dataset.On("Query", mock.Anything, wrapped, 2000).Return([]entities.VendorRecord{}, nil)

	w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/click", `{"lat":37.0,"lng":-200.0}`)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeState(t, w)
	assert.Equal(t, wrapped, state.Focus)
	assert.Equal(t, entities.SearchPhaseReady, state.Phase)
}

func TestSearchHandler_ZeroCoordinatesAreValid(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)
	env.dataset.On("Query", mock.Anything, entities.Coordinate{}, 2000).Return([]entities.VendorRecord{}, nil)

	w := doRequest(t, mux, http.MethodPost, "/api/sessions/"+id+"/click", `{"lat":0,"lng":0}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchHandler_UnknownSession(t *testing.T) {
	mux := newSearchMux(newTestEnv())

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/sessions/nope", ""},
		{http.MethodPost, "/api/sessions/nope/address", `{"address":"x"}`},
		{http.MethodPost, "/api/sessions/nope/click", `{"lat":1,"lng":1}`},
		{http.MethodGet, "/api/sessions/nope/view", ""},
	} {
		w := doRequest(t, mux, req.method, req.path, req.body)
		assert.Equal(t, http.StatusNotFound, w.Code, req.path)
	}
}

func TestSearchHandler_CycleSurvivesClientCancellation(t *testing.T) {
	env := newTestEnv()
	mux := newSearchMux(env)
	id := createSession(t, mux)
	point := entities.Coordinate{Latitude: 37.0, Longitude: -122.0}
	env.dataset.On("Query", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), point, 2000).
		Return([]entities.VendorRecord{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/click", strings.NewReader(`{"lat":37,"lng":-122}`)).WithContext(ctx)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	env.dataset.AssertExpectations(t)
}
