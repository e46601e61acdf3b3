package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

// GeolocationHandler handles geolocation endpoints.
type GeolocationHandler struct {
	provider  providers.GeolocationProvider
	suggester providers.AddressSuggester
}

// NewGeolocationHandler creates a new geolocation handler. suggester may be nil,
// in which case autocomplete is reported as unavailable.
func NewGeolocationHandler(provider providers.GeolocationProvider, suggester providers.AddressSuggester) *GeolocationHandler {
	return &GeolocationHandler{provider: provider, suggester: suggester}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	coords, err := h.provider.Resolve(r.Context(), address)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"address": address,
		"lat":     coords.Latitude,
		"lon":     coords.Longitude,
	})
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lon=...
func (h *GeolocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	latStr := strings.TrimSpace(r.URL.Query().Get("lat"))
	lonStr := strings.TrimSpace(r.URL.Query().Get("lon"))
	if latStr == "" || lonStr == "" {
		respondWithError(w, http.StatusBadRequest, "lat and lon parameters are required")
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}
	at, err := entities.NewCoordinate(lat, lon)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	address, err := h.provider.ReverseGeocode(r.Context(), at)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, address)
}

// Autocomplete handles GET /api/places/autocomplete?input=...
func (h *GeolocationHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		respondWithError(w, http.StatusNotImplemented, "address suggestions not available")
		return
	}

	input := strings.TrimSpace(r.URL.Query().Get("input"))
	if input == "" {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"suggestions": []providers.AddressSuggestion{},
			"count":       0,
		})
		return
	}

	suggestions, err := h.suggester.Suggest(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []providers.AddressSuggestion{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
