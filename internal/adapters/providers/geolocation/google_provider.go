package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

const (
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	googleAutocompleteURL  = "https://maps.googleapis.com/maps/api/place/autocomplete/json"
	defaultGeocodeCacheTTL = 30 * 24 * time.Hour
	defaultHTTPTimeout     = 8 * time.Second
	defaultLanguage        = "en"
	defaultRegion          = "us"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// GoogleGeolocationProvider implements the GeolocationProvider using Google Maps APIs.
type GoogleGeolocationProvider struct {
	apiKey          string
	httpClient      *http.Client
	cache           providers.CacheProvider
	baseURL         string
	autocompleteURL string
	language        string
	region          string
	metrics         *observability.Metrics
	inflight        singleflight.Group
}

// NewGoogleGeolocationProvider creates a new Google geolocation provider.
func NewGoogleGeolocationProvider(apiKey string, cache providers.CacheProvider) *GoogleGeolocationProvider {
	return NewGoogleGeolocationProviderWithOptions(apiKey, cache, googleGeocodeURL, nil)
}

// NewGoogleGeolocationProviderWithOptions allows overriding base URL and HTTP client (used for tests).
// When baseURL ends in "/geocode" the autocomplete endpoint is derived from it.
func NewGoogleGeolocationProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) *GoogleGeolocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	autocompleteURL := googleAutocompleteURL
	if baseURL != googleGeocodeURL {
		autocompleteURL = strings.TrimSuffix(baseURL, "/geocode") + "/autocomplete"
	}
	return &GoogleGeolocationProvider{
		apiKey:          apiKey,
		httpClient:      httpClient,
		cache:           cache,
		baseURL:         baseURL,
		autocompleteURL: autocompleteURL,
		language:        defaultLanguage,
		region:          defaultRegion,
	}
}

// SetLocale sets the language and region biasing every request
func (g *GoogleGeolocationProvider) SetLocale(language, region string) {
	if language != "" {
		g.language = language
	}
	if region != "" {
		g.region = region
	}
}

// SetMetrics enables provider latency and cache metrics
func (g *GoogleGeolocationProvider) SetMetrics(metrics *observability.Metrics) {
	g.metrics = metrics
}

// Resolve converts an address to a coordinate.
func (g *GoogleGeolocationProvider) Resolve(ctx context.Context, address string) (entities.Coordinate, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return entities.Coordinate{}, apperrors.NewValidationError("address is required")
	}

	cacheKey := "geo:v3:resolve:" + hashKey(strings.ToLower(trimmed))
	if coord, ok := g.cachedCoordinate(ctx, cacheKey); ok {
		return coord, nil
	}

	// Identical concurrent lookups share one outbound request. The shared call
	// is detached from the caller that started it so one disconnect does not
	// fail the others; the HTTP client timeout still bounds it.
	flight := g.inflight.DoChan(cacheKey, func() (interface{}, error) {
		return g.resolveRemote(context.WithoutCancel(ctx), trimmed)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return entities.Coordinate{}, apperrors.NewExternalError("geocode request canceled", ctx.Err())
	case res = <-flight:
	}
	if res.Err != nil {
		return entities.Coordinate{}, res.Err
	}
	coord := res.Val.(entities.Coordinate)

	if g.cache != nil {
		if payload, err := json.Marshal(coord); err == nil {
			_ = g.cache.Set(ctx, cacheKey, payload, defaultGeocodeCacheTTL)
		}
	}
	return coord, nil
}

func (g *GoogleGeolocationProvider) resolveRemote(ctx context.Context, address string) (entities.Coordinate, error) {
	ctx, span := observability.StartSpan(ctx, "geocode.resolve")
	defer span.End()

	start := time.Now()
	resp, err := g.doGeocodeRequest(ctx, url.Values{"address": []string{address}})
	observability.RecordProviderCall(ctx, g.metrics, "google_geocode", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return entities.Coordinate{}, err
	}

	if len(resp.Results) == 0 {
		return entities.Coordinate{}, apperrors.NewNotFoundError("no results for address")
	}

	loc := resp.Results[0].Geometry.Location
	coord, err := entities.NewCoordinate(loc.Lat, loc.Lng)
	if err != nil {
		return entities.Coordinate{}, apperrors.NewExternalError("geocoder returned an invalid coordinate", err)
	}
	return coord, nil
}

func (g *GoogleGeolocationProvider) cachedCoordinate(ctx context.Context, key string) (entities.Coordinate, bool) {
	if g.cache == nil {
		return entities.Coordinate{}, false
	}
	cached, err := g.cache.Get(ctx, key)
	if err != nil || len(cached) == 0 {
		observability.RecordCacheMiss(ctx, g.metrics, "geocode")
		return entities.Coordinate{}, false
	}
	var coord entities.Coordinate
	if err := json.Unmarshal(cached, &coord); err != nil || (coord.Latitude == 0 && coord.Longitude == 0) {
		observability.RecordCacheMiss(ctx, g.metrics, "geocode")
		return entities.Coordinate{}, false
	}
	observability.RecordCacheHit(ctx, g.metrics, "geocode")
	return coord, true
}

// ReverseGeocode converts coordinates to an address.
func (g *GoogleGeolocationProvider) ReverseGeocode(ctx context.Context, at entities.Coordinate) (*providers.GeocodedAddress, error) {
	cacheKey := "geo:v3:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", at.Latitude, at.Longitude))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var address providers.GeocodedAddress
			if err := json.Unmarshal(cached, &address); err == nil && address.FormattedAddress != "" {
				return &address, nil
			}
		}
	}

	resp, err := g.doGeocodeRequest(ctx, url.Values{"latlng": []string{at.String()}})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, apperrors.NewNotFoundError("no results for coordinates")
	}

	result := resp.Results[0]
	address := providers.GeocodedAddress{
		FormattedAddress: result.FormattedAddress,
		Street:           buildStreet(result.AddressComponents),
		City:             component(result.AddressComponents, "locality", "administrative_area_level_2"),
		State:            component(result.AddressComponents, "administrative_area_level_1"),
		ZipCode:          component(result.AddressComponents, "postal_code"),
		Country:          component(result.AddressComponents, "country"),
		Coordinates: entities.Coordinate{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
	}

	if g.cache != nil {
		if payload, err := json.Marshal(address); err == nil {
			_ = g.cache.Set(ctx, cacheKey, payload, defaultGeocodeCacheTTL)
		}
	}

	return &address, nil
}

// Suggest returns address candidates for partial input, restricted to the configured country.
func (g *GoogleGeolocationProvider) Suggest(ctx context.Context, input string) ([]providers.AddressSuggestion, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return []providers.AddressSuggestion{}, nil
	}

	params := url.Values{}
	params.Set("input", trimmed)
	params.Set("types", "address")
	params.Set("components", "country:"+g.region)

	var payload googleAutocompleteResponse
	if err := g.getJSON(ctx, g.autocompleteURL, params, &payload); err != nil {
		return nil, err
	}

	switch payload.Status {
	case statusOK:
	case statusZeroResults:
		return []providers.AddressSuggestion{}, nil
	default:
		return nil, providerStatusError("autocomplete", payload.Status, payload.ErrorMessage)
	}

	suggestions := make([]providers.AddressSuggestion, 0, len(payload.Predictions))
	for _, p := range payload.Predictions {
		suggestions = append(suggestions, providers.AddressSuggestion{
			PlaceID:     p.PlaceID,
			Description: p.Description,
		})
	}
	return suggestions, nil
}

func (g *GoogleGeolocationProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	params.Set("region", g.region)

	var payload googleGeocodeResponse
	if err := g.getJSON(ctx, g.baseURL, params, &payload); err != nil {
		return nil, err
	}

	switch payload.Status {
	case statusOK:
		return &payload, nil
	case statusZeroResults:
		return nil, apperrors.NewNotFoundError("address not found")
	default:
		return nil, providerStatusError("geocode", payload.Status, payload.ErrorMessage)
	}
}

func (g *GoogleGeolocationProvider) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if g.apiKey == "" {
		return apperrors.NewExternalError("google maps api key is required", nil)
	}

	params.Set("language", g.language)
	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build google maps request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("google maps request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewExternalError(fmt.Sprintf("google maps returned status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("failed to decode google maps response", err)
	}
	return nil
}

func providerStatusError(operation, status, message string) error {
	if message != "" {
		return apperrors.NewExternalError(fmt.Sprintf("%s request failed: %s", operation, status), errors.New(message))
	}
	return apperrors.NewExternalError(fmt.Sprintf("%s request failed: %s", operation, status), nil)
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func component(components []googleAddressComponent, primary string, fallback ...string) string {
	for _, want := range append([]string{primary}, fallback...) {
		for _, comp := range components {
			if containsType(comp.Types, want) {
				return comp.LongName
			}
		}
	}
	return ""
}

func buildStreet(components []googleAddressComponent) string {
	streetNumber := component(components, "street_number")
	route := component(components, "route")
	if streetNumber != "" && route != "" {
		return streetNumber + " " + route
	}
	if route != "" {
		return route
	}
	return streetNumber
}

func containsType(types []string, target string) bool {
	for _, t := range types {
		if t == target {
			return true
		}
	}
	return false
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
	Geometry          googleGeometry           `json:"geometry"`
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleAutocompleteResponse struct {
	Status       string                    `json:"status"`
	ErrorMessage string                    `json:"error_message,omitempty"`
	Predictions  []googleAutocompletePlace `json:"predictions"`
}

type googleAutocompletePlace struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}
