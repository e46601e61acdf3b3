package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
	"github.com/zatekoja/foodtruckfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/foodtruckfinder/pkg/errors"
)

const (
	defaultBaseURL     = "https://data.sfgov.org"
	defaultDatasetID   = "rqzj-sfat"
	defaultHTTPTimeout = 10 * time.Second
	appTokenHeader     = "X-App-Token"
)

// SocrataDataset queries the San Francisco Mobile Food Facility Permit
// dataset through the Socrata SODA API.
type SocrataDataset struct {
	baseURL    string
	datasetID  string
	appToken   string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
	metrics    *observability.Metrics
}

// NewSocrataDataset creates a dataset client. A nil cache or a zero cacheTTL disables caching.
func NewSocrataDataset(baseURL, datasetID, appToken string, cache providers.CacheProvider, cacheTTL time.Duration) *SocrataDataset {
	return NewSocrataDatasetWithClient(baseURL, datasetID, appToken, cache, cacheTTL, nil)
}

// NewSocrataDatasetWithClient allows overriding the HTTP client (used for tests).
func NewSocrataDatasetWithClient(baseURL, datasetID, appToken string, cache providers.CacheProvider, cacheTTL time.Duration, httpClient *http.Client) *SocrataDataset {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(datasetID) == "" {
		datasetID = defaultDatasetID
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &SocrataDataset{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		datasetID:  datasetID,
		appToken:   appToken,
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// SetMetrics enables provider latency and cache metrics
func (d *SocrataDataset) SetMetrics(metrics *observability.Metrics) {
	d.metrics = metrics
}

// Query returns every permit within radiusMeters of center in provider order.
func (d *SocrataDataset) Query(ctx context.Context, center entities.Coordinate, radiusMeters int) ([]entities.VendorRecord, error) {
	cacheKey := fmt.Sprintf("dataset:v1:%s:%.5f,%.5f:%d", d.datasetID, center.Latitude, center.Longitude, radiusMeters)
	if records, ok := d.cached(ctx, cacheKey); ok {
		return records, nil
	}

	ctx, span := observability.StartSpan(ctx, "dataset.query")
	defer span.End()

	start := time.Now()
	raw, err := d.fetch(ctx, center, radiusMeters)
	observability.RecordProviderCall(ctx, d.metrics, "socrata", err, time.Since(start))
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	records := make([]entities.VendorRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, toVendorRecord(r))
	}

	if d.cache != nil && d.cacheTTL > 0 {
		if payload, err := json.Marshal(records); err == nil {
			if err := d.cache.Set(ctx, cacheKey, payload, d.cacheTTL); err != nil {
				observability.LoggerFromContext(ctx).Debug().Err(err).Msg("dataset cache write failed")
			}
		}
	}
	return records, nil
}

func (d *SocrataDataset) cached(ctx context.Context, key string) ([]entities.VendorRecord, bool) {
	if d.cache == nil || d.cacheTTL <= 0 {
		return nil, false
	}
	payload, err := d.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx, d.metrics, "dataset")
		return nil, false
	}
	var records []entities.VendorRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		observability.RecordCacheMiss(ctx, d.metrics, "dataset")
		return nil, false
	}
	observability.RecordCacheHit(ctx, d.metrics, "dataset")
	if records == nil {
		records = []entities.VendorRecord{}
	}
	return records, true
}

func (d *SocrataDataset) fetch(ctx context.Context, center entities.Coordinate, radiusMeters int) ([]rawRecord, error) {
	params := url.Values{}
	params.Set("$where", withinCircle(center, radiusMeters))
	reqURL := fmt.Sprintf("%s/resource/%s.json?%s", d.baseURL, d.datasetID, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build dataset request", err)
	}
	req.Header.Set("Accept", "application/json")
	if d.appToken != "" {
		req.Header.Set(appTokenHeader, d.appToken)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("dataset request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("dataset returned status %d", resp.StatusCode), nil)
	}

	var raw []rawRecord
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperrors.NewExternalError("failed to decode dataset response", err)
	}
	return raw, nil
}

// withinCircle builds the SoQL filter with plain decimal literals; SoQL does
// not accept exponent notation.
func withinCircle(center entities.Coordinate, radiusMeters int) string {
	return "within_circle(location," +
		strconv.FormatFloat(center.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(center.Longitude, 'f', -1, 64) + "," +
		strconv.Itoa(radiusMeters) + ")"
}
