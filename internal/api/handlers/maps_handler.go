package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

const (
	staticMapURL          = "https://maps.googleapis.com/maps/api/staticmap"
	defaultStaticMapSize  = "640x360"
	defaultStaticMapScale = "1"
	staticMapCacheTTL     = 7 * 24 * time.Hour
	// circlePathPoints is the number of vertices used to draw the radius overlay
	circlePathPoints      = 48
	earthRadiusMeters     = 6371000.0
)

// MapsHandler renders a session's current view as a static map image.
type MapsHandler struct {
	apiKey   string
	sessions SessionStore
	cache    providers.CacheProvider
	client   *http.Client
	baseURL  string
}

// NewMapsHandler creates a new maps handler.
func NewMapsHandler(apiKey string, sessions SessionStore, cache providers.CacheProvider) *MapsHandler {
	return NewMapsHandlerWithOptions(apiKey, sessions, cache, staticMapURL, nil)
}

// NewMapsHandlerWithOptions allows overriding base URL and HTTP client (used for tests).
func NewMapsHandlerWithOptions(apiKey string, sessions SessionStore, cache providers.CacheProvider, baseURL string, client *http.Client) *MapsHandler {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = staticMapURL
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &MapsHandler{
		apiKey:   apiKey,
		sessions: sessions,
		cache:    cache,
		client:   client,
		baseURL:  baseURL,
	}
}

// GetStaticMap handles GET /api/maps/static?session=...
// It proxies Google Static Maps and caches responses.
func (h *MapsHandler) GetStaticMap(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" {
		respondWithError(w, http.StatusBadRequest, "maps api key not configured")
		return
	}

	query := r.URL.Query()
	sessionID := strings.TrimSpace(query.Get("session"))
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session parameter is required")
		return
	}
	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	size := strings.TrimSpace(query.Get("size"))
	if size == "" {
		size = defaultStaticMapSize
	}
	scale := strings.TrimSpace(query.Get("scale"))
	if scale == "" {
		scale = defaultStaticMapScale
	}

	values := staticMapValues(session.View.View(), size, scale)
	cacheKey := "maps:static:" + hashString(values.Encode())
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil && len(cached) > 0 {
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	values.Set("key", h.apiKey)
	mapURL := fmt.Sprintf("%s?%s", h.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, mapURL, nil)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to build map request")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to fetch map image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respondWithError(w, http.StatusBadGateway, "map provider returned an error")
		return
	}

	imageBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to read map image")
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, imageBytes, staticMapCacheTTL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(imageBytes)
}

// staticMapValues encodes a view as Static Maps parameters, without the key
func staticMapValues(view entities.MapView, size, scale string) url.Values {
	values := url.Values{}
	values.Set("center", view.Viewport.Center.String())
	values.Set("zoom", strconv.Itoa(view.Viewport.Zoom))
	values.Set("size", size)
	values.Set("scale", scale)

	var vendors []string
	for _, marker := range view.Markers {
		switch marker.Kind {
		case entities.MarkerKindCurrentLocation:
			values.Add("markers", "color:green|label:X|"+marker.Position.String())
		default:
			vendors = append(vendors, marker.Position.String())
		}
	}
	if len(vendors) > 0 {
		values.Add("markers", "color:red|"+strings.Join(vendors, "|"))
	}

	values.Set("path", circlePath(view.Circle))
	return values
}

// circlePath approximates the radius overlay as a closed polygon
func circlePath(circle entities.Circle) string {
	color := "0xFF0000"
	if circle.Style.FillColor == entities.CircleStyleCoverage.FillColor {
		color = "0x0000FF"
	}
	weight := 0
	if circle.Style.Stroke {
		weight = 2
	}

	parts := []string{
		fmt.Sprintf("color:%sFF", color),
		fmt.Sprintf("weight:%d", weight),
		fmt.Sprintf("fillcolor:%s33", color),
	}

	lat := circle.Center.Latitude * math.Pi / 180
	lng := circle.Center.Longitude * math.Pi / 180
	d := float64(circle.RadiusMeters) / earthRadiusMeters
	for i := 0; i <= circlePathPoints; i++ {
		bearing := 2 * math.Pi * float64(i) / circlePathPoints
		pLat := math.Asin(math.Sin(lat)*math.Cos(d) + math.Cos(lat)*math.Sin(d)*math.Cos(bearing))
		pLng := lng + math.Atan2(math.Sin(bearing)*math.Sin(d)*math.Cos(lat), math.Cos(d)-math.Sin(lat)*math.Sin(pLat))
		parts = append(parts, fmt.Sprintf("%.5f,%.5f", pLat*180/math.Pi, pLng*180/math.Pi))
	}
	return strings.Join(parts, "|")
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
