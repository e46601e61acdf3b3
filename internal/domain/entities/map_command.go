package entities

import "time"

// MapCommandType identifies an instruction for the browser map surface
type MapCommandType string

const (
	MapCommandSetViewport   MapCommandType = "set_viewport"
	MapCommandRenderMarkers MapCommandType = "render_markers"
	MapCommandRenderCircle  MapCommandType = "render_circle"
)

// DefaultZoom is the zoom level used whenever the viewport is recentered
const DefaultZoom = 13

// MarkerKind distinguishes the user's location from vendor markers
type MarkerKind string

const (
	MarkerKindCurrentLocation MarkerKind = "current_location"
	MarkerKindVendor          MarkerKind = "vendor"
)

// Marker is a single pin on the map
type Marker struct {
	Kind         MarkerKind `json:"kind"`
	Position     Coordinate `json:"position"`
	Title        string     `json:"title"`
	Applicant    string     `json:"applicant,omitempty"`
	FacilityType string     `json:"facility_type,omitempty"`
	FoodItems    string     `json:"food_items,omitempty"`
}

// CircleStyle describes how the radius overlay is drawn
type CircleStyle struct {
	Name      string `json:"name"`
	FillColor string `json:"fill_color"`
	Stroke    bool   `json:"stroke"`
}

var (
	// CircleStyleCoverage is used when at least one vendor is in range
	CircleStyleCoverage = CircleStyle{Name: "coverage", FillColor: "blue", Stroke: true}
	// CircleStyleNoCoverage is used when the radius holds no vendors
	CircleStyleNoCoverage = CircleStyle{Name: "no_coverage", FillColor: "red", Stroke: false}
)

// Viewport is the visible map region
type Viewport struct {
	Center Coordinate `json:"center"`
	Zoom   int        `json:"zoom"`
}

// Circle is the radius overlay around the focus point
type Circle struct {
	Center       Coordinate  `json:"center"`
	RadiusMeters int         `json:"radius_m"`
	Style        CircleStyle `json:"style"`
}

// MapCommand is one instruction delivered to the map surface. Exactly one of
// Viewport, Markers or Circle is set according to Type.
type MapCommand struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Seq       uint64         `json:"seq"`
	Type      MapCommandType `json:"type"`
	Viewport  *Viewport      `json:"viewport,omitempty"`
	Markers   []Marker       `json:"markers,omitempty"`
	Circle    *Circle        `json:"circle,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// MapView is the complete rendered state of a session's map
type MapView struct {
	Viewport Viewport `json:"viewport"`
	Markers  []Marker `json:"markers"`
	Circle   Circle   `json:"circle"`
}
