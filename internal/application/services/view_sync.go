package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

// ViewSync keeps a map surface in step with a controller's snapshots and
// forwards map clicks back to the controller.
type ViewSync struct {
	controller *SearchController
	surface    providers.MapSurface
}

// NewViewSync registers a ViewSync as an observer of controller
func NewViewSync(controller *SearchController, surface providers.MapSurface) *ViewSync {
	v := &ViewSync{
		controller: controller,
		surface:    surface,
	}
	controller.AddObserver(v.Apply)
	return v
}

// Apply renders a snapshot: the viewport only when the focus was just
// adopted, then the marker set, then the radius overlay.
func (v *ViewSync) Apply(ctx context.Context, state *entities.SearchState) {
	view := BuildView(state)
	logger := log.With().Str("session_id", v.controller.SessionID()).Uint64("seq", state.Seq).Logger()

	if state.Recenter {
		if err := v.surface.SetViewport(ctx, state.Seq, view.Viewport); err != nil {
			logger.Warn().Err(err).Msg("failed to set viewport")
		}
	}
	if err := v.surface.RenderMarkers(ctx, state.Seq, view.Markers); err != nil {
		logger.Warn().Err(err).Msg("failed to render markers")
	}
	if err := v.surface.RenderCircle(ctx, state.Seq, view.Circle); err != nil {
		logger.Warn().Err(err).Msg("failed to render radius overlay")
	}
}

// MapClicked forwards a click on the map to the controller
func (v *ViewSync) MapClicked(ctx context.Context, at entities.Coordinate) *entities.SearchState {
	return v.controller.ClickMap(ctx, at)
}

// View returns the view for the controller's latest snapshot
func (v *ViewSync) View() entities.MapView {
	return BuildView(v.controller.State())
}

// BuildView derives the complete map view from a snapshot
func BuildView(state *entities.SearchState) entities.MapView {
	markers := make([]entities.Marker, 0, len(state.Results)+1)
	markers = append(markers, entities.Marker{
		Kind:     entities.MarkerKindCurrentLocation,
		Position: state.Focus,
		Title:    "Your current Location",
	})
	for _, r := range state.Results {
		if r.Position == nil {
			continue
		}
		markers = append(markers, entities.Marker{
			Kind:         entities.MarkerKindVendor,
			Position:     *r.Position,
			Title:        r.Address,
			Applicant:    r.Applicant,
			FacilityType: r.FacilityType,
			FoodItems:    r.FoodItems,
		})
	}

	style := entities.CircleStyleNoCoverage
	if state.HasResults() {
		style = entities.CircleStyleCoverage
	}

	return entities.MapView{
		Viewport: entities.Viewport{Center: state.Focus, Zoom: entities.DefaultZoom},
		Markers:  markers,
		Circle: entities.Circle{
			Center:       state.Focus,
			RadiusMeters: entities.SearchRadiusMeters,
			Style:        style,
		},
	}
}
