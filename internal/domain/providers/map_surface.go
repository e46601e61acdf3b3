package providers

import (
	"context"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// MapSurface renders a session's map. Implementations deliver the commands
// to wherever the map is drawn.
type MapSurface interface {
	SetViewport(ctx context.Context, seq uint64, viewport entities.Viewport) error
	RenderMarkers(ctx context.Context, seq uint64, markers []entities.Marker) error
	RenderCircle(ctx context.Context, seq uint64, circle entities.Circle) error
}
