package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

// EventBusMapSurface renders a session's map by publishing commands on the
// session channel, where stream clients pick them up in order.
type EventBusMapSurface struct {
	bus       providers.EventBus
	sessionID string
	channel   string
}

// NewEventBusMapSurface creates the surface for one session
func NewEventBusMapSurface(bus providers.EventBus, sessionID string) *EventBusMapSurface {
	return &EventBusMapSurface{
		bus:       bus,
		sessionID: sessionID,
		channel:   providers.GetSessionChannel(sessionID),
	}
}

// SetViewport centers the map
func (s *EventBusMapSurface) SetViewport(ctx context.Context, seq uint64, viewport entities.Viewport) error {
	return s.publish(ctx, seq, entities.MapCommandSetViewport, func(cmd *entities.MapCommand) {
		cmd.Viewport = &viewport
	})
}

// RenderMarkers replaces every marker on the map
func (s *EventBusMapSurface) RenderMarkers(ctx context.Context, seq uint64, markers []entities.Marker) error {
	return s.publish(ctx, seq, entities.MapCommandRenderMarkers, func(cmd *entities.MapCommand) {
		cmd.Markers = markers
	})
}

// RenderCircle replaces the radius overlay
func (s *EventBusMapSurface) RenderCircle(ctx context.Context, seq uint64, circle entities.Circle) error {
	return s.publish(ctx, seq, entities.MapCommandRenderCircle, func(cmd *entities.MapCommand) {
		cmd.Circle = &circle
	})
}

func (s *EventBusMapSurface) publish(ctx context.Context, seq uint64, typ entities.MapCommandType, fill func(*entities.MapCommand)) error {
	cmd := &entities.MapCommand{
		ID:        uuid.NewString(),
		SessionID: s.sessionID,
		Seq:       seq,
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
	fill(cmd)
	return s.bus.Publish(ctx, s.channel, cmd)
}
