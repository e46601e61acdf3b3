package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
	"github.com/zatekoja/foodtruckfinder/internal/domain/providers"
)

// MemoryEventBus is a single-process EventBus used when Redis is disabled
type MemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.MapCommand]struct{}
	closed      bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{
		subscribers: make(map[string]map[chan *entities.MapCommand]struct{}),
	}
}

// Publish delivers command to the current subscribers of channel without blocking
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, command *entities.MapCommand) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- command:
		default:
			log.Warn().Str("channel", channel).Str("command_id", command.ID).Msg("subscriber channel full, dropping map command")
		}
	}
	return nil
}

// Subscribe subscribes to commands on a channel until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MapCommand, error) {
	commands := make(chan *entities.MapCommand, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(commands)
		return commands, nil
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.MapCommand]struct{})
	}
	b.subscribers[channel][commands] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, commands)
	}()

	return commands, nil
}

func (b *MemoryEventBus) remove(channel string, commands chan *entities.MapCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[commands]; !ok {
		return
	}
	delete(subscribers, commands)
	close(commands)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe drops every subscriber of channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close drops every subscriber
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	b.closed = true
	return nil
}
