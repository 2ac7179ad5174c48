// Package live fans game events out to connected viewers.
package live

import (
	"context"
	"sync"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bus carries game events between the API and live viewers. db.RedisClient
// implements it across processes and Hub within one.
type Bus interface {
	Publish(ctx context.Context, event models.GameEvent) error
	Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan models.GameEvent, error)
}

const subscriberBuffer = 16

type subscriber struct {
	ch chan models.GameEvent
}

// Hub is an in-process Bus. Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*subscriber]struct{}
	log  zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[uuid.UUID]map[*subscriber]struct{}),
		log:  log.With().Str("component", "hub").Logger(),
	}
}

// Publish never blocks; a full subscriber misses the event.
func (h *Hub) Publish(_ context.Context, event models.GameEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[event.GameID] {
		select {
		case sub.ch <- event:
		default:
			h.log.Warn().Str("game_id", event.GameID.String()).Str("type", string(event.Type)).Msg("subscriber full, dropping event")
		}
	}
	return nil
}

// Subscribe registers a listener for gameID. The channel is closed once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan models.GameEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &subscriber{ch: make(chan models.GameEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[*subscriber]struct{})
	}
	h.subs[gameID][sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[gameID], sub)
		if len(h.subs[gameID]) == 0 {
			delete(h.subs, gameID)
		}
		close(sub.ch)
		h.mu.Unlock()
	}()

	return sub.ch, nil
}

// Subscribers reports how many listeners a game has.
func (h *Hub) Subscribers(gameID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}
