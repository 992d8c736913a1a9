package offline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/shahid-dev/restopos/internal/api"
)

// OrderSender is the slice of the API client the sync engine needs.
type OrderSender interface {
	CreateOrder(ctx context.Context, req api.OrderRequest, idempotencyKey string) (*api.Order, error)
	UpdateOrder(ctx context.Context, id string, req api.OrderRequest) (*api.Order, error)
}

// Engine replays the pending-orders queue once connectivity returns. Entries
// go out sequentially in insertion order because the server may apply
// ordering-sensitive effects such as inventory counters.
type Engine struct {
	queue  *Queue
	sender OrderSender
	sfg    singleflight.Group
}

func NewEngine(queue *Queue, sender OrderSender) *Engine {
	return &Engine{queue: queue, sender: sender}
}

// Flush sends every queued order. A flush that hits a failing entry stops
// there and retains the failed suffix, so no order is silently dropped and
// relative order is preserved for the next attempt. Concurrent calls share a
// single pass; a reconnect event arriving mid-flush does not start a second
// one. Returns the number of entries accepted by the server.
func (e *Engine) Flush(ctx context.Context) (int, error) {
	v, err, _ := e.sfg.Do("flush", func() (interface{}, error) {
		return e.flush(ctx)
	})

	sent, _ := v.(int)
	return sent, err
}

func (e *Engine) flush(ctx context.Context) (int, error) {
	entries := e.queue.Pending()
	if len(entries) == 0 {
		return 0, nil
	}

	log.Info().Int("queue_len", len(entries)).Msg("Replaying pending orders")

	// Sent ids are removed by id against the live queue rather than by
	// writing back this snapshot, so an order enqueued mid-flush survives.
	sent := make([]string, 0, len(entries))
	for _, entry := range entries {
		order, err := e.send(ctx, entry)
		if err != nil {
			log.Warn().Err(err).Str("pending_id", entry.ID).Msg("Failed to replay pending order, keeping remainder queued")
			if saveErr := e.queue.Remove(sent); saveErr != nil {
				log.Error().Err(saveErr).Msg("Failed to remove synced pending orders")
			}
			return len(sent), fmt.Errorf("offline: failed to replay pending order %s: %w", entry.ID, err)
		}
		sent = append(sent, entry.ID)
		log.Info().Str("pending_id", entry.ID).Str("order_id", order.OrderID).Msg("Pending order synced")
	}

	if err := e.queue.Remove(sent); err != nil {
		return len(sent), err
	}
	return len(sent), nil
}

// send replays one entry: updates queued in update mode go out as an update
// of the original order, everything else as an idempotent creation.
func (e *Engine) send(ctx context.Context, entry PendingOrder) (*api.Order, error) {
	if entry.UpdateOrderID != "" {
		return e.sender.UpdateOrder(ctx, entry.UpdateOrderID, entry.Request)
	}
	return e.sender.CreateOrder(ctx, entry.Request, entry.ID)
}

// OnTransition is the connectivity subscriber hook: a transition to online
// triggers exactly one flush, on its own goroutine.
func (e *Engine) OnTransition(online bool) {
	if !online {
		return
	}
	go func() {
		if _, err := e.Flush(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Sync flush incomplete")
		}
	}()
}
