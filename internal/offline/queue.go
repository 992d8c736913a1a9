package offline

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shahid-dev/restopos/internal/api"
	"github.com/shahid-dev/restopos/internal/storage"
)

const storageKey = "pendingOrders"

// PendingOrder is a serialized order submission waiting for connectivity.
// ID doubles as the idempotency key sent on replay, so a flush interrupted
// after the server accepted an entry cannot create a duplicate order. A
// non-empty UpdateOrderID marks a queued update-mode submission, replayed as
// an update-in-place of that order rather than a creation.
type PendingOrder struct {
	ID            string           `json:"id"`
	Request       api.OrderRequest `json:"request"`
	UpdateOrderID string           `json:"updateOrderId,omitempty"`
	QueuedAt      time.Time        `json:"queuedAt"`
}

// Queue is the durable pending-orders queue. The checkout orchestrator
// appends to it while offline; the sync engine is the only component that
// drains it.
type Queue struct {
	mu    sync.Mutex
	store storage.Store
}

func NewQueue(st storage.Store) *Queue {
	return &Queue{store: st}
}

// Enqueue appends the request to the durable queue and returns immediately;
// no network call is attempted. A non-empty updateOrderID queues the request
// as an update of that order.
func (q *Queue) Enqueue(req api.OrderRequest, updateOrderID string) (PendingOrder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id, err := uuid.NewV4()
	if err != nil {
		return PendingOrder{}, fmt.Errorf("offline: failed to generate order key: %w", err)
	}

	entry := PendingOrder{
		ID:            id.String(),
		Request:       req,
		UpdateOrderID: updateOrderID,
		QueuedAt:      time.Now().UTC(),
	}

	entries := q.load()
	entries = append(entries, entry)
	if err := q.save(entries); err != nil {
		return PendingOrder{}, err
	}

	log.Info().Str("pending_id", entry.ID).Int("queue_len", len(entries)).Msg("Order queued for later sync")
	return entry, nil
}

// Pending returns the queued entries in insertion order.
func (q *Queue) Pending() []PendingOrder {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.load())
}

// Remove deletes the entries with the given ids. It works against the
// current persisted state under the queue lock, so entries enqueued while
// the caller was draining a snapshot stay queued.
func (q *Queue) Remove(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	entries := q.load()
	kept := make([]PendingOrder, 0, len(entries))
	for _, entry := range entries {
		if _, ok := drop[entry.ID]; ok {
			continue
		}
		kept = append(kept, entry)
	}
	return q.save(kept)
}

// load reads the persisted queue. Corrupted stored state is treated as an
// empty queue rather than an error.
func (q *Queue) load() []PendingOrder {
	raw, err := q.store.Get(storageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read pending orders, treating as empty")
		}
		return nil
	}

	var entries []PendingOrder
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Warn().Err(err).Msg("Pending orders are corrupted, treating as empty")
		return nil
	}
	return entries
}

func (q *Queue) save(entries []PendingOrder) error {
	if len(entries) == 0 {
		if err := q.store.Delete(storageKey); err != nil {
			return fmt.Errorf("offline: failed to clear pending orders: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("offline: failed to encode pending orders: %w", err)
	}
	if err := q.store.Set(storageKey, raw); err != nil {
		return fmt.Errorf("offline: failed to persist pending orders: %w", err)
	}
	return nil
}
