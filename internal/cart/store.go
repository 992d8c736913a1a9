package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shahid-dev/restopos/internal/storage"
)

// storageKey is the key the cart has always lived under client-side. Kept for
// compatibility with state written by earlier terminal versions.
const storageKey = "cartItemss"

// Store holds the active order-entry cart. Every mutation re-persists the
// full cart synchronously before returning, so durable storage always
// reflects the last successful in-memory mutation even under abrupt
// termination. A mutation whose persist fails is rolled back in memory.
type Store struct {
	mu    sync.Mutex
	store storage.Store
	lines []Line
}

// NewStore loads any previously persisted cart from st. Corrupted stored
// state is treated as an empty cart rather than an error.
func NewStore(st storage.Store) *Store {
	s := &Store{store: st}

	raw, err := st.Get(storageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read persisted cart, starting empty")
		}
		return s
	}

	if err := json.Unmarshal(raw, &s.lines); err != nil {
		log.Warn().Err(err).Msg("Persisted cart is corrupted, starting empty")
		s.lines = nil
	}
	return s
}

// Lines returns the cart contents in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Add merges into an existing line with the same product and variant, or
// appends a new line with quantity 1, capturing the product's current price.
func (s *Store) Add(p ProductInfo, v Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].matches(p.ID, v) {
			s.lines[i].Quantity++
			if err := s.persist(); err != nil {
				s.lines[i].Quantity--
				return err
			}
			return nil
		}
	}

	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
		Variant:   v,
		ImageRef:  p.Pic,
	})
	if err := s.persist(); err != nil {
		s.lines = s.lines[:len(s.lines)-1]
		return err
	}
	return nil
}

// Remove deletes the matching line entirely, regardless of quantity. A line
// that is not present is left alone.
func (s *Store) Remove(productID string, v Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]Line, 0, len(s.lines))
	for _, l := range s.lines {
		if !l.matches(productID, v) {
			kept = append(kept, l)
		}
	}

	prev := s.lines
	s.lines = kept
	if err := s.persist(); err != nil {
		s.lines = prev
		return err
	}
	return nil
}

// AdjustQuantity changes the matching line's quantity by delta. A result
// below 1 leaves the line unchanged; removal is always an explicit action.
func (s *Store) AdjustQuantity(productID string, v Variant, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if !s.lines[i].matches(productID, v) {
			continue
		}
		next := s.lines[i].Quantity + delta
		if next < 1 {
			return nil
		}
		prev := s.lines[i].Quantity
		s.lines[i].Quantity = next
		if err := s.persist(); err != nil {
			s.lines[i].Quantity = prev
			return err
		}
		return nil
	}
	return nil
}

// Replace swaps the whole cart contents, used when loading an existing order
// for update-mode checkout.
func (s *Store) Replace(lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Line, len(lines))
	copy(next, lines)

	prev := s.lines
	s.lines = next
	if err := s.persist(); err != nil {
		s.lines = prev
		return err
	}
	return nil
}

// Clear empties the cart, used after a successful submission.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(storageKey); err != nil {
		return fmt.Errorf("cart: failed to clear persisted cart: %w", err)
	}
	s.lines = nil
	return nil
}

// Totals computes subtotal, clamped discount and total for the current
// contents. The discount itself belongs to the order draft, not the cart.
func (s *Store) Totals(discount float64) Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeTotals(s.lines, discount)
}

func (s *Store) persist() error {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("cart: failed to encode cart: %w", err)
	}
	if err := s.store.Set(storageKey, raw); err != nil {
		return fmt.Errorf("cart: failed to persist cart: %w", err)
	}
	return nil
}
