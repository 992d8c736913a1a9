package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Monitor tracks whether the remote API is reachable. It is event-driven:
// something platform-specific calls Set on transitions, and subscribers are
// notified exactly once per transition, on the calling goroutine.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []func(online bool)
}

func NewMonitor(initial bool) *Monitor {
	return &Monitor{online: initial}
}

// Online reports the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers fn to run on every transition. Registration order is
// preserved when firing.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Set records the new state. Subscribers fire only when the state actually
// changed, never once per call.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if online {
		log.Info().Msg("Connectivity restored")
	} else {
		log.Warn().Msg("Connectivity lost")
	}
	for _, fn := range subs {
		fn(online)
	}
}

// Watch drives the monitor from probe until ctx is done. It is the headless
// stand-in for platform online/offline events; the monitor itself stays
// purely event-driven.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe func(context.Context) bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Set(probe(ctx))
		case <-ctx.Done():
			return
		}
	}
}
