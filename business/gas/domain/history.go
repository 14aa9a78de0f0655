package domain

import "sync"

// DefaultHistoryCapacity is the number of observations kept for trend analysis.
const DefaultHistoryCapacity = 100

// PriceHistory is a bounded, time-ordered buffer of observations.
// Once full, appending evicts the oldest entry.
type PriceHistory struct {
	mu       sync.RWMutex
	capacity int
	items    []Observation
}

// NewPriceHistory creates a history holding at most capacity observations.
// A non-positive capacity falls back to DefaultHistoryCapacity.
func NewPriceHistory(capacity int) *PriceHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &PriceHistory{
		capacity: capacity,
		items:    make([]Observation, 0, capacity),
	}
}

// Append adds obs as the most recent observation.
func (h *PriceHistory) Append(obs Observation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == h.capacity {
		copy(h.items, h.items[1:])
		h.items = h.items[:len(h.items)-1]
	}
	h.items = append(h.items, obs)
}

// Latest returns the most recent observation.
func (h *PriceHistory) Latest() (Observation, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.items) == 0 {
		return Observation{}, false
	}
	return h.items[len(h.items)-1], true
}

// Previous returns the second most recent observation.
func (h *PriceHistory) Previous() (Observation, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.items) < 2 {
		return Observation{}, false
	}
	return h.items[len(h.items)-2], true
}

// Len returns the number of stored observations.
func (h *PriceHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Capacity returns the maximum number of observations kept.
func (h *PriceHistory) Capacity() int {
	return h.capacity
}

// Snapshot returns a copy of the stored observations, oldest first.
func (h *PriceHistory) Snapshot() []Observation {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Observation, len(h.items))
	copy(out, h.items)
	return out
}

// lastTwo returns the latest observations under a single lock so trend
// analysis sees a consistent pair.
func (h *PriceHistory) lastTwo() (n int, latest, previous Observation) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n = len(h.items)
	if n > 0 {
		latest = h.items[n-1]
	}
	if n > 1 {
		previous = h.items[n-2]
	}
	return n, latest, previous
}
