package domain

import "testing"

func obsWithPropose(p float64) Observation {
	return Observation{Safe: p * 0.8, Propose: p, Fast: p * 1.2, GasUsedRatio: []float64{0.6}}
}

func TestPriceHistory_Empty(t *testing.T) {
	h := NewPriceHistory(0)

	if h.Capacity() != DefaultHistoryCapacity {
		t.Errorf("Capacity() = %d, want %d", h.Capacity(), DefaultHistoryCapacity)
	}
	if _, ok := h.Latest(); ok {
		t.Error("Latest() on empty history should report false")
	}
	if _, ok := h.Previous(); ok {
		t.Error("Previous() on empty history should report false")
	}
}

func TestPriceHistory_LatestAndPrevious(t *testing.T) {
	h := NewPriceHistory(DefaultHistoryCapacity)
	h.Append(obsWithPropose(10))

	if _, ok := h.Previous(); ok {
		t.Error("Previous() with one entry should report false")
	}

	h.Append(obsWithPropose(20))

	latest, ok := h.Latest()
	if !ok || latest.Propose != 20 {
		t.Errorf("Latest() = %v, %v; want propose 20", latest.Propose, ok)
	}
	prev, ok := h.Previous()
	if !ok || prev.Propose != 10 {
		t.Errorf("Previous() = %v, %v; want propose 10", prev.Propose, ok)
	}
}

func TestPriceHistory_EvictsOldestFirst(t *testing.T) {
	h := NewPriceHistory(DefaultHistoryCapacity)

	for i := 1; i <= 101; i++ {
		h.Append(obsWithPropose(float64(i)))
	}

	if h.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", h.Len())
	}

	snap := h.Snapshot()
	if snap[0].Propose != 2 {
		t.Errorf("oldest propose = %v, want 2 (first entry evicted)", snap[0].Propose)
	}
	if snap[len(snap)-1].Propose != 101 {
		t.Errorf("newest propose = %v, want 101", snap[len(snap)-1].Propose)
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Propose <= snap[i-1].Propose {
			t.Fatalf("snapshot out of order at %d: %v then %v", i, snap[i-1].Propose, snap[i].Propose)
		}
	}
}

func TestPriceHistory_SnapshotIsCopy(t *testing.T) {
	h := NewPriceHistory(3)
	h.Append(obsWithPropose(1))

	snap := h.Snapshot()
	snap[0].Propose = 999

	latest, _ := h.Latest()
	if latest.Propose != 1 {
		t.Errorf("mutating the snapshot changed history: %v", latest.Propose)
	}
}

func TestObservation_CurrentRatio(t *testing.T) {
	if got := (Observation{}).CurrentRatio(); got != 0 {
		t.Errorf("empty ratios: got %v, want 0", got)
	}
	if got := (Observation{GasUsedRatio: []float64{0.42, 0.9}}).CurrentRatio(); got != 0.42 {
		t.Errorf("got %v, want first element 0.42", got)
	}
}
