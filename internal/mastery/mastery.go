// Package mastery tracks bounded per-identifier scores adjusted by feedback.
package mastery

import (
	"math"
	"sort"
	"sync"
)

// Bounds declares the domain of a score and its feedback steps.
type Bounds struct {
	Lower float64
	Upper float64
	Up    float64 // added on a positive event
	Down  float64 // subtracted on a negative event
}

// Recall is the tutor's mastery scale: [0,1], +0.2 correct, -0.1 incorrect.
var Recall = Bounds{Lower: 0, Upper: 1, Up: 0.2, Down: 0.1}

// Tally is an unbounded-above counter floored at zero, stepping by one.
var Tally = Bounds{Lower: 0, Upper: math.Inf(1), Up: 1, Down: 1}

// Clamp limits v to [Lower, Upper].
func (b Bounds) Clamp(v float64) float64 {
	return math.Max(b.Lower, math.Min(b.Upper, v))
}

// Apply returns the score after one feedback event.
func (b Bounds) Apply(v float64, positive bool) float64 {
	if positive {
		return b.Clamp(v + b.Up)
	}
	return b.Clamp(v - b.Down)
}

// Score is one identifier's value.
type Score struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// Tracker holds scores keyed by identifier. Unseen identifiers start at Lower.
type Tracker struct {
	mu     sync.Mutex
	bounds Bounds
	scores map[string]float64
}

// NewTracker returns an empty tracker with the given bounds.
func NewTracker(b Bounds) *Tracker {
	return &Tracker{bounds: b, scores: make(map[string]float64)}
}

// Bounds returns the tracker's bounds.
func (t *Tracker) Bounds() Bounds { return t.bounds }

// Feedback applies one event and returns the new value.
func (t *Tracker) Feedback(id string, positive bool) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.bounds.Apply(t.get(id), positive)
	// values stay on a 1e-9 grid so repeated steps land exactly on the bounds
	v = t.bounds.Clamp(math.Round(v*1e9) / 1e9)
	t.scores[id] = v
	return v
}

// Get returns the current value for id.
func (t *Tracker) Get(id string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(id)
}

func (t *Tracker) get(id string) float64 {
	if v, ok := t.scores[id]; ok {
		return v
	}
	return t.bounds.Lower
}

// Snapshot returns every tracked score sorted by identifier.
func (t *Tracker) Snapshot() []Score {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Score, 0, len(t.scores))
	for id, v := range t.scores {
		out = append(out, Score{ID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
