package mastery

import (
	"math"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRecall_Steps(t *testing.T) {
	tr := NewTracker(Recall)

	if got := tr.Get("loops"); got != 0 {
		t.Errorf("initial = %v, want 0", got)
	}
	steps := []struct {
		correct bool
		want    float64
	}{{true, 0.2}, {true, 0.4}, {false, 0.3}}
	for i, s := range steps {
		if got := tr.Feedback("loops", s.correct); !near(got, s.want) {
			t.Errorf("step %d = %v, want %v", i, got, s.want)
		}
	}

	for i := 0; i < 10; i++ {
		tr.Feedback("loops", true)
	}
	if got := tr.Get("loops"); got != 1 {
		t.Errorf("after successes = %v, want 1", got)
	}

	for i := 0; i < 20; i++ {
		tr.Feedback("loops", false)
	}
	if got := tr.Get("loops"); got != 0 {
		t.Errorf("after failures = %v, want 0", got)
	}
}

func TestTally_UnboundedAbove(t *testing.T) {
	tr := NewTracker(Tally)
	for i := 0; i < 1000; i++ {
		tr.Feedback("walk", true)
	}
	if got := tr.Get("walk"); got != 1000 {
		t.Errorf("walk = %v, want 1000", got)
	}

	// floored at zero
	if got := tr.Feedback("sleep", false); got != 0 {
		t.Errorf("sleep = %v, want 0", got)
	}
}

func TestSnapshot_Sorted(t *testing.T) {
	tr := NewTracker(Recall)
	tr.Feedback("variables", true)
	tr.Feedback("functions", true)
	tr.Feedback("loops", false)

	snap := tr.Snapshot()
	ids := make([]string, len(snap))
	for i, s := range snap {
		ids[i] = s.ID
	}
	if want := []string{"functions", "loops", "variables"}; !slices.Equal(ids, want) {
		t.Errorf("snapshot ids = %v, want %v", ids, want)
	}
}

func TestBounds_Clamp(t *testing.T) {
	tests := []struct{ in, want float64 }{{3, 1}, {-3, 0}, {0.5, 0.5}}
	for _, tt := range tests {
		if got := Recall.Clamp(tt.in); got != tt.want {
			t.Errorf("Recall.Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !math.IsInf(Tally.Clamp(math.Inf(1)), 1) {
		t.Error("Tally should not cap +Inf")
	}
}

func TestProperty_FeedbackStaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := Bounds{
			Lower: rapid.Float64Range(-10, 0).Draw(t, "lower"),
			Upper: rapid.Float64Range(0, 10).Draw(t, "upper"),
			Up:    rapid.Float64Range(0, 3).Draw(t, "up"),
			Down:  rapid.Float64Range(0, 3).Draw(t, "down"),
		}
		tr := NewTracker(b)
		events := rapid.SliceOf(rapid.Bool()).Draw(t, "events")
		for _, e := range events {
			v := tr.Feedback("x", e)
			if v < b.Lower-1e-9 || v > b.Upper+1e-9 {
				t.Fatalf("value %v left bounds [%v, %v]", v, b.Lower, b.Upper)
			}
		}
	})
}
