package adventure

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/hpungsan/intake/internal/errors"
)

func newTestWorld(seed uint64) *World {
	return NewWorld(rand.New(rand.NewPCG(seed, seed+1)), time.Unix(1700000000, 0))
}

func TestNewWorld(t *testing.T) {
	w := newTestWorld(1)
	s := w.State()
	if s.Player.Name != "Wanderer" || s.Player.HP != 100 {
		t.Errorf("player = %+v", s.Player)
	}
	if len(s.Inventory) != 3 {
		t.Errorf("expected 3 starting items, got %d", len(s.Inventory))
	}
	if s.Location.Name != "The Whispering Gravepath" {
		t.Errorf("location = %q", s.Location.Name)
	}
	sheet := w.Sheet()
	for _, want := range []string{"Fear: 0 / 100", "Status Effects: None"} {
		if !strings.Contains(sheet, want) {
			t.Errorf("sheet missing %q:\n%s", want, sheet)
		}
	}
}

func TestRoll_Rules(t *testing.T) {
	w := newTestWorld(7)
	for i := 0; i < 500; i++ {
		before := w.State().Player
		r := w.Roll(20)

		if r.Value < 1 || r.Value > 20 {
			t.Fatalf("roll %d out of range", r.Value)
		}
		switch {
		case r.Value <= 5:
			if r.FearDelta < 0 || r.FearDelta > 7 {
				t.Errorf("low roll %d: fear delta %d", r.Value, r.FearDelta)
			}
		case r.Value >= 18:
			if r.FearDelta > 0 || r.FearDelta < -5 {
				t.Errorf("high roll %d: fear delta %d", r.Value, r.FearDelta)
			}
		default:
			if r.FearDelta != 0 {
				t.Errorf("middle roll %d: fear delta %d", r.Value, r.FearDelta)
			}
		}
		if r.Fear >= 70 && before.HP > 0 && r.HPDelta >= 0 {
			t.Errorf("fear %d should cost hp, delta %d", r.Fear, r.HPDelta)
		}
		if r.Fear < 70 && r.HPDelta != 0 {
			t.Errorf("fear %d should not cost hp, delta %d", r.Fear, r.HPDelta)
		}
		if before.Fear+r.FearDelta != r.Fear {
			t.Errorf("fear %d + %d != %d", before.Fear, r.FearDelta, r.Fear)
		}
		if before.HP+r.HPDelta != r.HP {
			t.Errorf("hp %d + %d != %d", before.HP, r.HPDelta, r.HP)
		}
	}
}

func TestRoll_DefaultSides(t *testing.T) {
	w := newTestWorld(3)
	if got := w.Roll(0).Sides; got != 20 {
		t.Errorf("default sides = %d, want 20", got)
	}
	if got := w.Roll(6).Sides; got != 6 {
		t.Errorf("sides = %d, want 6", got)
	}
}

func TestWorld_BoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := newTestWorld(rapid.Uint64().Draw(t, "seed"))
		steps := rapid.SliceOfN(rapid.IntRange(0, 1), 1, 300).Draw(t, "steps")
		for _, s := range steps {
			if s == 0 {
				w.Roll(20)
			} else {
				w.Event()
			}
			p := w.State().Player
			if p.Fear < 0 || p.Fear > 100 {
				t.Fatalf("fear out of bounds: %d", p.Fear)
			}
			if p.HP < 0 || p.HP > p.MaxHP {
				t.Fatalf("hp out of bounds: %d", p.HP)
			}
			terrified := false
			for _, st := range p.Status {
				terrified = terrified || st == "terrified"
			}
			if terrified != (p.Fear >= 70) {
				t.Fatalf("terrified=%v with fear %d", terrified, p.Fear)
			}
		}
	})
}

func TestInventory_TakeDrop(t *testing.T) {
	w := newTestWorld(1)

	msg, err := w.Take("  Bone   Key ")
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if msg != "Bone Key added to your cursed inventory." {
		t.Errorf("take message = %q", msg)
	}
	if !strings.Contains(w.Inventory(), "- Bone Key: ") {
		t.Errorf("inventory missing Bone Key:\n%s", w.Inventory())
	}

	if _, err := w.Take("   "); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank item: expected ErrInvalidRequest, got %v", err)
	}

	msg, ok := w.Drop("rusty dagger")
	if !ok || msg != "You discard Rusty Dagger. The darkness seems displeased." {
		t.Errorf("drop = %q, %v", msg, ok)
	}

	msg, ok = w.Drop("rusty dagger")
	if ok || msg != "rusty dagger is not in your inventory." {
		t.Errorf("second drop = %q, %v", msg, ok)
	}

	for _, it := range w.State().Inventory {
		_, _ = w.Drop(it.Item)
	}
	if !strings.HasPrefix(w.Inventory(), "Your bag is empty.") {
		t.Errorf("expected empty bag, got %q", w.Inventory())
	}
}

func TestEvent_ChanceRisesWithFear(t *testing.T) {
	calm, scared := 0, 0
	for seed := uint64(0); seed < 400; seed++ {
		w := newTestWorld(seed)
		if _, ok := w.Event(); ok {
			calm++
		}
		w = newTestWorld(seed)
		w.state.Player.Fear = 100
		if _, ok := w.Event(); ok {
			scared++
			if got := w.State().Player.Fear; got != 100 {
				t.Errorf("fear after event = %d, want 100", got)
			}
		}
	}
	if scared <= calm {
		t.Errorf("expected more events at full fear: scared %d, calm %d", scared, calm)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "s1.json")

	w := newTestWorld(1)
	_, _ = w.Take("Bone Key")
	w.MoveTo("The Drowned Chapel", "Water drips upward.")
	for i := 0; i < 20; i++ {
		w.Roll(20)
	}
	if err := w.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := newTestWorld(2)
	if err := other.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(w.State(), other.State()) {
		t.Errorf("loaded state differs:\n got %+v\nwant %+v", other.State(), w.State())
	}

	err := other.Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing save: expected ErrNotFound, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := other.Load(bad); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad save: expected ErrInvalidRequest, got %v", err)
	}
	if !reflect.DeepEqual(w.State(), other.State()) {
		t.Error("failed load must not change state")
	}
}
