// Package adventure holds the game state of the horror text adventure persona.
package adventure

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/mastery"
)

// FearBounds keeps fear on a 0..100 scale.
var FearBounds = mastery.Bounds{Lower: 0, Upper: 100}

// Player is the character sheet.
type Player struct {
	Name   string   `json:"name"`
	HP     int      `json:"hp"`
	MaxHP  int      `json:"max_hp"`
	Fear   int      `json:"fear"`
	Status []string `json:"status"`
}

// Item is one inventory entry.
type Item struct {
	Item        string `json:"item"`
	Description string `json:"description"`
}

// Location is where the player stands.
type Location struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// State is the saved form of a World.
type State struct {
	Player      Player    `json:"player"`
	Inventory   []Item    `json:"inventory"`
	Location    Location  `json:"location"`
	TimeStarted time.Time `json:"time_started"`
}

// RollResult reports a die roll and its consequences.
type RollResult struct {
	Value     int `json:"value"`
	Sides     int `json:"sides"`
	FearDelta int `json:"fear_delta"`
	HPDelta   int `json:"hp_delta"`
	Fear      int `json:"fear"`
	HP        int `json:"hp"`
}

var creepyDescriptions = []string{
	"It feels warm... like it's breathing.",
	"It whispers faintly when touched.",
	"Its shadow doesn't match its shape.",
	"Holding it makes your heartbeat slow unnaturally.",
	"A black ooze seeps from tiny cracks in it.",
}

var horrorEvents = []string{
	"A whisper brushes against your ear: 'Don't turn around.'",
	"Your shadow moves a moment later than you do.",
	"Something small and cold grabs your ankle... then lets go.",
	"You hear distant footsteps, but they match your heartbeat.",
	"Your vision flickers; for a split second, everything turns red.",
}

const (
	statusTerrified = "terrified"
	statusFallen    = "fallen"
	terrorThreshold = 70
)

// World is one player's game. It is not safe for concurrent use.
type World struct {
	state State
	rng   *rand.Rand
}

// NewWorld starts a fresh game. rng drives every random outcome.
func NewWorld(rng *rand.Rand, now time.Time) *World {
	return &World{
		rng: rng,
		state: State{
			Player: Player{Name: "Wanderer", HP: 100, MaxHP: 100, Status: []string{}},
			Inventory: []Item{
				{Item: "Rusty Dagger", Description: "Metal flakes off the blade like dead skin."},
				{Item: "Dim Soulstone", Description: "A faint heartbeat pulses inside."},
				{Item: "Torn Map", Description: "Stains look disturbingly like dried blood."},
			},
			Location: Location{
				Name: "The Whispering Gravepath",
				Description: "A narrow trail lined with crooked gravestones. The soil shifts beneath your feet as if something " +
					"moves just under the surface. Cold mist coils around your legs like grasping hands.",
			},
			TimeStarted: now.UTC(),
		},
	}
}

// State returns a copy of the game state.
func (w *World) State() State {
	s := w.state
	s.Player.Status = append([]string{}, w.state.Player.Status...)
	s.Inventory = append([]Item{}, w.state.Inventory...)
	return s
}

// between returns a uniform int in [lo, hi].
func (w *World) between(lo, hi int) int {
	return lo + w.rng.IntN(hi-lo+1)
}

func (w *World) addFear(delta int) int {
	before := w.state.Player.Fear
	w.state.Player.Fear = int(FearBounds.Clamp(float64(before + delta)))
	return w.state.Player.Fear - before
}

// Roll throws a die with the given number of sides (20 when < 2). Low rolls
// raise fear, high rolls calm it, and high fear drains HP.
func (w *World) Roll(sides int) RollResult {
	if sides < 2 {
		sides = 20
	}
	res := RollResult{Sides: sides, Value: w.between(1, sides)}

	switch {
	case res.Value <= 5:
		res.FearDelta = w.addFear(w.between(3, 7))
	case res.Value >= 18:
		res.FearDelta = w.addFear(-w.between(1, 5))
	}

	if w.state.Player.Fear >= terrorThreshold {
		before := w.state.Player.HP
		w.state.Player.HP = max(0, before-w.between(1, 4))
		res.HPDelta = w.state.Player.HP - before
	}

	w.refreshStatus()
	res.Fear = w.state.Player.Fear
	res.HP = w.state.Player.HP
	return res
}

// refreshStatus derives status effects from fear and HP.
func (w *World) refreshStatus() {
	p := &w.state.Player
	p.Status = setStatus(p.Status, statusTerrified, p.Fear >= terrorThreshold)
	p.Status = setStatus(p.Status, statusFallen, p.HP == 0)
}

func setStatus(list []string, s string, on bool) []string {
	for i, v := range list {
		if v == s {
			if on {
				return list
			}
			return append(list[:i:i], list[i+1:]...)
		}
	}
	if on {
		return append(list, s)
	}
	return list
}

// Sheet renders the character sheet.
func (w *World) Sheet() string {
	p := w.state.Player
	status := "None"
	if len(p.Status) > 0 {
		status = strings.Join(p.Status, ", ")
	}
	return fmt.Sprintf("CHARACTER SHEET: %s\nHP: %d / %d\nFear: %d / 100\nStatus Effects: %s\nLocation: %s\n",
		p.Name, p.HP, p.MaxHP, p.Fear, status, w.state.Location.Name)
}

// Inventory renders the bag contents.
func (w *World) Inventory() string {
	if len(w.state.Inventory) == 0 {
		return "Your bag is empty. Even the shadows left nothing behind."
	}
	var b strings.Builder
	b.WriteString("Your bag creaks open... Inside, wrapped in shadows:\n")
	for _, it := range w.state.Inventory {
		fmt.Fprintf(&b, "- %s: %s\n", it.Item, it.Description)
	}
	return b.String()
}

// Take adds an item with a random description.
func (w *World) Take(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", errors.NewInvalidRequest("item name is required")
	}
	w.state.Inventory = append(w.state.Inventory, Item{
		Item:        name,
		Description: creepyDescriptions[w.rng.IntN(len(creepyDescriptions))],
	})
	return fmt.Sprintf("%s added to your cursed inventory.", name), nil
}

// Drop removes the first item matching name, case-insensitively.
func (w *World) Drop(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for i, it := range w.state.Inventory {
		if strings.EqualFold(it.Item, name) {
			w.state.Inventory = append(w.state.Inventory[:i:i], w.state.Inventory[i+1:]...)
			return fmt.Sprintf("You discard %s. The darkness seems displeased.", it.Item), true
		}
	}
	return fmt.Sprintf("%s is not in your inventory.", name), false
}

// Event maybe triggers a horror event. The chance is 10% plus a tenth of
// the player's fear; a triggered event adds 2 to 5 fear.
func (w *World) Event() (string, bool) {
	chance := 10 + w.state.Player.Fear/10
	if w.between(1, 100) > chance {
		return "", false
	}
	event := horrorEvents[w.rng.IntN(len(horrorEvents))]
	w.addFear(w.between(2, 5))
	w.refreshStatus()
	return event, true
}

// MoveTo changes the location.
func (w *World) MoveTo(name, description string) {
	w.state.Location = Location{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
}

// Save writes the state as JSON, replacing path atomically.
func (w *World) Save(path string) error {
	data, err := json.MarshalIndent(w.state, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewPersistence("file", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.NewPersistence("file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewPersistence("file", err)
	}
	return nil
}

// Load replaces the state with the one saved at path. On error the current
// state is kept.
func (w *World) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.NewNotFound("saved game", filepath.Base(path))
	}
	if err != nil {
		return errors.NewPersistence("file", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("saved game is unreadable: %v", err))
	}
	if s.Player.Status == nil {
		s.Player.Status = []string{}
	}
	s.Player.Fear = int(FearBounds.Clamp(float64(s.Player.Fear)))
	s.Player.HP = max(0, s.Player.HP)
	w.state = s
	return nil
}
