package session

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/hpungsan/intake/internal/adventure"
	"github.com/hpungsan/intake/internal/errors"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// worldFor returns the session's game, starting one on first use.
func (m *Manager) worldFor(s *Session) *adventure.World {
	if s.world == nil {
		s.world = adventure.NewWorld(s.rng, m.env.now())
	}
	return s.world
}

// SavePath returns the save file for a session.
func (m *Manager) SavePath(sessionID string) string {
	return filepath.Join(m.saveDir, unsafeName.ReplaceAllString(sessionID, "_")+".json")
}

// Adventure runs fn against the session's game under the session lock.
func (m *Manager) Adventure(sessionID string, fn func(w *adventure.World) (Reply, error)) (Reply, error) {
	return m.with(sessionID, func(s *Session) (Reply, error) {
		return fn(m.worldFor(s))
	})
}

// Roll throws a die in the session's game.
func (m *Manager) Roll(sessionID string, sides int) (Reply, error) {
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		r := w.Roll(sides)
		return Reply{Text: rollText(r), Status: StatusOK, Data: r}, nil
	})
}

func rollText(r adventure.RollResult) string {
	text := fmt.Sprintf("You rolled a %d on a d%d.", r.Value, r.Sides)
	switch {
	case r.FearDelta > 0:
		text += " A chill runs down your spine."
	case r.FearDelta < 0:
		text += " Your nerves steady, if only for a moment."
	}
	if r.HPDelta < 0 {
		text += fmt.Sprintf(" The terror takes its toll: you lose %d HP.", -r.HPDelta)
	}
	return text
}

// Sheet renders the character sheet.
func (m *Manager) Sheet(sessionID string) (Reply, error) {
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		return Reply{Text: w.Sheet(), Status: StatusOK, Data: w.State().Player}, nil
	})
}

// Inventory renders the bag contents.
func (m *Manager) Inventory(sessionID string) (Reply, error) {
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		return Reply{Text: w.Inventory(), Status: StatusOK, Data: w.State().Inventory}, nil
	})
}

// Take adds an item to the inventory.
func (m *Manager) Take(sessionID, item string) (Reply, error) {
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		text, err := w.Take(item)
		if err != nil {
			return clarify(err, "")
		}
		return Reply{Text: text, Status: StatusOK}, nil
	})
}

// Drop removes an item from the inventory.
func (m *Manager) Drop(sessionID, item string) (Reply, error) {
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		text, ok := w.Drop(item)
		if !ok {
			return Reply{Text: text, Status: StatusClarify}, nil
		}
		return Reply{Text: text, Status: StatusOK}, nil
	})
}

// Event maybe triggers a horror event.
func (m *Manager) Event(sessionID string) (Reply, error) {
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		text, ok := w.Event()
		if !ok {
			text = "Silence. For now."
		}
		return Reply{Text: text, Status: StatusOK, Data: map[string]any{"triggered": ok, "fear": w.State().Player.Fear}}, nil
	})
}

// SaveGame writes the session's game to its save file.
func (m *Manager) SaveGame(sessionID string) (Reply, error) {
	if m.saveDir == "" {
		return Reply{}, errors.NewInvalidRequest("saving is not configured")
	}
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		if err := w.Save(m.SavePath(sessionID)); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Your progress is sealed in blood. Game saved.", Status: StatusOK}, nil
	})
}

// LoadGame restores the session's game from its save file.
func (m *Manager) LoadGame(sessionID string) (Reply, error) {
	if m.saveDir == "" {
		return Reply{}, errors.NewInvalidRequest("saving is not configured")
	}
	return m.Adventure(sessionID, func(w *adventure.World) (Reply, error) {
		if err := w.Load(m.SavePath(sessionID)); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return Reply{Text: "No saved game found. Your story begins anew.", Status: StatusClarify}, nil
			}
			return clarify(err, "")
		}
		return Reply{Text: "The darkness remembers you. Game loaded.\n" + w.Sheet(), Status: StatusOK}, nil
	})
}
