package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/intake/internal/adventure"
	"github.com/hpungsan/intake/internal/errors"
)

func TestAdventure_InventoryFlow(t *testing.T) {
	m := setupManager(t).mgr

	r, err := m.Take("game", "Silver Key")
	require.NoError(t, err)
	assert.Equal(t, "Silver Key added to your cursed inventory.", r.Text)

	r, err = m.Inventory("game")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "- Silver Key:")
	assert.Len(t, r.Data, 4)

	r, err = m.Drop("game", "silver key")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, r.Status)

	r, err = m.Drop("game", "silver key")
	require.NoError(t, err)
	assert.Equal(t, StatusClarify, r.Status)

	r, err = m.Take("game", "   ")
	require.NoError(t, err)
	assert.Equal(t, StatusClarify, r.Status)
}

func TestAdventure_RollAndSheet(t *testing.T) {
	m := setupManager(t).mgr

	for range 30 {
		r, err := m.Roll("game", 20)
		require.NoError(t, err)
		res := r.Data.(adventure.RollResult)
		assert.GreaterOrEqual(t, res.Value, 1)
		assert.LessOrEqual(t, res.Value, 20)
		assert.Contains(t, r.Text, "on a d20.")
	}

	r, err := m.Sheet("game")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "CHARACTER SHEET: Wanderer")

	r, err = m.Event("game")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, r.Status)
}

func TestAdventure_SaveLoad(t *testing.T) {
	m := setupManager(t).mgr

	r, err := m.LoadGame("game/1")
	require.NoError(t, err)
	assert.Equal(t, StatusClarify, r.Status)

	_, err = m.Take("game/1", "Lantern")
	require.NoError(t, err)
	_, err = m.SaveGame("game/1")
	require.NoError(t, err)

	path := m.SavePath("game/1")
	assert.Equal(t, "game_1.json", filepath.Base(path))
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = m.Drop("game/1", "lantern")
	require.NoError(t, err)

	r, err = m.LoadGame("game/1")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, r.Status)

	r, err = m.Inventory("game/1")
	require.NoError(t, err)
	assert.Contains(t, r.Text, "Lantern")
}

func TestAdventure_SaveWithoutDir(t *testing.T) {
	mgr, err := NewManager(Options{
		Registry: setupManager(t).mgr.Registry(),
		Journal:  failingJournal{},
	})
	require.NoError(t, err)

	_, err = mgr.SaveGame("s")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
