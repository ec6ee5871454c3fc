package session

import (
	"math/rand/v2"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/mastery"
	"github.com/hpungsan/intake/internal/persona"
)

// HistoryItem records one (concept, mode) selection.
type HistoryItem struct {
	ConceptID string       `json:"concept_id"`
	Mode      persona.Mode `json:"mode"`
}

// Tutor is the active recall coach's per-conversation state.
type Tutor struct {
	catalog *persona.Catalog
	rng     *rand.Rand

	mode    persona.Mode
	current *persona.Concept
	history []HistoryItem
	mastery *mastery.Tracker
}

func newTutor(catalog *persona.Catalog, rng *rand.Rand) *Tutor {
	return &Tutor{
		catalog: catalog,
		rng:     rng,
		mode:    persona.ModeLearn,
		mastery: mastery.NewTracker(mastery.Recall),
	}
}

// Progress is a snapshot of the tutor state.
type Progress struct {
	Mode    persona.Mode    `json:"mode"`
	Current string          `json:"current,omitempty"`
	Voice   string          `json:"voice"`
	History []HistoryItem   `json:"history"`
	Mastery []mastery.Score `json:"mastery"`
}

// SetMode switches the interaction mode and optionally the concept. With no
// concept the current one is kept, or a random one picked when none is set.
func (t *Tutor) SetMode(mode, conceptID string) (Reply, error) {
	m, ok := persona.ParseMode(mode)
	if !ok {
		return Reply{Text: "Invalid learning mode. Please choose from: learn, quiz, or teach_back.", Status: StatusClarify}, nil
	}

	if conceptID != "" {
		c, ok := t.catalog.Get(conceptID)
		if !ok {
			return clarify(errors.NewNotFound("concept", conceptID), "")
		}
		t.current = &c
	} else if t.current == nil {
		if t.catalog.Len() == 0 {
			return Reply{Text: "No concepts available. Please check the content file.", Status: StatusClarify}, nil
		}
		c := t.catalog.At(t.rng.IntN(t.catalog.Len()))
		t.current = &c
	}

	t.mode = m
	t.history = append(t.history, HistoryItem{ConceptID: t.current.ID, Mode: m})
	return Reply{
		Text:   m.Respond(*t.current),
		Status: StatusOK,
		Data:   map[string]string{"mode": string(m), "concept_id": t.current.ID, "voice": m.Voice()},
	}, nil
}

// Concepts lists the catalog.
func (t *Tutor) Concepts() Reply {
	return Reply{Text: t.catalog.Describe(), Status: StatusOK, Data: t.catalog.List()}
}

// Feedback records whether the student got a concept right. note is the
// tutor's spoken feedback and is echoed back. A concept must have been
// selected first.
func (t *Tutor) Feedback(conceptID string, correct bool, note string) (Reply, error) {
	if t.current == nil {
		return Reply{Text: "I'm not sure which concept we're working on. Please select a concept first.", Status: StatusClarify}, nil
	}
	if conceptID == "" {
		conceptID = t.current.ID
	}
	c, ok := t.catalog.Get(conceptID)
	if !ok {
		return clarify(errors.NewNotFound("concept", conceptID), "")
	}

	score := t.mastery.Feedback(c.ID, correct)
	text := note
	if text == "" {
		if correct {
			text = "That's right, nice work."
		} else {
			text = "Not quite. Let's go over it again."
		}
	}
	return Reply{
		Text:   text,
		Status: StatusOK,
		Data:   map[string]any{"concept_id": c.ID, "mastery": score},
	}, nil
}

// Progress returns the mode, history and mastery scores.
func (t *Tutor) Progress() Progress {
	p := Progress{
		Mode:    t.mode,
		Voice:   t.mode.Voice(),
		History: append([]HistoryItem{}, t.history...),
		Mastery: t.mastery.Snapshot(),
	}
	if t.current != nil {
		p.Current = t.current.ID
	}
	return p
}
