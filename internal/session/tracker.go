package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/metrics"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/record"
)

// env carries the shared dependencies of every tracker.
type env struct {
	journal journal.Journal
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// Tracker is one persona's record within one conversation. The record is
// created on the first update and reset after every finalize.
type Tracker struct {
	persona *persona.Persona
	session string
	rec     *record.Record
	env     *env
}

func newTracker(p *persona.Persona, session string, e *env) *Tracker {
	return &Tracker{persona: p, session: session, env: e}
}

// Persona returns the tracked persona.
func (t *Tracker) Persona() *persona.Persona { return t.persona }

// State returns the lifecycle state of the current record.
func (t *Tracker) State() record.State {
	if t.rec == nil {
		return record.StateEmpty
	}
	return t.rec.State()
}

// Values returns the fields captured so far.
func (t *Tracker) Values() map[string]record.Value {
	if t.rec == nil {
		return map[string]record.Value{}
	}
	return t.rec.Values()
}

// view is the record that prompting reads. It never allocates t.rec.
func (t *Tracker) view() *record.Record {
	if t.rec == nil {
		return record.New(t.persona.Schema)
	}
	return t.rec
}

// snapshot is the Data attached to prompt replies.
type snapshot struct {
	State  record.State            `json:"state"`
	Values map[string]record.Value `json:"values"`
}

// Prompt returns the question for the first unset field. It does not
// change the record.
func (t *Tracker) Prompt() Reply {
	r := t.view()
	return Reply{
		Text:    r.NextPrompt(),
		Status:  StatusPrompt,
		Missing: r.Missing(),
		Data:    snapshot{State: t.State(), Values: t.Values()},
	}
}
