package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/record"
)

// SaveIssueNote is added to a confirmation when the journal append failed.
const SaveIssueNote = "(Note: Data saving issue occurred.)"

// Finalize persists the record, resets it, and returns the confirmation.
// Without force an incomplete record is answered with the missing fields.
// With force whatever has been captured is persisted, as at the end of a
// sales call. A failed append never fails the call: the confirmation carries
// SaveIssueNote and the record is logged in full.
func (t *Tracker) Finalize(ctx context.Context, force bool) (Reply, error) {
	if t.rec == nil || t.rec.State() == record.StateEmpty {
		return clarify(errors.NewNoActiveRecord("I don't have anything to save yet"), t.view().NextPrompt())
	}
	if !t.rec.Complete() && !force {
		return clarify(errors.NewIncompleteRecord(t.rec.Missing()), t.rec.NextPrompt())
	}

	values := t.rec.Values()
	entry := journal.NewEntry(t.persona.Name, t.session, values, t.env.now())
	if t.persona.FileField != "" {
		entry.Label = values[t.persona.FileField].String()
	}

	text := t.persona.Confirm(values)
	if err := t.env.journal.Append(ctx, entry); err != nil {
		t.env.logger.Error("failed to persist record",
			zap.String("persona", t.persona.Name),
			zap.String("session", t.session),
			zap.String("id", entry.ID),
			zap.Any("entry", entry),
			zap.Error(err),
		)
		t.env.metrics.RecordPersistenceFailure(t.persona.Name)
		text += " " + SaveIssueNote
	} else {
		t.env.logger.Info("record finalized",
			zap.String("persona", t.persona.Name),
			zap.String("session", t.session),
			zap.String("id", entry.ID),
			zap.Bool("forced", force && !t.rec.Complete()),
		)
		t.env.metrics.RecordFinalized(t.persona.Name, force && !t.rec.Complete())
	}
	if t.persona.Farewell != "" {
		text += " " + t.persona.Farewell
	}

	t.rec.Reset()
	return Reply{Text: text, Status: StatusComplete, Entry: &entry}, nil
}
