package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/record"
)

// Update merges patch into the record. Fields not named are untouched. A
// patch with an unknown field or invalid value is rejected as a whole and
// answered with a clarification. When the record becomes complete it is
// finalized and the confirmation is returned instead of a prompt.
func (t *Tracker) Update(ctx context.Context, patch record.Patch) (Reply, error) {
	if t.rec == nil {
		t.rec = record.New(t.persona.Schema)
	}

	if err := t.rec.Apply(patch); err != nil {
		t.env.logger.Debug("update rejected",
			zap.String("persona", t.persona.Name),
			zap.String("session", t.session),
			zap.Error(err),
		)
		return clarify(err, t.rec.NextPrompt())
	}

	if t.rec.Complete() {
		return t.Finalize(ctx, false)
	}
	return t.Prompt(), nil
}
