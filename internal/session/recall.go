package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
)

// NoHistoryText answers Recall when the persona has no entries yet.
const NoHistoryText = "No previous check-ins on record."

// Recall renders the most recent entry of a persona so a new conversation can
// pick up where the last one ended. Reading history never fails the call: a
// journal error is logged and answered like an empty history.
func (m *Manager) Recall(ctx context.Context, personaName string) (Reply, error) {
	p, ok := m.registry.Lookup(personaName)
	if !ok {
		return Reply{}, errors.NewNotFound("persona", personaName)
	}

	e, err := m.env.journal.Latest(ctx, p.Name)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			m.logger.Warn("failed to read latest entry", zap.String("persona", p.Name), zap.Error(err))
		}
		return Reply{Text: NoHistoryText, Status: StatusOK}, nil
	}

	render := p.Recall
	if render == nil {
		render = p.Confirm
	}
	text := render(e.Fields)
	if text == "" {
		text = NoHistoryText
	}
	return Reply{Text: text, Status: StatusOK, Entry: &e}, nil
}
