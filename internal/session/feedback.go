package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
)

// knownObjectives returns the objectives of the current wellness record, or
// of the latest check-in when none have been captured in this session.
func (m *Manager) knownObjectives(ctx context.Context, s *Session) []string {
	if t, ok := s.trackers["wellness"]; ok {
		if items := t.Values()["objectives"].Items; len(items) > 0 {
			return items
		}
	}
	e, err := m.env.journal.Latest(ctx, "wellness")
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			m.logger.Warn("failed to read previous check-in", zap.String("session", s.ID), zap.Error(err))
		}
		return nil
	}
	return e.Fields["objectives"].Items
}

// objectiveFeedback counts whether the user followed through on an objective.
func (m *Manager) objectiveFeedback(ctx context.Context, s *Session, id string, done bool) (Reply, error) {
	known := m.knownObjectives(ctx, s)
	if len(known) == 0 {
		return clarify(errors.NewNoActiveRecord("I don't know your objectives yet"),
			"What are one to three objectives or goals you'd like to focus on today?")
	}

	var match string
	want := strings.ToLower(strings.TrimSpace(id))
	for _, o := range known {
		if strings.ToLower(o) == want {
			match = o
			break
		}
	}
	if match == "" && want != "" {
		for _, o := range known {
			if strings.Contains(strings.ToLower(o), want) {
				match = o
				break
			}
		}
	}
	if match == "" {
		return clarify(errors.NewNotFound("objective", id),
			fmt.Sprintf("Your objectives are: %s.", strings.Join(known, ", ")))
	}

	n := s.objectives.Feedback(strings.ToLower(match), done)
	var text string
	if done {
		text = fmt.Sprintf("Nice work on %s! You've followed through %d time(s) now.", match, int(n))
	} else {
		text = fmt.Sprintf("No worries about %s. Tomorrow is a fresh start.", match)
	}
	return Reply{
		Text:   text,
		Status: StatusOK,
		Data:   map[string]any{"objective": match, "count": int(n)},
	}, nil
}
