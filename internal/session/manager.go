package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/adventure"
	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/mastery"
	"github.com/hpungsan/intake/internal/metrics"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/record"
)

// Session is the state of one conversation. Commands on a session run one
// at a time; different sessions run independently.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	trackers   map[string]*Tracker
	tutor      *Tutor
	world      *adventure.World
	objectives *mastery.Tracker
	rng        *rand.Rand
	lastActive atomic.Int64
}

// LastActive returns the time of the last command on the session.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Options configures a Manager.
type Options struct {
	Registry *persona.Registry
	Journal  journal.Journal
	Logger   *zap.Logger
	Metrics  *metrics.Collector

	// SaveDir holds adventure save files.
	SaveDir string

	// Now defaults to time.Now.
	Now func() time.Time

	// NewRand returns the random source for a new session. Defaults to a
	// randomly seeded PCG.
	NewRand func() *rand.Rand
}

// Manager maps session ids to sessions, creating them on first use.
type Manager struct {
	registry *persona.Registry
	env      *env
	logger   *zap.Logger
	saveDir  string
	newRand  func() *rand.Rand

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a manager with no sessions.
func NewManager(opts Options) (*Manager, error) {
	if opts.Registry == nil {
		return nil, errors.NewInvalidRequest("session manager requires a persona registry")
	}
	if opts.Journal == nil {
		return nil, errors.NewInvalidRequest("session manager requires a journal")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	logger := opts.Logger.With(zap.String("component", "session"))
	return &Manager{
		registry: opts.Registry,
		env: &env{
			journal: opts.Journal,
			logger:  logger,
			metrics: opts.Metrics,
			now:     opts.Now,
		},
		logger:   logger,
		saveDir:  opts.SaveDir,
		newRand:  opts.NewRand,
		sessions: make(map[string]*Session),
	}, nil
}

// Registry returns the persona registry.
func (m *Manager) Registry() *persona.Registry { return m.registry }

// Journal returns the journal finalized records are written to.
func (m *Manager) Journal() journal.Journal { return m.env.journal }

func (m *Manager) get(id string) (*Session, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	now := m.env.now()
	rng := m.newRand()
	s = &Session{
		ID:         id,
		Created:    now,
		trackers:   make(map[string]*Tracker),
		tutor:      newTutor(m.registry.Concepts, rng),
		objectives: mastery.NewTracker(mastery.Tally),
		rng:        rng,
	}
	s.lastActive.Store(now.UnixNano())
	m.sessions[id] = s
	m.env.metrics.SetActiveSessions(len(m.sessions))
	m.logger.Debug("session started", zap.String("session", id))
	return s, nil
}

// with runs fn holding the session lock.
func (m *Manager) with(id string, fn func(s *Session) (Reply, error)) (Reply, error) {
	s, err := m.lock(id)
	if err != nil {
		return Reply{}, err
	}
	defer s.mu.Unlock()
	s.lastActive.Store(m.env.now().UnixNano())
	return fn(s)
}

// lock returns the live session for id with its lock held. A session swept
// or ended while waiting for the lock is no longer in the map, so the lookup
// is retried rather than running a command on a detached session.
func (m *Manager) lock(id string) (*Session, error) {
	for {
		s, err := m.get(id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		m.mu.RLock()
		live := m.sessions[id] == s
		m.mu.RUnlock()
		if live {
			return s, nil
		}
		s.mu.Unlock()
	}
}

func (m *Manager) tracker(s *Session, name string) (*Tracker, error) {
	p, ok := m.registry.Lookup(name)
	if !ok {
		return nil, errors.NewNotFound("persona", name)
	}
	t, ok := s.trackers[p.Name]
	if !ok {
		t = newTracker(p, s.ID, m.env)
		s.trackers[p.Name] = t
	}
	return t, nil
}

// Dispatch runs cmd against the session with the given id. Input problems
// come back as a clarification reply, not an error; the returned error is
// reserved for an empty session id, an unknown persona and failures that are
// not about the input.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, cmd Command) (Reply, error) {
	start := time.Now()
	reply, err := m.with(sessionID, func(s *Session) (Reply, error) {
		return m.dispatch(ctx, s, cmd)
	})

	status := string(reply.Status)
	if err != nil {
		status = "error"
	}
	label := scope(cmd)
	if _, ok := m.registry.Lookup(label); !ok && status == "error" {
		label = "unknown"
	}
	m.env.metrics.RecordCommand(cmd.commandName(), label, status, time.Since(start))
	return reply, err
}

func (m *Manager) dispatch(ctx context.Context, s *Session, cmd Command) (Reply, error) {
	switch c := cmd.(type) {
	case Update:
		t, err := m.tracker(s, c.Persona)
		if err != nil {
			return Reply{}, err
		}
		return t.Update(ctx, c.Patch)

	case Prompt:
		t, err := m.tracker(s, c.Persona)
		if err != nil {
			return Reply{}, err
		}
		return t.Prompt(), nil

	case Finalize:
		t, err := m.tracker(s, c.Persona)
		if err != nil {
			return Reply{}, err
		}
		return t.Finalize(ctx, c.Force)

	case List:
		switch c.Kind {
		case "concepts":
			return s.tutor.Concepts(), nil
		case "faq":
			topics := m.registry.FAQ.Topics()
			return Reply{
				Text:   fmt.Sprintf("I can answer questions about: %s.", strings.Join(topics, ", ")),
				Status: StatusOK,
				Data:   topics,
			}, nil
		}
		return clarify(errors.NewInvalidValue("list", c.Kind, []string{"concepts", "faq"}), "")

	case Feedback:
		switch c.Target {
		case "tutor":
			r, err := s.tutor.Feedback(c.ID, c.Correct, c.Note)
			if err == nil && r.Status == StatusOK {
				m.env.metrics.RecordFeedback(c.Target, c.Correct)
			}
			return r, err
		case "wellness":
			r, err := m.objectiveFeedback(ctx, s, c.ID, c.Correct)
			if err == nil && r.Status == StatusOK {
				m.env.metrics.RecordFeedback(c.Target, c.Correct)
			}
			return r, err
		}
		return clarify(errors.NewInvalidValue("feedback target", c.Target, []string{"tutor", "wellness"}), "")

	case SetMode:
		return s.tutor.SetMode(c.Mode, c.ConceptID)

	case Ask:
		text, ok := m.registry.FAQ.Answer(c.Topic)
		return Reply{Text: text, Status: StatusOK, Data: map[string]bool{"matched": ok}}, nil
	}
	return Reply{}, errors.NewInternal(fmt.Errorf("unhandled command %T", cmd))
}

// Progress returns the tutor state of a session.
func (m *Manager) Progress(sessionID string) (Progress, error) {
	var p Progress
	_, err := m.with(sessionID, func(s *Session) (Reply, error) {
		p = s.tutor.Progress()
		return Reply{}, nil
	})
	return p, err
}

// End drops a session. Unsaved records are discarded. It reports whether the
// session existed.
func (m *Manager) End(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	m.env.metrics.SetActiveSessions(len(m.sessions))
	m.logger.Debug("session ended", zap.String("session", sessionID))
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sweep drops sessions idle for longer than idle and returns how many were
// dropped. Partial records in them are logged and discarded.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.env.now().Add(-idle).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.lastActive.Load() >= cutoff {
			continue
		}
		if !s.mu.TryLock() {
			continue
		}
		for name, t := range s.trackers {
			if t.State() != record.StateEmpty {
				m.logger.Info("discarding unfinished record",
					zap.String("session", id),
					zap.String("persona", name),
					zap.Any("values", t.Values()),
				)
			}
		}
		s.mu.Unlock()
		delete(m.sessions, id)
		n++
	}
	if n > 0 {
		m.env.metrics.SetActiveSessions(len(m.sessions))
		m.logger.Info("swept idle sessions", zap.Int("count", n))
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, idle, every time.Duration) {
	if idle <= 0 || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idle)
		}
	}
}
