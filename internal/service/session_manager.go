package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"simulados/internal/metrics"
	"simulados/internal/model"
	"simulados/internal/repository"
)

// StartOptions opens (or resumes) the session of one attempt
type StartOptions struct {
	AttemptID   string
	UserID      string
	DisplayName string
	PhotoURL    string
	Review      bool
	Exam        *model.Exam // parent exam already loaded server side; never client input
	ElapsedSeed *int
	StartIndex  int
	SeedAnswers map[string]model.AnswerState
	StatsOnly   bool
}

// SessionManager owns the in-memory sessions, keyed by attempt id
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	loader  *Loader
	reports *ReportService
	deps    sessionDeps
}

// NewSessionManager creates a new session manager
func NewSessionManager(
	loader *Loader,
	finalizer *Finalizer,
	attempts repository.AttemptRepo,
	reports *ReportService,
	notebook *NotebookService,
	cfg SessionConfig,
	log *zap.Logger,
) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		loader:   loader,
		reports:  reports,
		deps: sessionDeps{
			attempts:    attempts,
			finalizer:   finalizer,
			notebook:    notebook,
			broadcaster: noopBroadcaster{},
			cfg:         cfg,
			log:         log,
		},
	}
}

// SetBroadcaster sets the event sink for sessions started afterwards
func (m *SessionManager) SetBroadcaster(b Broadcaster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps.broadcaster = b
}

// Start opens a session for opts.AttemptID. A plain start of an attempt
// that already has a running or finalizing session resumes that session;
// review and stats starts never displace one. Review requires a finished
// attempt.
func (m *SessionManager) Start(ctx context.Context, opts StartOptions) (*Session, error) {
	m.mu.Lock()
	existing := m.sessions[opts.AttemptID]
	deps := m.deps
	m.mu.Unlock()

	if existing != nil {
		if existing.UserID() != opts.UserID {
			return nil, ErrAttemptDataMissing
		}
		if existing.live() {
			if opts.Review || opts.StatsOnly {
				return nil, fmt.Errorf("%w: attempt is still running", ErrNotActive)
			}
			return existing, nil
		}
	}

	identity := model.UserIdentity{
		UserID:      opts.UserID,
		DisplayName: opts.DisplayName,
		PhotoURL:    opts.PhotoURL,
	}

	var session *Session
	if opts.StatsOnly {
		report, err := m.reports.Get(ctx, opts.UserID, opts.AttemptID)
		if err != nil {
			return nil, err
		}
		session = newStatsSession(deps, identity, opts.AttemptID, report)
	} else {
		loaded, err := m.loader.Load(ctx, opts.UserID, opts.AttemptID, opts.Exam)
		if err != nil {
			return nil, err
		}
		if opts.Review && !loaded.Attempt.IsFinished {
			return nil, fmt.Errorf("%w: attempt is not finished", ErrNotActive)
		}
		session = newQuestionSession(deps, identity, loaded, opts)
		if loaded.Attempt.IsFinished {
			if report, err := m.reports.Get(ctx, opts.UserID, opts.AttemptID); err == nil {
				session.report = report
			}
		}
	}

	m.mu.Lock()
	replaced := m.sessions[opts.AttemptID]
	if replaced != nil && (opts.Review || opts.StatsOnly) && replaced.live() {
		m.mu.Unlock()
		session.Close()
		return nil, fmt.Errorf("%w: attempt is still running", ErrNotActive)
	}
	m.sessions[opts.AttemptID] = session
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if replaced != nil {
		replaced.Close()
	}
	session.begin()

	deps.log.Info("session started",
		zap.String("attemptId", opts.AttemptID),
		zap.String("userId", opts.UserID),
		zap.String("state", string(session.State())))
	return session, nil
}

// Get returns the session of attemptID if it belongs to userID
func (m *SessionManager) Get(attemptID, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[attemptID]
	if !ok || s.UserID() != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close drops the session of attemptID
func (m *SessionManager) Close(attemptID, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[attemptID]
	if !ok || s.UserID() != userID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, attemptID)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	broadcaster := m.deps.broadcaster
	m.mu.Unlock()

	s.Close()
	broadcaster.DisconnectAttempt(attemptID)
	return nil
}

// Sweep closes sessions that are no longer running and were not used for maxIdle
func (m *SessionManager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		switch s.State() {
		case model.SessionActive, model.SessionFinalizing:
			continue
		}
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	broadcaster := m.deps.broadcaster
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		broadcaster.DisconnectAttempt(s.AttemptID())
	}
	return len(stale)
}

// RunJanitor sweeps idle sessions every interval until ctx is done
func (m *SessionManager) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.deps.log.Debug("swept idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Shutdown closes every session and waits for pending writes or ctx
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		for _, s := range all {
			s.wait()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sessions did not drain: %w", ctx.Err())
	}
}
