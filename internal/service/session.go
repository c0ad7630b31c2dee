package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"simulados/internal/metrics"
	"simulados/internal/model"
	"simulados/internal/repository"
)

// SessionConfig tunes session background behaviour
type SessionConfig struct {
	MirrorInterval     int           // ticks between progress mirrors, <= 0 disables
	SecondsPerQuestion int           // time budget when the exam has no total duration
	WriteTimeout       time.Duration // bound for background writes and timeout finalization
	NewTicker          TickerFactory // nil uses time.Ticker
}

type sessionDeps struct {
	attempts    repository.AttemptRepo
	finalizer   *Finalizer
	notebook    *NotebookService
	broadcaster Broadcaster
	cfg         SessionConfig
	log         *zap.Logger
}

// Session is one user's live run of an attempt. All mutations are
// serialised by mu; network I/O happens outside of it.
type Session struct {
	mu sync.Mutex

	attemptID string
	identity  model.UserIdentity
	exam      *model.Exam
	weekly    bool
	questions []*model.Question
	sheet     *AnswerSheet
	clock     *Clock

	state          model.SessionState
	cursor         int
	confirmPending bool
	inFlight       bool
	notebook       map[string]bool
	report         *model.PerformanceReport
	touched        time.Time

	markSeq     atomic.Uint64
	markWriteMu sync.Mutex

	deps   sessionDeps
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
}

func newQuestionSession(deps sessionDeps, identity model.UserIdentity, loaded *LoadedAttempt, opts StartOptions) *Session {
	attempt := loaded.Attempt
	readOnly := opts.Review || attempt.IsFinished

	answers := attempt.UserAnswers
	elapsed := attempt.TimeTaken
	if !readOnly {
		if len(opts.SeedAnswers) > 0 {
			merged := make(map[string]model.AnswerState, len(answers)+len(opts.SeedAnswers))
			for id, a := range answers {
				merged[id] = a
			}
			for id, a := range opts.SeedAnswers {
				merged[id] = a
			}
			answers = merged
		}
		// a seed may move the clock forward, never back
		if opts.ElapsedSeed != nil && *opts.ElapsedSeed > elapsed {
			elapsed = *opts.ElapsedSeed
		}
	}

	s := newSession(deps, identity, attempt.ID)
	s.exam = loaded.Exam
	s.weekly = attempt.IsWeekly() || loaded.Exam.IsWeekly()
	s.questions = loaded.Questions
	s.sheet = NewAnswerSheet(loaded.Questions, answers, attempt.MarkedForReview, readOnly)
	s.clock = NewClock(elapsed, loaded.Exam.AllottedSeconds(len(loaded.Questions), deps.cfg.SecondsPerQuestion), deps.cfg.NewTicker, s.onTick, s.onTimeout)
	s.cursor = clampIndex(opts.StartIndex, len(loaded.Questions))
	s.state = model.SessionActive
	if readOnly {
		s.state = model.SessionReviewOnly
	}
	return s
}

func newStatsSession(deps sessionDeps, identity model.UserIdentity, attemptID string, report *model.PerformanceReport) *Session {
	s := newSession(deps, identity, attemptID)
	s.state = model.SessionStatsOnly
	s.report = report
	return s
}

func newSession(deps sessionDeps, identity model.UserIdentity, attemptID string) *Session {
	if deps.broadcaster == nil {
		deps.broadcaster = noopBroadcaster{}
	}
	if deps.cfg.WriteTimeout <= 0 {
		deps.cfg.WriteTimeout = 15 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		attemptID: attemptID,
		identity:  identity,
		notebook:  make(map[string]bool),
		touched:   time.Now(),
		deps:      deps,
		log:       deps.log.With(zap.String("attemptId", attemptID)),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// begin starts the clock of an active session and the notebook subscription
func (s *Session) begin() {
	s.mu.Lock()
	if s.state == model.SessionActive {
		s.clock.Start()
	}
	hasQuestions := len(s.questions) > 0
	s.mu.Unlock()

	if hasQuestions && s.deps.notebook != nil {
		updates := s.deps.notebook.Subscribe(s.ctx, s.identity.UserID)
		s.background(func() {
			for ids := range updates {
				s.setNotebook(ids)
			}
		})
	}
}

// Close stops the clock and background subscriptions. Progress of an
// active session is mirrored one last time.
func (s *Session) Close() {
	s.mu.Lock()
	wasActive := s.state == model.SessionActive
	if s.clock != nil {
		s.clock.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	if wasActive {
		s.background(s.mirrorProgress)
	}
}

func (s *Session) AttemptID() string { return s.attemptID }
func (s *Session) UserID() string    { return s.identity.UserID }

func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) View() *model.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) SetAnswer(qid, letter string) (*model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditable(); err != nil {
		return nil, err
	}
	if err := s.sheet.SetAnswer(qid, letter); err != nil {
		return nil, err
	}
	return s.viewLocked(), nil
}

func (s *Session) SetStrikeOut(qid, letter string, struck bool) (*model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireEditable(); err != nil {
		return nil, err
	}
	if err := s.sheet.SetStrikeOut(qid, letter, struck); err != nil {
		return nil, err
	}
	return s.viewLocked(), nil
}

// ToggleReviewMark flips the mark in memory and persists the full mark set
// in the background. A failed write is reported on the event stream and the
// in-memory toggle is kept.
func (s *Session) ToggleReviewMark(qid string) (*model.SessionView, error) {
	s.mu.Lock()
	if s.state != model.SessionActive && s.state != model.SessionReviewOnly {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	if _, err := s.sheet.ToggleReviewMark(qid); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	marks := s.sheet.Marked()
	seq := s.markSeq.Add(1)
	view := s.viewLocked()
	s.mu.Unlock()

	s.background(func() { s.persistMarks(seq, qid, marks) })
	return view, nil
}

func (s *Session) Next() (*model.SessionView, error) {
	return s.move(func(cursor int) int { return cursor + 1 })
}

func (s *Session) Prev() (*model.SessionView, error) {
	return s.move(func(cursor int) int { return cursor - 1 })
}

func (s *Session) JumpTo(index int) (*model.SessionView, error) {
	return s.move(func(int) int { return index })
}

// move sets the cursor to target(cursor); out-of-range targets leave it unchanged
func (s *Session) move(target func(cursor int) int) (*model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return nil, ErrNotActive
	}
	if next := target(s.cursor); next >= 0 && next < len(s.questions) {
		s.cursor = next
	}
	return s.viewLocked(), nil
}

// live reports whether the session is active or finalizing
func (s *Session) live() bool {
	switch s.State() {
	case model.SessionActive, model.SessionFinalizing:
		return true
	}
	return false
}

// RequestFinish pauses the clock and waits for ConfirmFinish or CancelFinish
func (s *Session) RequestFinish() (*model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case model.SessionActive:
	case model.SessionReviewOnly:
		return nil, ErrReviewMode
	default:
		return nil, ErrNotActive
	}
	if s.clock.Expired() {
		return nil, fmt.Errorf("%w: time is up", ErrNotActive)
	}
	if !s.confirmPending {
		s.confirmPending = true
		s.clock.Stop()
		s.background(s.mirrorProgress)
	}
	return s.viewLocked(), nil
}

// CancelFinish drops a pending finish request and resumes the clock
func (s *Session) CancelFinish() (*model.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.SessionActive {
		return nil, ErrNotActive
	}
	if s.clock.Expired() {
		return nil, fmt.Errorf("%w: time is up", ErrNotActive)
	}
	if s.confirmPending {
		s.confirmPending = false
		s.clock.Start()
	}
	return s.viewLocked(), nil
}

// ConfirmFinish finalizes after RequestFinish. From the finalizing state it
// retries a finalization that failed to persist.
func (s *Session) ConfirmFinish(ctx context.Context) (*model.SessionView, error) {
	return s.finalize(ctx, model.TriggerUser)
}

func (s *Session) finalize(ctx context.Context, trigger model.FinishTrigger) (*model.SessionView, error) {
	s.mu.Lock()
	switch s.state {
	case model.SessionActive:
		if trigger == model.TriggerUser && !s.confirmPending {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: finish was not requested", ErrNotActive)
		}
	case model.SessionFinalizing:
		if s.inFlight {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: finalization in progress", ErrNotActive)
		}
	case model.SessionFinished:
		view := s.viewLocked()
		s.mu.Unlock()
		return view, nil
	case model.SessionReviewOnly:
		s.mu.Unlock()
		return nil, ErrReviewMode
	default:
		s.mu.Unlock()
		return nil, ErrNotActive
	}

	s.clock.Stop()
	s.state = model.SessionFinalizing
	s.confirmPending = false
	s.inFlight = true
	in := FinalizeInput{
		AttemptID:       s.attemptID,
		UserID:          s.identity.UserID,
		UserName:        s.identity.DisplayName,
		UserPhoto:       s.identity.PhotoURL,
		Exam:            s.exam,
		Weekly:          s.weekly,
		Questions:       s.questions,
		Answers:         s.sheet.Answers(),
		MarkedForReview: s.sheet.Marked(),
		Elapsed:         s.clock.Elapsed(),
		Trigger:         trigger,
	}
	s.mu.Unlock()

	s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventState, map[string]interface{}{
		"state": model.SessionFinalizing,
	})

	report, err := s.deps.finalizer.Finalize(ctx, in)

	s.mu.Lock()
	s.inFlight = false
	if err == nil || errors.Is(err, ErrAlreadyFinalized) {
		s.state = model.SessionFinished
		s.report = report
	}
	view := s.viewLocked()
	s.mu.Unlock()

	if err != nil && !errors.Is(err, ErrAlreadyFinalized) {
		s.log.Error("finalization failed", zap.String("trigger", string(trigger)), zap.Error(err))
		s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventFinalizeFailed, map[string]interface{}{
			"error":     err.Error(),
			"retryable": errors.Is(err, ErrPersistenceWriteFailed),
		})
		return view, err
	}

	s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventFinalized, map[string]interface{}{
		"trigger": trigger,
		"report":  view.Report,
	})
	return view, err
}

// SetNotebook adds or removes qid (with the current answer) from the user's notebook
func (s *Session) SetNotebook(ctx context.Context, qid string, add bool) (*model.SessionView, error) {
	s.mu.Lock()
	if len(s.questions) == 0 {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	var question *model.Question
	for _, q := range s.questions {
		if q.ID == qid {
			question = q
			break
		}
	}
	if question == nil {
		s.mu.Unlock()
		return nil, ErrUnknownQuestion
	}
	answer := s.sheet.Answer(qid).SelectedAnswer
	s.mu.Unlock()

	var err error
	if add {
		err = s.deps.notebook.Add(ctx, s.identity.UserID, question, answer)
	} else {
		err = s.deps.notebook.Remove(ctx, s.identity.UserID, qid)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.notebook[qid] = true
	} else {
		delete(s.notebook, qid)
	}
	return s.viewLocked(), nil
}

func (s *Session) setNotebook(ids []string) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	s.mu.Lock()
	s.notebook = set
	s.mu.Unlock()

	s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventNotebook, map[string]interface{}{
		"questionIds": ids,
	})
}

func (s *Session) onTick(elapsed int) {
	allotted := s.clock.Allotted()
	s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventTick, map[string]interface{}{
		"elapsed":   elapsed,
		"remaining": formatRemaining(allotted, elapsed),
	})
	if n := s.deps.cfg.MirrorInterval; n > 0 && elapsed%n == 0 {
		s.background(s.mirrorProgress)
	}
}

func (s *Session) onTimeout(elapsed int) {
	metrics.Timeouts.Inc()
	s.log.Info("attempt time is up", zap.Int("elapsed", elapsed))
	s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventTimeout, map[string]interface{}{
		"elapsed": elapsed,
	})

	s.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.deps.cfg.WriteTimeout)
		defer cancel()
		if _, err := s.finalize(ctx, model.TriggerTimeout); err != nil && !errors.Is(err, ErrAlreadyFinalized) {
			s.log.Warn("timeout finalization did not complete", zap.Error(err))
		}
	})
}

// mirrorProgress writes answers and elapsed time of an active attempt
func (s *Session) mirrorProgress() {
	s.mu.Lock()
	if s.state != model.SessionActive {
		s.mu.Unlock()
		return
	}
	progress := model.AttemptProgress{
		UserAnswers: s.sheet.Answers(),
		TimeTaken:   s.clock.Elapsed(),
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.cfg.WriteTimeout)
	defer cancel()
	if err := s.deps.attempts.PatchProgress(ctx, s.attemptID, progress); err != nil {
		metrics.MirrorFailures.Inc()
		s.log.Warn("progress mirror failed", zap.Error(err))
	}
}

func (s *Session) persistMarks(seq uint64, qid string, marks []string) {
	s.markWriteMu.Lock()
	defer s.markWriteMu.Unlock()
	if seq != s.markSeq.Load() {
		return // a newer mark set follows
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.cfg.WriteTimeout)
	defer cancel()
	if err := s.deps.attempts.PatchReviewMarks(ctx, s.attemptID, marks); err != nil {
		metrics.MirrorFailures.Inc()
		s.log.Warn("review mark write failed", zap.String("questionId", qid), zap.Error(err))
		s.deps.broadcaster.BroadcastToAttempt(s.attemptID, EventReviewMarkError, map[string]interface{}{
			"questionId": qid,
			"error":      err.Error(),
		})
	}
}

func (s *Session) background(fn func()) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn()
	}()
}

// wait blocks until background work has finished
func (s *Session) wait() {
	s.bg.Wait()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) requireEditable() error {
	switch s.state {
	case model.SessionActive:
		return nil
	case model.SessionReviewOnly:
		return ErrReviewMode
	default:
		return ErrNotActive
	}
}

func (s *Session) viewLocked() *model.SessionView {
	s.touched = time.Now()

	v := &model.SessionView{
		AttemptID:      s.attemptID,
		State:          s.state,
		Cursor:         s.cursor,
		TotalQuestions: len(s.questions),
		ConfirmPending: s.confirmPending,
		Report:         s.report,
	}
	if s.exam != nil {
		v.ExamID = s.exam.ID
		v.ExamTitle = s.exam.Title
	} else if s.report != nil {
		v.ExamID = s.report.SimuladoID
	}
	if s.clock != nil {
		v.Elapsed = s.clock.Elapsed()
		v.Allotted = s.clock.Allotted()
		v.Remaining = formatRemaining(v.Allotted, v.Elapsed)
		v.ClockRunning = s.clock.Running()
	}
	if s.sheet != nil {
		v.AnsweredCount = s.sheet.AnsweredCount()
		v.MarkedForReview = s.sheet.Marked()
		v.AreaProgress = s.sheet.AreaProgress()
	}
	if len(s.questions) > 0 {
		v.Current = s.questionViewLocked(s.cursor)
	}
	return v
}

func (s *Session) questionViewLocked(i int) *model.QuestionView {
	q := *s.questions[i]
	// The key and commentary stay hidden until the attempt is over
	if s.state == model.SessionActive || s.state == model.SessionFinalizing {
		q.CorrectAnswer = ""
		q.Comment = ""
		q.AudioCommentURL = ""
	}
	return &model.QuestionView{
		Index:          i,
		Question:       q,
		Answer:         s.sheet.Answer(q.ID),
		MarkedReview:   s.sheet.IsMarked(q.ID),
		InNotebook:     s.notebook[q.ID],
		IsLastQuestion: i == len(s.questions)-1,
	}
}

func clampIndex(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// formatRemaining renders max(0, allotted-elapsed) as HH:MM:SS
func formatRemaining(allotted, elapsed int) string {
	left := allotted - elapsed
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", left/3600, (left%3600)/60, left%60)
}
