package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"simulados/internal/model"
)

type fakeAttemptRepo struct {
	mu          sync.Mutex
	attempts    map[string]*model.Attempt
	commitCalls int
	marksWrites [][]string
	progress    []model.AttemptProgress
	commitErr   error
	marksErr    error
	// beforeCommit runs inside CommitFinal before the conditional check
	beforeCommit func()
}

func newFakeAttemptRepo(attempts ...*model.Attempt) *fakeAttemptRepo {
	r := &fakeAttemptRepo{attempts: make(map[string]*model.Attempt)}
	for _, a := range attempts {
		r.attempts[a.ID] = a
	}
	return r
}

func (r *fakeAttemptRepo) Create(_ context.Context, a *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[a.ID] = a
	return nil
}

func (r *fakeAttemptRepo) GetByID(_ context.Context, id string) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAttemptRepo) PatchReviewMarks(_ context.Context, id string, marks []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.marksErr != nil {
		return r.marksErr
	}
	r.marksWrites = append(r.marksWrites, marks)
	if a, ok := r.attempts[id]; ok {
		a.MarkedForReview = marks
	}
	return nil
}

func (r *fakeAttemptRepo) PatchProgress(_ context.Context, id string, p model.AttemptProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok || a.IsFinished {
		return nil
	}
	r.progress = append(r.progress, p)
	a.UserAnswers = p.UserAnswers
	a.TimeTaken = p.TimeTaken
	return nil
}

func (r *fakeAttemptRepo) CommitFinal(_ context.Context, id string, f model.AttemptFinal) (bool, error) {
	if r.beforeCommit != nil {
		r.beforeCommit()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return false, r.commitErr
	}
	a, ok := r.attempts[id]
	if !ok || a.IsFinished {
		return false, nil
	}
	r.commitCalls++
	a.IsFinished = true
	a.UserAnswers = f.UserAnswers
	a.MarkedForReview = f.MarkedForReview
	a.TimeTaken = f.TimeTaken
	finished := f.FinishedAt
	a.FinishedAt = &finished
	return true, nil
}

func (r *fakeAttemptRepo) get(id string) model.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.attempts[id]
}

func (r *fakeAttemptRepo) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitCalls
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions map[string]*model.Question
	calls     [][]string
	reverse   bool
	err       error
}

func newFakeQuestionRepo(questions ...*model.Question) *fakeQuestionRepo {
	r := &fakeQuestionRepo{questions: make(map[string]*model.Question)}
	for _, q := range questions {
		r.questions[q.ID] = q
	}
	return r
}

func (r *fakeQuestionRepo) GetByIDs(_ context.Context, ids []string) ([]*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), ids...))
	if r.err != nil {
		return nil, r.err
	}
	var out []*model.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out = append(out, q)
		}
	}
	if r.reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) Upsert(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[q.ID] = q
	return nil
}

type fakeExamRepo struct {
	mu       sync.Mutex
	exams    map[string]*model.Exam
	gets     int
	patched  map[string]string // examID -> attemptID
	patchErr error
}

func newFakeExamRepo(exams ...*model.Exam) *fakeExamRepo {
	r := &fakeExamRepo{exams: make(map[string]*model.Exam), patched: make(map[string]string)}
	for _, e := range exams {
		r.exams[e.ID] = e
	}
	return r
}

func (r *fakeExamRepo) GetByID(_ context.Context, _ string, examID string) (*model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	e, ok := r.exams[examID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeExamRepo) PatchFinished(_ context.Context, _ string, examID, attemptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patchErr != nil {
		return r.patchErr
	}
	r.patched[examID] = attemptID
	if e, ok := r.exams[examID]; ok {
		e.IsFinished = true
		e.LastFinishedAttemptID = attemptID
	}
	return nil
}

func (r *fakeExamRepo) Upsert(_ context.Context, e *model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[e.ID] = e
	return nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.PerformanceReport
	saves   int
	saveErr error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*model.PerformanceReport)}
}

func (r *fakeReportRepo) Save(_ context.Context, rep *model.PerformanceReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.reports[rep.ID] = rep
	return nil
}

func (r *fakeReportRepo) Get(_ context.Context, id string) (*model.PerformanceReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[id], nil
}

type fakeWeeklyRepo struct {
	mu      sync.Mutex
	results map[string]*model.WeeklyResult
}

func newFakeWeeklyRepo() *fakeWeeklyRepo {
	return &fakeWeeklyRepo{results: make(map[string]*model.WeeklyResult)}
}

func (r *fakeWeeklyRepo) Merge(_ context.Context, res *model.WeeklyResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[model.WeeklyResultKey(res.UserID, res.WeekID)] = res
	return nil
}

type fakeRankingRepo struct {
	mu      sync.Mutex
	entries map[string]*model.RankingEntry
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{entries: make(map[string]*model.RankingEntry)}
}

func (r *fakeRankingRepo) Save(_ context.Context, e *model.RankingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.AttemptID] = e
	return nil
}

func (r *fakeRankingRepo) TopByExam(_ context.Context, examID string, limit int) ([]*model.RankingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RankingEntry
	for _, e := range r.entries {
		if e.SimuladoID == examID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CorrectAnswers != out[j].CorrectAnswers {
			return out[i].CorrectAnswers > out[j].CorrectAnswers
		}
		return out[i].TimeTaken < out[j].TimeTaken
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeNotebookRepo struct {
	mu      sync.Mutex
	entries map[string]*model.NotebookEntry
}

func newFakeNotebookRepo() *fakeNotebookRepo {
	return &fakeNotebookRepo{entries: make(map[string]*model.NotebookEntry)}
}

func (r *fakeNotebookRepo) Add(_ context.Context, e *model.NotebookEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = model.NotebookEntryKey(e.UserID, e.QuestionID)
	r.entries[e.ID] = e
	return nil
}

func (r *fakeNotebookRepo) Remove(_ context.Context, userID, questionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, model.NotebookEntryKey(userID, questionID))
	return nil
}

func (r *fakeNotebookRepo) ListIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, e := range r.entries {
		if e.UserID == userID {
			ids = append(ids, e.QuestionID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[string]map[string]int
	names  map[string]string
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: make(map[string]map[string]int), names: make(map[string]string)}
}

func (l *fakeLeaderboard) UpdateScore(_ context.Context, examID, attemptID, userName string, correct int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scores[examID] == nil {
		l.scores[examID] = make(map[string]int)
	}
	l.scores[examID][attemptID] = correct
	l.names[attemptID] = userName
	return nil
}

func (l *fakeLeaderboard) GetTop(_ context.Context, examID string, limit int) ([]model.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.LeaderboardEntry
	for id, score := range l.scores[examID] {
		out = append(out, model.LeaderboardEntry{AttemptID: id, UserName: l.names[id], Correct: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Correct > out[j].Correct })
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (l *fakeLeaderboard) GetRank(_ context.Context, examID, attemptID string) (int64, error) {
	top, _ := l.GetTop(context.Background(), examID, 1<<30)
	for _, e := range top {
		if e.AttemptID == attemptID {
			return int64(e.Rank), nil
		}
	}
	return -1, nil
}

func (l *fakeLeaderboard) Size(_ context.Context, examID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.scores[examID])), nil
}

type event struct {
	attemptID string
	msgType   string
	payload   interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *fakeBroadcaster) BroadcastToAttempt(attemptID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{attemptID, msgType, payload})
}

func (b *fakeBroadcaster) DisconnectAttempt(string) {}

func (b *fakeBroadcaster) count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.msgType == msgType {
			n++
		}
	}
	return n
}

// idleTicker never fires; tests drive clocks with advance
type idleTicker struct{ ch chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (t idleTicker) Stop()               {}

func newIdleTicker(time.Duration) Ticker {
	return idleTicker{ch: make(chan time.Time)}
}

// advance delivers n ticks to the clock's current run
func advance(c *Clock, n int) {
	for i := 0; i < n; i++ {
		c.mu.Lock()
		stop := c.stop
		c.mu.Unlock()
		c.tick(stop)
	}
}

func question(id, correct, area string) *model.Question {
	return &model.Question{
		ID:            id,
		Prompt:        "prompt " + id,
		Alternatives:  []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Area:          area,
	}
}
