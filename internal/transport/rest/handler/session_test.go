package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"simulados/internal/model"
	"simulados/internal/service"
	"simulados/internal/transport/rest/middleware"
)

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*model.Attempt
}

func (r *memAttemptRepo) Create(_ context.Context, a *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[a.ID] = a
	return nil
}

func (r *memAttemptRepo) GetByID(_ context.Context, id string) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAttemptRepo) PatchReviewMarks(context.Context, string, []string) error { return nil }

func (r *memAttemptRepo) PatchProgress(context.Context, string, model.AttemptProgress) error {
	return nil
}

func (r *memAttemptRepo) CommitFinal(_ context.Context, id string, f model.AttemptFinal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok || a.IsFinished {
		return false, nil
	}
	a.IsFinished = true
	a.TimeTaken = f.TimeTaken
	return true, nil
}

func (r *memAttemptRepo) finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[id].IsFinished = true
}

type memExamRepo struct{ exam *model.Exam }

func (r *memExamRepo) GetByID(_ context.Context, _, examID string) (*model.Exam, error) {
	if r.exam.ID != examID {
		return nil, nil
	}
	return r.exam, nil
}

func (r *memExamRepo) PatchFinished(context.Context, string, string, string) error { return nil }
func (r *memExamRepo) Upsert(context.Context, *model.Exam) error                   { return nil }

type memQuestionRepo struct{ questions []*model.Question }

func (r *memQuestionRepo) GetByIDs(context.Context, []string) ([]*model.Question, error) {
	return r.questions, nil
}

func (r *memQuestionRepo) Upsert(context.Context, *model.Question) error { return nil }

type memReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.PerformanceReport
}

func (r *memReportRepo) Save(_ context.Context, report *model.PerformanceReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.ID] = report
	return nil
}

func (r *memReportRepo) Get(_ context.Context, id string) (*model.PerformanceReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[id], nil
}

type memWeeklyRepo struct{}

func (memWeeklyRepo) Merge(context.Context, *model.WeeklyResult) error { return nil }

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

type sessionAPI struct {
	router   *mux.Router
	attempts *memAttemptRepo
	reports  *memReportRepo
}

func newSessionAPI(t *testing.T) *sessionAPI {
	t.Helper()
	api := &sessionAPI{
		attempts: &memAttemptRepo{attempts: map[string]*model.Attempt{
			"a1": {ID: "a1", UserID: "u1", SimuladoID: "s1", QuestionOrder: []string{"q1", "q2", "q3"}},
		}},
		reports: &memReportRepo{reports: make(map[string]*model.PerformanceReport)},
	}
	var questions []*model.Question
	for _, id := range []string{"q1", "q2", "q3"} {
		questions = append(questions, &model.Question{
			ID: id, Prompt: "prompt " + id, Alternatives: []string{"a", "b", "c", "d"}, CorrectAnswer: "A",
		})
	}

	log := zap.NewNop()
	exams := &memExamRepo{exam: &model.Exam{ID: "s1", UserID: "u1", Title: "Simulado 1"}}
	loader := service.NewLoader(api.attempts, exams, nil, &memQuestionRepo{questions: questions}, 0, log)
	finalizer := service.NewFinalizer(api.attempts, api.reports, memWeeklyRepo{}, exams,
		service.NewRankingService(&stubRankingRepo{}, nil, log), nil, nil, log)
	mgr := service.NewSessionManager(loader, finalizer, api.attempts, service.NewReportService(api.reports, nil, log), nil,
		service.SessionConfig{WriteTimeout: time.Second, NewTicker: func(time.Duration) service.Ticker { return idleTicker{} }}, log)
	t.Cleanup(func() { mgr.Close("a1", "u1") })

	h := NewSessionHandler(mgr)
	r := mux.NewRouter()
	r.HandleFunc("/v1/attempts/{attemptId}/session", h.Start).Methods("POST")
	r.HandleFunc("/v1/attempts/{attemptId}/session/navigate", h.Navigate).Methods("POST")
	r.HandleFunc("/v1/attempts/{attemptId}/session/finish", h.RequestFinish).Methods("POST")
	r.HandleFunc("/v1/attempts/{attemptId}/session/finish/confirm", h.ConfirmFinish).Methods("POST")
	api.router = r
	return api
}

func (api *sessionAPI) post(path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithIdentity(req.Context(), &model.UserIdentity{UserID: "u1"}))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) model.SessionView {
	t.Helper()
	var view model.SessionView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func TestStartSessionDecodesBody(t *testing.T) {
	api := newSessionAPI(t)
	rec := api.post("/v1/attempts/a1/session", `{"startIndex":2,"elapsedSeed":30,"seedAnswers":{"q1":{"selectedAnswer":"B"}}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	view := decodeView(t, rec)
	if view.State != model.SessionActive || view.Cursor != 2 || view.Elapsed != 30 || view.AnsweredCount != 1 {
		t.Fatalf("view = %+v", view)
	}
}

func TestStartSessionIgnoresClientExam(t *testing.T) {
	api := newSessionAPI(t)
	rec := api.post("/v1/attempts/a1/session",
		`{"exam":{"id":"s1","title":"forged","type":"semanal","totalDurationInSeconds":1000000}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	view := decodeView(t, rec)
	if view.Allotted != 3*model.RecommendedSecondsPerQuestion || view.ExamTitle != "Simulado 1" {
		t.Fatalf("allotted=%d title=%q, want the stored exam", view.Allotted, view.ExamTitle)
	}
}

func TestStartSessionRejectsMalformedBody(t *testing.T) {
	api := newSessionAPI(t)
	if rec := api.post("/v1/attempts/a1/session", `{"startIndex":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestNavigateRejectsUnknownAction(t *testing.T) {
	api := newSessionAPI(t)
	if rec := api.post("/v1/attempts/a1/session", ""); rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d", rec.Code)
	}

	rec := api.post("/v1/attempts/a1/session/navigate", `{"action":"skip"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = api.post("/v1/attempts/a1/session/navigate", `{"action":"jump","index":1}`)
	if rec.Code != http.StatusOK || decodeView(t, rec).Cursor != 1 {
		t.Fatalf("jump status = %d", rec.Code)
	}
}

func TestConfirmFinishAlreadyFinalized(t *testing.T) {
	api := newSessionAPI(t)
	if rec := api.post("/v1/attempts/a1/session", ""); rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d", rec.Code)
	}
	if rec := api.post("/v1/attempts/a1/session/finish", ""); rec.Code != http.StatusOK {
		t.Fatalf("finish status = %d", rec.Code)
	}

	// another device finished the attempt first
	api.attempts.finish("a1")
	api.reports.Save(context.Background(), &model.PerformanceReport{ID: "a1", UserID: "u1", SimuladoID: "s1", CorrectAnswers: 2})

	rec := api.post("/v1/attempts/a1/session/finish/confirm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	view := decodeView(t, rec)
	if view.State != model.SessionFinished || view.Report == nil || view.Report.CorrectAnswers != 2 {
		t.Fatalf("view = %+v", view)
	}
}
