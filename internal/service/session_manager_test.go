package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"simulados/internal/model"
)

func TestManagerStartResumesRunningSession(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	first := env.start(t, StartOptions{})
	if _, err := first.SetAnswer("q1", "A"); err != nil {
		t.Fatal(err)
	}

	second, err := env.mgr.Start(context.Background(), StartOptions{AttemptID: "a1", UserID: "u1", StartIndex: 2})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if second != first {
		t.Fatal("plain start must resume the running session")
	}
	if second.View().AnsweredCount != 1 {
		t.Fatal("resumed session lost its answers")
	}
}

func TestManagerReviewKeepsRunningSession(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	active := env.start(t, StartOptions{})

	for _, opts := range []StartOptions{
		{AttemptID: "a1", UserID: "u1", Review: true},
		{AttemptID: "a1", UserID: "u1", StatsOnly: true},
	} {
		if _, err := env.mgr.Start(context.Background(), opts); !errors.Is(err, ErrNotActive) {
			t.Fatalf("Start(review=%v stats=%v) err = %v", opts.Review, opts.StatsOnly, err)
		}
	}
	if !active.clock.Running() {
		t.Fatal("running session clock stopped")
	}
	got, err := env.mgr.Get("a1", "u1")
	if err != nil || got != active {
		t.Fatalf("Get = %p, %v; want the active session", got, err)
	}
}

func TestManagerReviewRequiresFinishedAttempt(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	if _, err := env.mgr.Start(context.Background(), StartOptions{AttemptID: "a1", UserID: "u1", Review: true}); !errors.Is(err, ErrNotActive) {
		t.Fatalf("review of unfinished attempt err = %v", err)
	}
	if _, err := env.mgr.Get("a1", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("rejected review left a session behind")
	}

	env.attempts.attempts["a1"].IsFinished = true
	s := env.start(t, StartOptions{Review: true})
	if s.State() != model.SessionReviewOnly {
		t.Fatalf("state = %s", s.State())
	}
}

func TestManagerOwnership(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	env.start(t, StartOptions{})

	if _, err := env.mgr.Start(context.Background(), StartOptions{AttemptID: "a1", UserID: "intruder"}); !errors.Is(err, ErrAttemptDataMissing) {
		t.Fatalf("Start by other user err = %v", err)
	}
	if _, err := env.mgr.Get("a1", "intruder"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get by other user err = %v", err)
	}
	if err := env.mgr.Close("a1", "intruder"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Close by other user err = %v", err)
	}

	if err := env.mgr.Close("a1", "u1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := env.mgr.Get("a1", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after close err = %v", err)
	}
}

func TestManagerStartLoadFailure(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	_, err := env.mgr.Start(context.Background(), StartOptions{AttemptID: "missing", UserID: "u1"})
	if !errors.Is(err, ErrAttemptDataMissing) {
		t.Fatalf("err = %v", err)
	}
	if _, err := env.mgr.Get("missing", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("failed start must not register a session")
	}
}

func TestManagerStatsOnly(t *testing.T) {
	env := newSessionEnv(t, nil, 0)

	if _, err := env.mgr.Start(context.Background(), StartOptions{AttemptID: "a1", UserID: "u1", StatsOnly: true}); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("stats without report err = %v", err)
	}

	env.reports.reports["a1"] = &model.PerformanceReport{ID: "a1", UserID: "u1", SimuladoID: "s1", CorrectAnswers: 2}
	s := env.start(t, StartOptions{StatsOnly: true})

	view := s.View()
	if view.State != model.SessionStatsOnly || view.Report == nil || view.TotalQuestions != 0 {
		t.Fatalf("view = %+v", view)
	}
	if view.ExamID != "s1" {
		t.Fatalf("exam id = %q", view.ExamID)
	}
	if _, err := s.Next(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Next err = %v", err)
	}
	if _, err := s.SetAnswer("q1", "A"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("SetAnswer err = %v", err)
	}
}

func TestManagerSweepKeepsRunningSessions(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	env.attempts.attempts["a2"] = &model.Attempt{
		ID: "a2", UserID: "u1", SimuladoID: "s1", QuestionOrder: []string{"q1"}, IsFinished: true,
	}
	env.start(t, StartOptions{})
	env.start(t, StartOptions{AttemptID: "a2", Review: true})

	time.Sleep(time.Millisecond)
	if n := env.mgr.Sweep(0); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if _, err := env.mgr.Get("a1", "u1"); err != nil {
		t.Fatalf("active session swept: %v", err)
	}
	if _, err := env.mgr.Get("a2", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("idle review session kept")
	}
}

func TestManagerShutdownMirrorsActiveSessions(t *testing.T) {
	env := newSessionEnv(t, nil, 0)
	s := env.start(t, StartOptions{})
	if _, err := s.SetAnswer("q2", "B"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.mgr.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := env.attempts.get("a1").UserAnswers["q2"].SelectedAnswer; got != "B" {
		t.Fatalf("stored answer = %q, want B", got)
	}
	if _, err := env.mgr.Get("a1", "u1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("session survived shutdown")
	}
}
