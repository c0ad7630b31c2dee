package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"simulados/internal/cache"
	"simulados/internal/metrics"
	"simulados/internal/model"
	"simulados/internal/repository"
)

// FinalizeInput is the session state handed to the finalizer
type FinalizeInput struct {
	AttemptID       string
	UserID          string
	UserName        string
	UserPhoto       string
	Exam            *model.Exam
	Weekly          bool
	Questions       []*model.Question
	Answers         map[string]model.AnswerState
	MarkedForReview []string
	Elapsed         int
	Trigger         model.FinishTrigger
}

// Finalizer scores an attempt and persists the result exactly once
type Finalizer struct {
	attempts    repository.AttemptRepo
	reports     repository.ReportRepo
	weekly      repository.WeeklyResultRepo
	exams       repository.ExamRepo
	rankings    *RankingService
	reportCache cache.ReportCache
	examCache   cache.ExamCache
	location    *time.Location
	now         func() time.Time
	log         *zap.Logger
}

// NewFinalizer creates a finalizer. The caches may be nil.
func NewFinalizer(
	attempts repository.AttemptRepo,
	reports repository.ReportRepo,
	weekly repository.WeeklyResultRepo,
	exams repository.ExamRepo,
	rankings *RankingService,
	reportCache cache.ReportCache,
	examCache cache.ExamCache,
	log *zap.Logger,
) *Finalizer {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.Local
	}
	return &Finalizer{
		attempts:    attempts,
		reports:     reports,
		weekly:      weekly,
		exams:       exams,
		rankings:    rankings,
		reportCache: reportCache,
		examCache:   examCache,
		location:    loc,
		now:         time.Now,
		log:         log,
	}
}

// Finalize grades the attempt and writes attempt, report, weekly result,
// ranking entry and parent exam in that order.
//
// When the attempt is already finished it returns ErrAlreadyFinalized
// together with the stored report (nil if none was written). Any write
// failure is wrapped in ErrPersistenceWriteFailed and nothing is retried.
func (f *Finalizer) Finalize(ctx context.Context, in FinalizeInput) (*model.PerformanceReport, error) {
	report, err := f.finalize(ctx, in)
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyFinalized):
		outcome = "already_finalized"
	default:
		outcome = "failed"
	}
	metrics.Finalizations.WithLabelValues(string(in.Trigger), outcome).Inc()
	return report, err
}

func (f *Finalizer) finalize(ctx context.Context, in FinalizeInput) (*model.PerformanceReport, error) {
	log := f.log.With(zap.String("attemptId", in.AttemptID), zap.String("trigger", string(in.Trigger)))

	current, err := f.attempts.GetByID(ctx, in.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: re-read attempt: %w", ErrPersistenceWriteFailed, err)
	}
	if current == nil {
		return nil, ErrAttemptDataMissing
	}
	if current.IsFinished {
		log.Info("attempt already finalized, skipping scoring")
		return f.storedReport(ctx, in.AttemptID), ErrAlreadyFinalized
	}

	score := Score(in.Questions, in.Answers)
	now := f.now()

	committed, err := f.attempts.CommitFinal(ctx, in.AttemptID, model.AttemptFinal{
		UserAnswers:     in.Answers,
		MarkedForReview: in.MarkedForReview,
		TimeTaken:       in.Elapsed,
		FinishedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: commit attempt: %w", ErrPersistenceWriteFailed, err)
	}
	if !committed {
		log.Info("lost finalization race")
		return f.storedReport(ctx, in.AttemptID), ErrAlreadyFinalized
	}

	report := f.buildReport(in, score, now)
	if err := f.reports.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("%w: save report: %w", ErrPersistenceWriteFailed, err)
	}
	if f.reportCache != nil {
		if err := f.reportCache.Set(ctx, report); err != nil {
			log.Warn("report cache write failed", zap.Error(err))
		}
	}

	if in.Weekly {
		result := &model.WeeklyResult{
			UserID:           in.UserID,
			WeekID:           in.Exam.ID,
			Correct:          score.Correct,
			Percentage:       score.Percentage,
			Score:            score.Correct,
			TimeSeconds:      in.Elapsed,
			AreaStats:        score.AreaDetail,
			SpecialtyStats:   score.SpecialtyDetail,
			ThemeStats:       score.ThemeDetail,
			Timestamp:        now.UnixMilli(),
			IsCompleted:      true,
			ErrorQuestionIDs: score.ErrorQuestionIDs,
		}
		if err := f.weekly.Merge(ctx, result); err != nil {
			return nil, fmt.Errorf("%w: merge weekly result: %w", ErrPersistenceWriteFailed, err)
		}
	}

	userName := in.UserName
	if userName == "" {
		userName = model.AnonymousUserName
	}
	userPhoto := in.UserPhoto
	if userPhoto == "" {
		userPhoto = model.NoUserPhoto
	}
	err = f.rankings.Record(ctx, &model.RankingEntry{
		AttemptID:         in.AttemptID,
		UserID:            in.UserID,
		UserName:          userName,
		UserPhoto:         userPhoto,
		SimuladoID:        in.Exam.ID,
		Timestamp:         now.UnixMilli(),
		TotalQuestions:    score.Total,
		CorrectAnswers:    score.Correct,
		PercentageCorrect: score.Percentage,
		TimeTaken:         in.Elapsed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceWriteFailed, err)
	}

	// The weekly exam document is shared and administered separately
	if !in.Weekly {
		if err := f.exams.PatchFinished(ctx, in.UserID, in.Exam.ID, in.AttemptID); err != nil {
			return nil, fmt.Errorf("%w: patch parent exam: %w", ErrPersistenceWriteFailed, err)
		}
		if f.examCache != nil {
			if err := f.examCache.Delete(ctx, in.UserID, in.Exam.ID); err != nil {
				log.Warn("exam cache invalidate failed", zap.Error(err))
			}
		}
	}

	log.Info("attempt finalized",
		zap.Int("correct", score.Correct),
		zap.Int("total", score.Total),
		zap.Int("elapsed", in.Elapsed))
	return report, nil
}

func (f *Finalizer) buildReport(in FinalizeInput, score ScoreResult, now time.Time) *model.PerformanceReport {
	reportType := model.ReportTypeSimulated
	if in.Weekly {
		reportType = model.ReportTypeWeekly
	}
	return &model.PerformanceReport{
		ID:                   in.AttemptID,
		SimuladoID:           in.Exam.ID,
		UserID:               in.UserID,
		CreationDate:         now.In(f.location).Format("02/01/2006"),
		Timestamp:            now.UnixMilli(),
		TotalQuestions:       score.Total,
		CorrectAnswers:       score.Correct,
		IncorrectAnswers:     score.Incorrect,
		UnansweredQuestions:  score.Unanswered,
		PercentageCorrect:    score.Percentage,
		TimeTaken:            in.Elapsed,
		RecommendedTotalTime: score.Total * model.RecommendedSecondsPerQuestion,
		AreaStats:            score.AreaStats,
		Type:                 reportType,
	}
}

// storedReport is best effort: the winning finalizer may not have written it yet
func (f *Finalizer) storedReport(ctx context.Context, attemptID string) *model.PerformanceReport {
	report, err := f.reports.Get(ctx, attemptID)
	if err != nil {
		f.log.Warn("failed to read stored report", zap.String("attemptId", attemptID), zap.Error(err))
		return nil
	}
	return report
}
