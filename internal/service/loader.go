package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"simulados/internal/cache"
	"simulados/internal/model"
	"simulados/internal/repository"
)

const defaultQuestionChunkSize = 10

// LoadedAttempt is an attempt resolved together with its parent exam and questions
type LoadedAttempt struct {
	Attempt   *model.Attempt
	Exam      *model.Exam
	Questions []*model.Question // always in Attempt.QuestionOrder order, unresolved ids dropped
}

// Loader resolves an attempt into its ordered question set
type Loader struct {
	attempts  repository.AttemptRepo
	exams     repository.ExamRepo
	examCache cache.ExamCache
	questions repository.QuestionRepo
	chunkSize int
	log       *zap.Logger
}

// NewLoader creates a loader. examCache may be nil.
func NewLoader(
	attempts repository.AttemptRepo,
	exams repository.ExamRepo,
	examCache cache.ExamCache,
	questions repository.QuestionRepo,
	chunkSize int,
	log *zap.Logger,
) *Loader {
	if chunkSize <= 0 {
		chunkSize = defaultQuestionChunkSize
	}
	return &Loader{
		attempts:  attempts,
		exams:     exams,
		examCache: examCache,
		questions: questions,
		chunkSize: chunkSize,
		log:       log,
	}
}

// Load fetches the attempt for userID and resolves its questions.
// knownExam skips the parent lookup when it matches the attempt's parent id.
func (l *Loader) Load(ctx context.Context, userID, attemptID string, knownExam *model.Exam) (*LoadedAttempt, error) {
	attempt, err := l.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt == nil || attempt.UserID != userID {
		return nil, ErrAttemptDataMissing
	}
	if attempt.SimuladoID == "" {
		return nil, ErrParentExamMissing
	}
	if len(attempt.QuestionOrder) == 0 {
		return nil, ErrQuestionOrderEmpty
	}
	if attempt.Type == "" && model.IsWeeklyExamID(attempt.SimuladoID) {
		attempt.Type = model.ExamTypeWeekly
	}

	exam := knownExam
	if exam == nil || exam.ID != attempt.SimuladoID {
		exam, err = l.exam(ctx, userID, attempt.SimuladoID)
		if err != nil {
			return nil, err
		}
		if exam == nil {
			return nil, ErrParentExamMissing
		}
	}

	questions, err := l.questionsInOrder(ctx, attempt.QuestionOrder)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrQuestionSetEmpty
	}
	if dropped := len(attempt.QuestionOrder) - len(questions); dropped > 0 {
		l.log.Warn("attempt references missing questions",
			zap.String("attemptId", attemptID),
			zap.Int("dropped", dropped))
	}

	return &LoadedAttempt{Attempt: attempt, Exam: exam, Questions: questions}, nil
}

func (l *Loader) exam(ctx context.Context, userID, examID string) (*model.Exam, error) {
	if l.examCache != nil {
		cached, err := l.examCache.Get(ctx, userID, examID)
		if err != nil {
			l.log.Warn("exam cache read failed", zap.String("examId", examID), zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	exam, err := l.exams.GetByID(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("get parent exam: %w", err)
	}
	if exam != nil && l.examCache != nil {
		if err := l.examCache.Set(ctx, userID, exam); err != nil {
			l.log.Warn("exam cache write failed", zap.String("examId", examID), zap.Error(err))
		}
	}
	return exam, nil
}

// questionsInOrder batch-fetches ids in chunks and re-projects the result onto order
func (l *Loader) questionsInOrder(ctx context.Context, order []string) ([]*model.Question, error) {
	byID := make(map[string]*model.Question, len(order))
	for start := 0; start < len(order); start += l.chunkSize {
		end := start + l.chunkSize
		if end > len(order) {
			end = len(order)
		}
		chunk, err := l.questions.GetByIDs(ctx, order[start:end])
		if err != nil {
			return nil, fmt.Errorf("get questions: %w", err)
		}
		for _, q := range chunk {
			if q != nil {
				byID[q.ID] = q
			}
		}
	}

	out := make([]*model.Question, 0, len(order))
	for _, id := range order {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}
