package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"simulados/internal/cache"
	"simulados/internal/model"
	"simulados/internal/repository"
)

// NotebookService manages the user's error notebook
type NotebookService struct {
	notebook repository.NotebookRepo
	cache    cache.NotebookCache
	log      *zap.Logger
}

// NewNotebookService creates a new notebook service. notebookCache may be nil,
// in which case Subscribe only delivers the initial set.
func NewNotebookService(notebook repository.NotebookRepo, notebookCache cache.NotebookCache, log *zap.Logger) *NotebookService {
	return &NotebookService{
		notebook: notebook,
		cache:    notebookCache,
		log:      log,
	}
}

// Add saves question with the user's current answer to the notebook
func (s *NotebookService) Add(ctx context.Context, userID string, question *model.Question, userAnswer string) error {
	entry := &model.NotebookEntry{
		UserID:     userID,
		QuestionID: question.ID,
		Question:   *question,
		UserAnswer: userAnswer,
		AddedAt:    time.Now(),
	}
	if err := s.notebook.Add(ctx, entry); err != nil {
		return fmt.Errorf("add notebook entry: %w", err)
	}
	s.changed(ctx, userID)
	return nil
}

func (s *NotebookService) Remove(ctx context.Context, userID, questionID string) error {
	if err := s.notebook.Remove(ctx, userID, questionID); err != nil {
		return fmt.Errorf("remove notebook entry: %w", err)
	}
	s.changed(ctx, userID)
	return nil
}

// IDs returns the question ids currently in the user's notebook
func (s *NotebookService) IDs(ctx context.Context, userID string) ([]string, error) {
	if s.cache != nil {
		ids, ok, err := s.cache.GetIDs(ctx, userID)
		if err != nil {
			s.log.Warn("notebook cache read failed", zap.String("userId", userID), zap.Error(err))
		}
		if ok {
			return ids, nil
		}
	}

	ids, err := s.notebook.ListIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notebook: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetIDs(ctx, userID, ids); err != nil {
			s.log.Warn("notebook cache write failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	return ids, nil
}

// Subscribe streams the user's notebook id set: the current set first, then
// the fresh set after every change. The channel closes when ctx is done.
func (s *NotebookService) Subscribe(ctx context.Context, userID string) <-chan []string {
	out := make(chan []string, 1)

	var changes <-chan struct{}
	if s.cache != nil {
		var err error
		changes, err = s.cache.Changes(ctx, userID)
		if err != nil {
			s.log.Warn("notebook subscription failed", zap.String("userId", userID), zap.Error(err))
		}
	}

	go func() {
		defer close(out)
		if !s.emit(ctx, userID, out) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					<-ctx.Done()
					return
				}
				if !s.emit(ctx, userID, out) {
					return
				}
			}
		}
	}()
	return out
}

func (s *NotebookService) emit(ctx context.Context, userID string, out chan<- []string) bool {
	ids, err := s.IDs(ctx, userID)
	if err != nil {
		s.log.Warn("notebook reload failed", zap.String("userId", userID), zap.Error(err))
		return ctx.Err() == nil
	}
	select {
	case out <- ids:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *NotebookService) changed(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("notebook cache invalidate failed", zap.String("userId", userID), zap.Error(err))
	}
	if err := s.cache.Publish(ctx, userID); err != nil {
		s.log.Warn("notebook change publish failed", zap.String("userId", userID), zap.Error(err))
	}
}
