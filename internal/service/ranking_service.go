package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"simulados/internal/cache"
	"simulados/internal/model"
	"simulados/internal/repository"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// RankingService records finished attempts on the public ranking and
// serves per-exam leaderboards from Redis
type RankingService struct {
	rankings    repository.RankingRepo
	leaderboard cache.LeaderboardCache
	log         *zap.Logger
}

// NewRankingService creates a new ranking service. leaderboard may be nil.
func NewRankingService(rankings repository.RankingRepo, leaderboard cache.LeaderboardCache, log *zap.Logger) *RankingService {
	return &RankingService{
		rankings:    rankings,
		leaderboard: leaderboard,
		log:         log,
	}
}

// Record upserts the ranking document. The leaderboard is derived data, so
// a Redis failure is only logged.
func (s *RankingService) Record(ctx context.Context, entry *model.RankingEntry) error {
	if entry.UserName == "" {
		entry.UserName = model.AnonymousUserName
	}
	if err := s.rankings.Save(ctx, entry); err != nil {
		return fmt.Errorf("save ranking entry: %w", err)
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.UpdateScore(ctx, entry.SimuladoID, entry.AttemptID, entry.UserName, entry.CorrectAnswers); err != nil {
			s.log.Warn("leaderboard update failed",
				zap.String("examId", entry.SimuladoID),
				zap.String("attemptId", entry.AttemptID),
				zap.Error(err))
		}
	}
	return nil
}

// Top returns the best limit attempts of examID. An empty leaderboard is
// hydrated from the ranking documents.
func (s *RankingService) Top(ctx context.Context, examID string, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}

	if s.leaderboard != nil {
		size, err := s.leaderboard.Size(ctx, examID)
		if err == nil && size > 0 {
			return s.leaderboard.GetTop(ctx, examID, limit)
		}
		if err != nil {
			s.log.Warn("leaderboard read failed", zap.String("examId", examID), zap.Error(err))
		}
	}

	entries, err := s.rankings.TopByExam(ctx, examID, MaxLeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("list ranking: %w", err)
	}

	out := make([]model.LeaderboardEntry, 0, limit)
	for i, e := range entries {
		if s.leaderboard != nil {
			if err := s.leaderboard.UpdateScore(ctx, examID, e.AttemptID, e.UserName, e.CorrectAnswers); err != nil {
				s.log.Warn("leaderboard hydrate failed", zap.String("examId", examID), zap.Error(err))
			}
		}
		if i < limit {
			out = append(out, model.LeaderboardEntry{
				AttemptID: e.AttemptID,
				UserName:  e.UserName,
				Correct:   e.CorrectAnswers,
				Rank:      i + 1,
			})
		}
	}
	return out, nil
}
