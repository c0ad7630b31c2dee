package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"simulados/internal/cache"
	"simulados/internal/model"
	"simulados/internal/repository"
)

// ReportService reads stored performance reports, cache first
type ReportService struct {
	reports repository.ReportRepo
	cache   cache.ReportCache
	log     *zap.Logger
}

// NewReportService creates a new report service. reportCache may be nil.
func NewReportService(reports repository.ReportRepo, reportCache cache.ReportCache, log *zap.Logger) *ReportService {
	return &ReportService{
		reports: reports,
		cache:   reportCache,
		log:     log,
	}
}

// Get returns the report of attemptID owned by userID, or ErrReportNotFound
func (s *ReportService) Get(ctx context.Context, userID, attemptID string) (*model.PerformanceReport, error) {
	report, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if report == nil || report.UserID != userID {
		return nil, ErrReportNotFound
	}
	return report, nil
}

func (s *ReportService) lookup(ctx context.Context, attemptID string) (*model.PerformanceReport, error) {
	if s.cache != nil {
		report, err := s.cache.Get(ctx, attemptID)
		if err != nil {
			s.log.Warn("report cache read failed", zap.String("attemptId", attemptID), zap.Error(err))
		}
		if report != nil {
			return report, nil
		}
	}

	report, err := s.reports.Get(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if report != nil {
		s.remember(ctx, report)
	}
	return report, nil
}

func (s *ReportService) remember(ctx context.Context, report *model.PerformanceReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, report); err != nil {
		s.log.Warn("report cache write failed", zap.String("attemptId", report.ID), zap.Error(err))
	}
}
