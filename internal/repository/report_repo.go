package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"simulados/internal/model"
)

// ReportRepo handles MongoDB operations for performance reports
type ReportRepo interface {
	Save(ctx context.Context, report *model.PerformanceReport) error
	Get(ctx context.Context, attemptID string) (*model.PerformanceReport, error)
}

type reportRepo struct {
	reports *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		reports: db.Collection("performance_reports"),
	}
}

func (r *reportRepo) Save(ctx context.Context, report *model.PerformanceReport) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.reports.ReplaceOne(ctx, bson.M{"_id": report.ID}, report, opts)
	return err
}

func (r *reportRepo) Get(ctx context.Context, attemptID string) (*model.PerformanceReport, error) {
	var report model.PerformanceReport
	err := r.reports.FindOne(ctx, bson.M{"_id": attemptID}).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
