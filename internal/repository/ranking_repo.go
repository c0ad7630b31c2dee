package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"simulados/internal/model"
)

// RankingRepo handles MongoDB operations for ranking entries
type RankingRepo interface {
	Save(ctx context.Context, entry *model.RankingEntry) error
	TopByExam(ctx context.Context, examID string, limit int) ([]*model.RankingEntry, error)
}

type rankingRepo struct {
	collection *mongo.Collection
	log        *zap.Logger
}

// NewRankingRepo creates a new ranking repository with indexes
func NewRankingRepo(db *mongo.Database, log *zap.Logger) RankingRepo {
	repo := &rankingRepo{
		collection: db.Collection("ranking_simulados"),
		log:        log,
	}

	repo.ensureIndexes(context.Background())

	return repo
}

func (r *rankingRepo) ensureIndexes(ctx context.Context) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "simuladoId", Value: 1},
			{Key: "correctAnswers", Value: -1},
			{Key: "timeTaken", Value: 1},
		},
	})
	if err != nil {
		r.log.Warn("failed to create ranking index", zap.Error(err))
	}
}

func (r *rankingRepo) Save(ctx context.Context, entry *model.RankingEntry) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.AttemptID}, entry, opts)
	return err
}

func (r *rankingRepo) TopByExam(ctx context.Context, examID string, limit int) ([]*model.RankingEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "correctAnswers", Value: -1}, {Key: "timeTaken", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"simuladoId": examID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*model.RankingEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
