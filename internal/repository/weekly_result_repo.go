package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"simulados/internal/model"
)

// WeeklyResultRepo handles MongoDB operations for weekly exam results
type WeeklyResultRepo interface {
	// Merge sets the result fields on the userId_weekId document,
	// leaving any other fields of an existing document untouched.
	Merge(ctx context.Context, result *model.WeeklyResult) error
}

type weeklyResultRepo struct {
	collection *mongo.Collection
}

// NewWeeklyResultRepo creates a new weekly result repository
func NewWeeklyResultRepo(db *mongo.Database) WeeklyResultRepo {
	return &weeklyResultRepo{
		collection: db.Collection("weekly_results"),
	}
}

func (r *weeklyResultRepo) Merge(ctx context.Context, result *model.WeeklyResult) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.WeeklyResultKey(result.UserID, result.WeekID)},
		bson.M{"$set": result},
		opts,
	)
	return err
}
