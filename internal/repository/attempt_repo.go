package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"simulados/internal/model"
)

// AttemptRepo handles MongoDB operations for simulado attempts
type AttemptRepo interface {
	Create(ctx context.Context, attempt *model.Attempt) error
	GetByID(ctx context.Context, attemptID string) (*model.Attempt, error)
	PatchReviewMarks(ctx context.Context, attemptID string, marks []string) error
	PatchProgress(ctx context.Context, attemptID string, progress model.AttemptProgress) error
	// CommitFinal flips isFinished to true together with the final state.
	// Returns false when the attempt was already finished (or does not exist).
	CommitFinal(ctx context.Context, attemptID string, final model.AttemptFinal) (bool, error)
}

type attemptRepo struct {
	collection *mongo.Collection
}

// NewAttemptRepo creates a new attempt repository
func NewAttemptRepo(db *mongo.Database) AttemptRepo {
	return &attemptRepo{
		collection: db.Collection("simulated_attempts"),
	}
}

func notFinished(attemptID string) bson.M {
	return bson.M{"_id": attemptID, "isFinished": bson.M{"$ne": true}}
}

func (r *attemptRepo) Create(ctx context.Context, attempt *model.Attempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, attempt)
	return err
}

func (r *attemptRepo) GetByID(ctx context.Context, attemptID string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.collection.FindOne(ctx, bson.M{"_id": attemptID}).Decode(&attempt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepo) PatchReviewMarks(ctx context.Context, attemptID string, marks []string) error {
	if marks == nil {
		marks = []string{}
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": attemptID},
		bson.M{"$set": bson.M{"markedForReview": marks}},
	)
	return err
}

func (r *attemptRepo) PatchProgress(ctx context.Context, attemptID string, progress model.AttemptProgress) error {
	// A finished attempt never matches, so late mirrors are dropped
	_, err := r.collection.UpdateOne(ctx,
		notFinished(attemptID),
		bson.M{"$set": bson.M{
			"userAnswers": progress.UserAnswers,
			"timeTaken":   progress.TimeTaken,
		}},
	)
	return err
}

func (r *attemptRepo) CommitFinal(ctx context.Context, attemptID string, final model.AttemptFinal) (bool, error) {
	marks := final.MarkedForReview
	if marks == nil {
		marks = []string{}
	}
	res, err := r.collection.UpdateOne(ctx,
		notFinished(attemptID),
		bson.M{"$set": bson.M{
			"userAnswers":     final.UserAnswers,
			"markedForReview": marks,
			"timeTaken":       final.TimeTaken,
			"finishedAt":      final.FinishedAt,
			"isFinished":      true,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
