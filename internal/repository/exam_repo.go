package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"simulados/internal/model"
)

// ExamRepo handles MongoDB operations for parent exams.
// Weekly exams live in a shared collection; all others are private to a user.
type ExamRepo interface {
	GetByID(ctx context.Context, userID, examID string) (*model.Exam, error)
	PatchFinished(ctx context.Context, userID, examID, attemptID string) error
	Upsert(ctx context.Context, exam *model.Exam) error
}

type examRepo struct {
	private *mongo.Collection
	weekly  *mongo.Collection
}

// NewExamRepo creates a new exam repository
func NewExamRepo(db *mongo.Database) ExamRepo {
	return &examRepo{
		private: db.Collection("simulados"),
		weekly:  db.Collection("weekly_simulados"),
	}
}

func (r *examRepo) locate(userID, examID string) (*mongo.Collection, bson.M) {
	if model.IsWeeklyExamID(examID) {
		return r.weekly, bson.M{"_id": examID}
	}
	return r.private, bson.M{"_id": examID, "userId": userID}
}

func (r *examRepo) GetByID(ctx context.Context, userID, examID string) (*model.Exam, error) {
	coll, filter := r.locate(userID, examID)

	var exam model.Exam
	err := coll.FindOne(ctx, filter).Decode(&exam)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if coll == r.weekly && exam.Type == "" {
		exam.Type = model.ExamTypeWeekly
	}
	return &exam, nil
}

func (r *examRepo) PatchFinished(ctx context.Context, userID, examID, attemptID string) error {
	coll, filter := r.locate(userID, examID)
	_, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"lastFinishedAttemptId": attemptID,
		"isFinished":            true,
	}})
	return err
}

func (r *examRepo) Upsert(ctx context.Context, exam *model.Exam) error {
	coll, filter := r.locate(exam.UserID, exam.ID)
	opts := options.Replace().SetUpsert(true)
	_, err := coll.ReplaceOne(ctx, filter, exam, opts)
	return err
}
