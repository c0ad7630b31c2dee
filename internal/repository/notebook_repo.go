package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"simulados/internal/model"
)

// NotebookRepo handles MongoDB operations for the error notebook
type NotebookRepo interface {
	Add(ctx context.Context, entry *model.NotebookEntry) error
	Remove(ctx context.Context, userID, questionID string) error
	ListIDs(ctx context.Context, userID string) ([]string, error)
}

type notebookRepo struct {
	collection *mongo.Collection
}

// NewNotebookRepo creates a new notebook repository
func NewNotebookRepo(db *mongo.Database) NotebookRepo {
	return &notebookRepo{
		collection: db.Collection("error_notebook"),
	}
}

func (r *notebookRepo) Add(ctx context.Context, entry *model.NotebookEntry) error {
	entry.ID = model.NotebookEntryKey(entry.UserID, entry.QuestionID)
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, opts)
	return err
}

func (r *notebookRepo) Remove(ctx context.Context, userID, questionID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": model.NotebookEntryKey(userID, questionID)})
	return err
}

func (r *notebookRepo) ListIDs(ctx context.Context, userID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"questionId": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		QuestionID string `bson:"questionId"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.QuestionID)
	}
	return ids, nil
}
