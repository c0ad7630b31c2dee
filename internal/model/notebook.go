package model

import "time"

// NotebookEntry is a question the user saved to their error notebook
type NotebookEntry struct {
	ID         string    `json:"id" bson:"_id"` // userId_questionId
	UserID     string    `json:"userId" bson:"userId"`
	QuestionID string    `json:"questionId" bson:"questionId"`
	Question   Question  `json:"question" bson:"question"`
	UserAnswer string    `json:"userAnswer,omitempty" bson:"userAnswer,omitempty"`
	AddedAt    time.Time `json:"addedAt" bson:"addedAt"`
}

// NotebookEntryKey builds the document key for a notebook entry
func NotebookEntryKey(userID, questionID string) string {
	return userID + "_" + questionID
}
