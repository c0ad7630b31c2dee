package model

import (
	"regexp"
	"time"
)

// ExamType distinguishes private exams from the shared weekly exam
type ExamType string

const (
	ExamTypeStandard ExamType = "simulado"
	ExamTypeWeekly   ExamType = "semanal"
)

// RecommendedSecondsPerQuestion is the default time budget per question (2m40s)
const RecommendedSecondsPerQuestion = 160

var weeklyIDPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsWeeklyExamID reports whether a parent exam id names a weekly exam (YYYY-MM-DD)
func IsWeeklyExamID(id string) bool {
	return weeklyIDPattern.MatchString(id)
}

// Exam is the parent definition an attempt is created from
type Exam struct {
	ID                     string    `json:"id" bson:"_id"`
	UserID                 string    `json:"userId,omitempty" bson:"userId,omitempty"` // empty for weekly exams
	Title                  string    `json:"title" bson:"title"`
	Type                   ExamType  `json:"type" bson:"type"`
	TotalDurationInSeconds int       `json:"totalDurationInSeconds,omitempty" bson:"totalDurationInSeconds,omitempty"`
	LastFinishedAttemptID  string    `json:"lastFinishedAttemptId,omitempty" bson:"lastFinishedAttemptId,omitempty"`
	IsFinished             bool      `json:"isFinished" bson:"isFinished"`
	CreatedAt              time.Time `json:"createdAt" bson:"createdAt"`
}

// IsWeekly reports whether the exam is the shared recurring exam
func (e *Exam) IsWeekly() bool {
	return e.Type == ExamTypeWeekly
}

// AllottedSeconds returns the exam duration, falling back to perQuestion
// seconds per question (RecommendedSecondsPerQuestion when perQuestion <= 0)
func (e *Exam) AllottedSeconds(questionCount, perQuestion int) int {
	if e.TotalDurationInSeconds > 0 {
		return e.TotalDurationInSeconds
	}
	if perQuestion <= 0 {
		perQuestion = RecommendedSecondsPerQuestion
	}
	return questionCount * perQuestion
}
