package model

import "time"

// AnswerState is the user's mutable state for one question
type AnswerState struct {
	SelectedAnswer string          `json:"selectedAnswer,omitempty" bson:"selectedAnswer,omitempty"` // empty = unanswered
	StruckOut      map[string]bool `json:"struckOut,omitempty" bson:"struckOut,omitempty"`
}

// Answered reports whether an alternative is selected
func (a AnswerState) Answered() bool {
	return a.SelectedAnswer != ""
}

// Clone returns a deep copy
func (a AnswerState) Clone() AnswerState {
	out := AnswerState{SelectedAnswer: a.SelectedAnswer}
	if len(a.StruckOut) > 0 {
		out.StruckOut = make(map[string]bool, len(a.StruckOut))
		for k, v := range a.StruckOut {
			out.StruckOut[k] = v
		}
	}
	return out
}

// Attempt is one user's run through a fixed, ordered question set
type Attempt struct {
	ID              string                 `json:"id" bson:"_id"`
	UserID          string                 `json:"userId" bson:"userId"`
	SimuladoID      string                 `json:"simuladoId" bson:"simuladoId"`
	Type            ExamType               `json:"type,omitempty" bson:"type,omitempty"`
	QuestionOrder   []string               `json:"questionOrder" bson:"questionOrder"`
	UserAnswers     map[string]AnswerState `json:"userAnswers" bson:"userAnswers"`
	MarkedForReview []string               `json:"markedForReview" bson:"markedForReview"`
	TimeTaken       int                    `json:"timeTaken" bson:"timeTaken"`
	IsFinished      bool                   `json:"isFinished" bson:"isFinished"`
	CreatedAt       time.Time              `json:"createdAt" bson:"createdAt"`
	FinishedAt      *time.Time             `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"`
}

// IsWeekly reports whether the attempt belongs to the weekly exam
func (a *Attempt) IsWeekly() bool {
	return a.Type == ExamTypeWeekly
}

// AttemptProgress is the periodically mirrored subset of an active attempt
type AttemptProgress struct {
	UserAnswers map[string]AnswerState `bson:"userAnswers"`
	TimeTaken   int                    `bson:"timeTaken"`
}

// AttemptFinal is the state written when an attempt is finalized
type AttemptFinal struct {
	UserAnswers     map[string]AnswerState `bson:"userAnswers"`
	MarkedForReview []string               `bson:"markedForReview"`
	TimeTaken       int                    `bson:"timeTaken"`
	FinishedAt      time.Time              `bson:"finishedAt"`
}
