package model

// SessionState is the lifecycle state of an attempt session
type SessionState string

const (
	SessionLoading    SessionState = "loading"
	SessionActive     SessionState = "active"
	SessionReviewOnly SessionState = "review_only"
	SessionFinalizing SessionState = "finalizing"
	SessionFinished   SessionState = "finished"
	SessionStatsOnly  SessionState = "stats_only"
)

// FinishTrigger names what started a finalization
type FinishTrigger string

const (
	TriggerUser    FinishTrigger = "user"
	TriggerTimeout FinishTrigger = "timeout"
)

// StartSessionRequest is the request body for opening an attempt session.
// The exam descriptor is always read from storage, never from the client.
type StartSessionRequest struct {
	Review      bool                   `json:"review"`
	ElapsedSeed *int                   `json:"elapsedSeed,omitempty"`
	StartIndex  int                    `json:"startIndex"`
	SeedAnswers map[string]AnswerState `json:"seedAnswers,omitempty"`
	StatsOnly   bool                   `json:"statsOnly"`
}

// AreaProgress is the live answered/total count for one area
type AreaProgress struct {
	Area       string  `json:"area"`
	Answered   int     `json:"answered"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// QuestionView is the current question with the user's state attached
type QuestionView struct {
	Index          int         `json:"index"`
	Question       Question    `json:"question"`
	Answer         AnswerState `json:"answer"`
	MarkedReview   bool        `json:"markedForReview"`
	InNotebook     bool        `json:"inNotebook"`
	IsLastQuestion bool        `json:"isLastQuestion"`
}

// SessionView is the serializable snapshot of a session
type SessionView struct {
	AttemptID       string             `json:"attemptId"`
	ExamID          string             `json:"examId"`
	ExamTitle       string             `json:"examTitle,omitempty"`
	State           SessionState       `json:"state"`
	Cursor          int                `json:"cursor"`
	TotalQuestions  int                `json:"totalQuestions"`
	Elapsed         int                `json:"elapsed"`
	Allotted        int                `json:"allotted"`
	Remaining       string             `json:"remaining"`
	ClockRunning    bool               `json:"clockRunning"`
	ConfirmPending  bool               `json:"confirmPending"`
	AnsweredCount   int                `json:"answeredCount"`
	MarkedForReview []string           `json:"markedForReview"`
	AreaProgress    []AreaProgress     `json:"areaProgress,omitempty"`
	Current         *QuestionView      `json:"current,omitempty"`
	Report          *PerformanceReport `json:"report,omitempty"`
}
