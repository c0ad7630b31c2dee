package service

import "errors"

// Load failures. The attempt cannot be shown; callers send the user back to the attempts list.
var (
	ErrAttemptDataMissing = errors.New("attempt not found")
	ErrParentExamMissing  = errors.New("parent exam not found")
	ErrQuestionOrderEmpty = errors.New("attempt has no question order")
	ErrQuestionSetEmpty   = errors.New("none of the attempt questions could be loaded")
)

// Finalization outcomes
var (
	// ErrPersistenceWriteFailed is retryable: the user may invoke finish again.
	ErrPersistenceWriteFailed = errors.New("failed to persist attempt result")
	// ErrAlreadyFinalized means another trigger (or device) already finished the attempt.
	ErrAlreadyFinalized = errors.New("attempt already finalized")
	ErrReportNotFound   = errors.New("performance report not available")
)

// Session errors
var (
	ErrReviewMode         = errors.New("attempt is open in review mode")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotActive          = errors.New("session is not active")
	ErrUnknownQuestion    = errors.New("question is not part of this attempt")
	ErrInvalidAlternative = errors.New("alternative does not exist for this question")
)

var ErrInvalidToken = errors.New("invalid or expired token")
