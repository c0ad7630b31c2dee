package service

// Event types pushed to an attempt's live stream
const (
	EventState           = "state"
	EventTick            = "tick"
	EventTimeout         = "timeout"
	EventFinalized       = "finalized"
	EventFinalizeFailed  = "finalize_failed"
	EventReviewMarkError = "review_mark_error"
	EventNotebook        = "notebook"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToAttempt(attemptID string, msgType string, payload interface{})
	DisconnectAttempt(attemptID string)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToAttempt(string, string, interface{}) {}
func (noopBroadcaster) DisconnectAttempt(string)                       {}
