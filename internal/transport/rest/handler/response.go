package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"simulados/internal/service"
)

// AttemptsListPath is where clients send the user when an attempt cannot be opened
const AttemptsListPath = "/app/simulados"

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

var errorStatus = []struct {
	err      error
	status   int
	redirect bool
}{
	{service.ErrAttemptDataMissing, http.StatusNotFound, true},
	{service.ErrParentExamMissing, http.StatusNotFound, true},
	{service.ErrQuestionOrderEmpty, http.StatusUnprocessableEntity, true},
	{service.ErrQuestionSetEmpty, http.StatusUnprocessableEntity, true},
	{service.ErrPersistenceWriteFailed, http.StatusServiceUnavailable, false},
	{service.ErrReportNotFound, http.StatusNotFound, false},
	{service.ErrSessionNotFound, http.StatusNotFound, false},
	{service.ErrReviewMode, http.StatusConflict, false},
	{service.ErrNotActive, http.StatusConflict, false},
	{service.ErrUnknownQuestion, http.StatusBadRequest, false},
	{service.ErrInvalidAlternative, http.StatusBadRequest, false},
	{service.ErrInvalidToken, http.StatusUnauthorized, false},
}

// statusFor maps a service error to its HTTP status and whether the client
// should leave the attempt
func statusFor(err error) (int, bool) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.redirect
		}
	}
	return http.StatusInternalServerError, false
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, redirect := statusFor(err)
	body := map[string]interface{}{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	if redirect {
		body["redirect"] = AttemptsListPath
	}
	if errors.Is(err, service.ErrPersistenceWriteFailed) {
		body["retryable"] = true
	}
	writeJSON(w, status, body)
}
