package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"simulados/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		redirect bool
	}{
		{service.ErrAttemptDataMissing, http.StatusNotFound, true},
		{service.ErrQuestionSetEmpty, http.StatusUnprocessableEntity, true},
		{fmt.Errorf("%w: commit attempt: %w", service.ErrPersistenceWriteFailed, errors.New("timeout")), http.StatusServiceUnavailable, false},
		{service.ErrReviewMode, http.StatusConflict, false},
		{fmt.Errorf("%w: finish was not requested", service.ErrNotActive), http.StatusConflict, false},
		{service.ErrUnknownQuestion, http.StatusBadRequest, false},
		{service.ErrInvalidToken, http.StatusUnauthorized, false},
		{errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		status, redirect := statusFor(tt.err)
		if status != tt.status || redirect != tt.redirect {
			t.Errorf("statusFor(%v) = %d, %v; want %d, %v", tt.err, status, redirect, tt.status, tt.redirect)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "load failure redirects",
			err:  service.ErrParentExamMissing,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["redirect"] != AttemptsListPath {
					t.Fatalf("redirect = %v", body["redirect"])
				}
			},
		},
		{
			name: "persistence failure is retryable",
			err:  fmt.Errorf("%w: save report: %w", service.ErrPersistenceWriteFailed, errors.New("x")),
			check: func(t *testing.T, body map[string]interface{}) {
				if body["retryable"] != true {
					t.Fatalf("retryable = %v", body["retryable"])
				}
			},
		},
		{
			name: "internal errors are masked",
			err:  errors.New("mongo: connection string leaked"),
			check: func(t *testing.T, body map[string]interface{}) {
				if body["error"] != "internal error" {
					t.Fatalf("error = %v", body["error"])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)

			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			tt.check(t, body)
		})
	}
}
