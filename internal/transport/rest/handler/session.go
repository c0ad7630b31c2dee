package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"simulados/internal/model"
	"simulados/internal/service"
	"simulados/internal/transport/rest/middleware"
)

// SessionHandler handles attempt session endpoints
type SessionHandler struct {
	sessions *service.SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// AnswerRequest is the request body for selecting an alternative
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// StrikeRequest is the request body for eliminating an alternative
type StrikeRequest struct {
	Letter string `json:"letter"`
	Struck bool   `json:"struck"`
}

// NavigateRequest moves the cursor. Action is "next", "prev" or "jump".
type NavigateRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// Start handles POST /v1/attempts/{attemptId}/session
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.StartSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.sessions.Start(r.Context(), service.StartOptions{
		AttemptID:   mux.Vars(r)["attemptId"],
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Review:      req.Review,
		ElapsedSeed: req.ElapsedSeed,
		StartIndex:  req.StartIndex,
		SeedAnswers: req.SeedAnswers,
		StatsOnly:   req.StatsOnly,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session.View())
}

// Get handles GET /v1/attempts/{attemptId}/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

// Close handles DELETE /v1/attempts/{attemptId}/session
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.sessions.Close(mux.Vars(r)["attemptId"], identity.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAnswer handles PUT /v1/attempts/{attemptId}/session/answers/{questionId}
func (h *SessionHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := session.SetAnswer(mux.Vars(r)["questionId"], req.Answer)
	respond(w, view, err)
}

// SetStrikeOut handles PUT /v1/attempts/{attemptId}/session/answers/{questionId}/strike
func (h *SessionHandler) SetStrikeOut(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req StrikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := session.SetStrikeOut(mux.Vars(r)["questionId"], req.Letter, req.Struck)
	respond(w, view, err)
}

// ToggleReviewMark handles POST /v1/attempts/{attemptId}/session/review-marks/{questionId}/toggle
func (h *SessionHandler) ToggleReviewMark(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := session.ToggleReviewMark(mux.Vars(r)["questionId"])
	respond(w, view, err)
}

// Navigate handles POST /v1/attempts/{attemptId}/session/navigate
func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		view *model.SessionView
		err  error
	)
	switch req.Action {
	case "next":
		view, err = session.Next()
	case "prev":
		view, err = session.Prev()
	case "jump":
		view, err = session.JumpTo(req.Index)
	default:
		writeError(w, http.StatusBadRequest, "action must be next, prev or jump")
		return
	}
	respond(w, view, err)
}

// RequestFinish handles POST /v1/attempts/{attemptId}/session/finish
func (h *SessionHandler) RequestFinish(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := session.RequestFinish()
	respond(w, view, err)
}

// ConfirmFinish handles POST /v1/attempts/{attemptId}/session/finish/confirm
func (h *SessionHandler) ConfirmFinish(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := session.ConfirmFinish(r.Context())
	if errors.Is(err, service.ErrAlreadyFinalized) {
		// Another trigger won; the stored report (if any) is the result
		writeJSON(w, http.StatusOK, view)
		return
	}
	respond(w, view, err)
}

// CancelFinish handles POST /v1/attempts/{attemptId}/session/finish/cancel
func (h *SessionHandler) CancelFinish(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := session.CancelFinish()
	respond(w, view, err)
}

// AddToNotebook handles PUT /v1/attempts/{attemptId}/session/notebook/{questionId}
func (h *SessionHandler) AddToNotebook(w http.ResponseWriter, r *http.Request) {
	h.setNotebook(w, r, true)
}

// RemoveFromNotebook handles DELETE /v1/attempts/{attemptId}/session/notebook/{questionId}
func (h *SessionHandler) RemoveFromNotebook(w http.ResponseWriter, r *http.Request) {
	h.setNotebook(w, r, false)
}

func (h *SessionHandler) setNotebook(w http.ResponseWriter, r *http.Request, add bool) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := session.SetNotebook(r.Context(), mux.Vars(r)["questionId"], add)
	respond(w, view, err)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	session, err := h.sessions.Get(mux.Vars(r)["attemptId"], identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return session, true
}

func respond(w http.ResponseWriter, view *model.SessionView, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
