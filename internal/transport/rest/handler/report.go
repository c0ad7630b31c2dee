package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"simulados/internal/service"
	"simulados/internal/transport/rest/middleware"
)

// ReportHandler handles performance report, ranking and notebook reads
type ReportHandler struct {
	reports  *service.ReportService
	rankings *service.RankingService
	notebook *service.NotebookService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, rankings *service.RankingService, notebook *service.NotebookService) *ReportHandler {
	return &ReportHandler{
		reports:  reports,
		rankings: rankings,
		notebook: notebook,
	}
}

// GetReport handles GET /v1/attempts/{attemptId}/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, err := h.reports.Get(r.Context(), identity.UserID, mux.Vars(r)["attemptId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Leaderboard handles GET /v1/rankings/{examId}?top=N
func (h *ReportHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	examID := mux.Vars(r)["examId"]

	limit := service.DefaultLeaderboardSize
	if top := r.URL.Query().Get("top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.rankings.Top(r.Context(), examID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"examId":      examID,
		"leaderboard": entries,
	})
}

// NotebookIDs handles GET /v1/notebook
func (h *ReportHandler) NotebookIDs(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ids, err := h.notebook.IDs(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questionIds": ids})
}
