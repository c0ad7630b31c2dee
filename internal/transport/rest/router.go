package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"simulados/internal/config"
	"simulados/internal/metrics"
	"simulados/internal/service"
	"simulados/internal/transport/rest/handler"
	"simulados/internal/transport/rest/middleware"
	"simulados/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	Sessions        *service.SessionManager
	ReportService   *service.ReportService
	RankingService  *service.RankingService
	NotebookService *service.NotebookService
	WSHandler       *ws.Handler
	RateLimiter     *middleware.RateLimiter
	CORS            config.CORSConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(c.Sessions)
	reportHandler := handler.NewReportHandler(c.ReportService, c.RankingService, c.NotebookService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(middleware.CORS(c.CORS))
	r.Use(middleware.Metrics)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/rankings/{examId}", reportHandler.Leaderboard).Methods("GET", "OPTIONS")

	// WebSocket routes (token in query param)
	if c.WSHandler != nil {
		v1.HandleFunc("/ws/attempts/{attemptId}", c.WSHandler.AttemptWS).Methods("GET")
	}

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)
	if c.RateLimiter != nil {
		userRoutes.Use(c.RateLimiter.Middleware)
	}

	userRoutes.HandleFunc("/attempts/{attemptId}/report", reportHandler.GetReport).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/notebook", reportHandler.NotebookIDs).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/attempts/{attemptId}/session", sessionHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/attempts/{attemptId}/session", sessionHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/attempts/{attemptId}/session", sessionHandler.Close).Methods("DELETE", "OPTIONS")

	session := userRoutes.PathPrefix("/attempts/{attemptId}/session").Subrouter()
	session.HandleFunc("/answers/{questionId}", sessionHandler.SetAnswer).Methods("PUT", "OPTIONS")
	session.HandleFunc("/answers/{questionId}/strike", sessionHandler.SetStrikeOut).Methods("PUT", "OPTIONS")
	session.HandleFunc("/review-marks/{questionId}/toggle", sessionHandler.ToggleReviewMark).Methods("POST", "OPTIONS")
	session.HandleFunc("/navigate", sessionHandler.Navigate).Methods("POST", "OPTIONS")
	session.HandleFunc("/finish", sessionHandler.RequestFinish).Methods("POST", "OPTIONS")
	session.HandleFunc("/finish/confirm", sessionHandler.ConfirmFinish).Methods("POST", "OPTIONS")
	session.HandleFunc("/finish/cancel", sessionHandler.CancelFinish).Methods("POST", "OPTIONS")
	session.HandleFunc("/notebook/{questionId}", sessionHandler.AddToNotebook).Methods("PUT", "OPTIONS")
	session.HandleFunc("/notebook/{questionId}", sessionHandler.RemoveFromNotebook).Methods("DELETE", "OPTIONS")

	return r
}
