package app

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"simulados/internal/cache"
	"simulados/internal/config"
	"simulados/internal/repository"
	"simulados/internal/service"
)

// App wires repositories, caches and services
type App struct {
	AttemptRepo      repository.AttemptRepo
	QuestionRepo     repository.QuestionRepo
	ExamRepo         repository.ExamRepo
	ReportRepo       repository.ReportRepo
	WeeklyResultRepo repository.WeeklyResultRepo
	RankingRepo      repository.RankingRepo
	NotebookRepo     repository.NotebookRepo

	ExamCache     cache.ExamCache
	Leaderboard   cache.LeaderboardCache
	ReportCache   cache.ReportCache
	NotebookCache cache.NotebookCache

	AuthService     *service.AuthService
	ReportService   *service.ReportService
	RankingService  *service.RankingService
	NotebookService *service.NotebookService
	Loader          *service.Loader
	Finalizer       *service.Finalizer
	Sessions        *service.SessionManager
}

// New builds the application graph. rdb may be nil, which disables the Redis caches.
func New(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *App {
	a := &App{
		AttemptRepo:      repository.NewAttemptRepo(db),
		QuestionRepo:     repository.NewQuestionRepo(db),
		ExamRepo:         repository.NewExamRepo(db),
		ReportRepo:       repository.NewReportRepo(db),
		WeeklyResultRepo: repository.NewWeeklyResultRepo(db),
		RankingRepo:      repository.NewRankingRepo(db, log),
		NotebookRepo:     repository.NewNotebookRepo(db),
	}

	if rdb != nil {
		a.ExamCache = cache.NewExamCache(rdb, cfg.Simulado.ExamCacheTTL)
		a.Leaderboard = cache.NewLeaderboardCache(rdb)
		a.ReportCache = cache.NewReportCache(rdb)
		a.NotebookCache = cache.NewNotebookCache(rdb)
	}

	a.AuthService = service.NewAuthService(cfg.JWT.Secret)
	a.ReportService = service.NewReportService(a.ReportRepo, a.ReportCache, log)
	a.RankingService = service.NewRankingService(a.RankingRepo, a.Leaderboard, log)
	a.NotebookService = service.NewNotebookService(a.NotebookRepo, a.NotebookCache, log)
	a.Loader = service.NewLoader(a.AttemptRepo, a.ExamRepo, a.ExamCache, a.QuestionRepo, cfg.Simulado.QuestionChunkSize, log)
	a.Finalizer = service.NewFinalizer(
		a.AttemptRepo,
		a.ReportRepo,
		a.WeeklyResultRepo,
		a.ExamRepo,
		a.RankingService,
		a.ReportCache,
		a.ExamCache,
		log,
	)
	a.Sessions = service.NewSessionManager(
		a.Loader,
		a.Finalizer,
		a.AttemptRepo,
		a.ReportService,
		a.NotebookService,
		service.SessionConfig{
			MirrorInterval:     cfg.Simulado.MirrorInterval,
			SecondsPerQuestion: cfg.Simulado.SecondsPerQuestion,
			WriteTimeout:       cfg.Simulado.WriteTimeout,
		},
		log,
	)

	return a
}
