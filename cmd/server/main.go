package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"simulados/internal/app"
	"simulados/internal/config"
	"simulados/internal/logger"
	"simulados/internal/metrics"
	"simulados/internal/transport/rest"
	"simulados/internal/transport/rest/middleware"
	"simulados/internal/transport/ws"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg)
	defer log.Sync()

	metrics.Init()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	db := mongoClient.Database(cfg.Mongo.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URI,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("failed to ping Redis", zap.Error(err))
	}
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.URI))

	a := app.New(db, rdb, cfg, log)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	wsHub := ws.NewHub(log)
	a.Sessions.SetBroadcaster(wsHub)

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go a.Sessions.RunJanitor(bgCtx, time.Minute, 30*time.Minute)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Cleanup(time.Minute, 10*time.Minute, bgCtx.Done())

	router := rest.NewRouter(&rest.Container{
		AuthService:     a.AuthService,
		Sessions:        a.Sessions,
		ReportService:   a.ReportService,
		RankingService:  a.RankingService,
		NotebookService: a.NotebookService,
		WSHandler:       ws.NewHandler(wsHub, a.AuthService, a.Sessions, log),
		RateLimiter:     limiter,
		CORS:            cfg.CORS,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	stopBackground()
	if err := a.Sessions.Shutdown(shutdownCtx); err != nil {
		log.Warn("sessions did not drain", zap.Error(err))
	}

	log.Info("server exited")
}
