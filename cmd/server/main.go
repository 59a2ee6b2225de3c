package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/apperr"
	"github.com/treenetra/treenetra/internal/config"
	"github.com/treenetra/treenetra/internal/database"
	"github.com/treenetra/treenetra/internal/handler"
	"github.com/treenetra/treenetra/internal/logger"
	"github.com/treenetra/treenetra/internal/queue"
	"github.com/treenetra/treenetra/internal/repository"
	"github.com/treenetra/treenetra/internal/router"
	"github.com/treenetra/treenetra/internal/service"
)

func main() {
	// .env is a development convenience; in production the environment is
	// already populated and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()
	audit := logger.NewAudit(cfg.AuditLogFile, log)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("opening database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; cache and limiter degrade to no-ops

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	species := repository.NewSpeciesRepo(db)
	trees := repository.NewTreeRepo(db)
	health := repository.NewHealthRepo(db)
	analytics := repository.NewAnalyticsRepo(db)

	mailer, err := service.NewMailer(cfg, log)
	if err != nil {
		log.Fatal("configuring mailer", zap.Error(err))
	}
	go queue.StartEmailConsumer(mailer, log)

	publisher := service.NewEmailPublisher(log)
	auth := service.NewAuthService(cfg, users, tokens, publisher, log)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(log, cfg.Env == "dev")
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, router.Deps{
		Auth:      handler.NewAuthHandler(auth),
		Species:   handler.NewSpeciesHandler(species),
		Trees:     handler.NewTreeHandler(trees, species),
		Health:    handler.NewHealthRecordHandler(health, trees),
		Users:     handler.NewUserHandler(users, tokens, cfg.BcryptCost),
		Analytics: handler.NewAnalyticsHandler(analytics, trees),
		Healthz:   handler.Healthz(db),

		UserStore: users,
		JWTSecret: cfg.JWTSecret,
		Audit:     audit,
		Log:       log,

		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	})

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal("server stopped", zap.Error(err))
	}
}
