package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/salvalabdesarollo-source/dashboard/internal/api"
	"github.com/salvalabdesarollo-source/dashboard/internal/config"
	"github.com/salvalabdesarollo-source/dashboard/internal/db"
	"github.com/salvalabdesarollo-source/dashboard/internal/push"
	"github.com/salvalabdesarollo-source/dashboard/internal/redisclient"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log := newLogger(cfg.Env)
	defer log.Sync() //nolint:errcheck

	log.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()

	if err := db.Migrate(rootCtx, pgPool); err != nil {
		log.Fatal("migration error", zap.Error(err))
	}
	log.Info("connected to Postgres")

	rdb, err := redisclient.New(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("error closing redis", zap.Error(err))
		}
	}()
	log.Info("connected to Redis")

	bus := redisclient.NewEventBus(rdb, cfg.PushChannel)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	repo := scan.NewPgRepository(pgPool)
	svc := scan.NewService(repo, locker, bus, cfg.BusinessTZ, log)

	hub := push.NewHub(log)
	go func() {
		if err := hub.Run(rootCtx, bus); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("push hub stopped", zap.Error(err))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		PgPool:      pgPool,
		Redis:       rdb,
		Log:         log,
		PageLimit:   cfg.PageLimit,
		Env:         cfg.Env,
		Version:     version,
		PushHandler: hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var logCfg zap.Config
	if env == "prod" {
		logCfg = zap.NewProductionConfig()
	} else {
		logCfg = zap.NewDevelopmentConfig()
	}
	logCfg.OutputPaths = []string{"stdout"}

	log, err := logCfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return log
}
