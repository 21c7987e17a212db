package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

type RouterConfig struct {
	Service   *scan.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       *zap.Logger
	PageLimit int
	Env       string
	Version   string

	// PushHandler serves the websocket push channel at /ws when set.
	PushHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/scans", func(r chi.Router) {
		r.Get("/", listScansHandler(cfg.Service, cfg.PageLimit))
		r.Post("/", createScanHandler(cfg.Service))
		r.Get("/occupied", occupiedSlotsHandler(cfg.Service))
		r.Get("/{id}", getScanHandler(cfg.Service))
		r.Patch("/{id}", updateScanHandler(cfg.Service))
		r.Post("/{id}/assign", assignScanHandler(cfg.Service))
		r.Post("/{id}/unassign", unassignScanHandler(cfg.Service))
		r.Post("/{id}/confirm", confirmScanHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelScanHandler(cfg.Service))
		r.Post("/{id}/scanned", markScannedHandler(cfg.Service))
	})

	r.Get("/users", listUsersHandler(cfg.Service, cfg.PageLimit))
	r.Get("/doctors", listDoctorsHandler(cfg.Service, cfg.PageLimit))
	r.Get("/clinics", listClinicsHandler(cfg.Service, cfg.PageLimit))

	if cfg.PushHandler != nil {
		r.Handle("/ws", cfg.PushHandler)
	}

	return r
}
