// cmd/surcharge-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minorder/internal/authflow"
	"minorder/internal/configapi"
	"minorder/internal/gdprapi"
	"minorder/internal/shopify"
	"minorder/internal/surcharge"
	"minorder/pkg/config"
	"minorder/pkg/db"
	"minorder/pkg/httpx"
	"minorder/pkg/logger"
	"minorder/pkg/middleware"
	"minorder/pkg/secrets"
	"minorder/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	// A missing encryption secret must stop the process here, not fail
	// per-request later.
	cipher, err := secrets.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatalw("encryption key", "err", err)
	}

	pool := db.MustConnect(cfg, log)
	var store tenants.Store
	if pool != nil {
		if err := tenants.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
		if err := tenants.SeedFromEnv(context.Background(), pool, os.Getenv("TENANT_SEED_JSON")); err != nil {
			log.Warnw("seed", "err", err)
		}
		store = tenants.NewPostgresStore(pool, log)
	} else {
		store = tenants.NewMemoryStoreFromEnv(log)
	}

	rdb := db.MustRedis(cfg, log)
	var states authflow.StateStore
	if rdb != nil {
		states = authflow.NewRedisStateStore(rdb)
	} else {
		states = authflow.NewMemoryStateStore()
	}

	provider := shopify.NewClient(cfg.APIKey, cfg.APISecret)
	authSvc := authflow.NewService(log, store, cipher, provider, states, cfg.AppURL, cfg.Scopes, cfg.WebhookTopics)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing())
	r.Use(middleware.HTTPMetrics())
	r.Use(middleware.ShopOrigin(store, cfg.AllowedOrigins, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	authflow.NewHandler(log, authSvc, cfg.AdminLandingPath).Register(r)
	surcharge.NewHandler(log, surcharge.NewEngine(store)).Register(r)
	gdprapi.NewHandler(log, cfg.APISecret).Register(r)
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.SessionToken(cfg.APIKey, cfg.APISecret))
		configapi.NewHandler(log, configapi.NewService(store)).Register(gr)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("surcharge-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("surcharge-service stopped")
}
