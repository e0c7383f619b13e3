package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	analyticsapp "github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/application"
	analyticshttp "github.com/Lavanya13-S/StreetFood-Connect/internal/analytics/infrastructure/http"
	catalogapp "github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/application"
	cataloghttp "github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/infrastructure/http"
	catalogpg "github.com/Lavanya13-S/StreetFood-Connect/internal/catalog/infrastructure/postgres"
	identityapp "github.com/Lavanya13-S/StreetFood-Connect/internal/identity/application"
	identityhttp "github.com/Lavanya13-S/StreetFood-Connect/internal/identity/infrastructure/http"
	identitypg "github.com/Lavanya13-S/StreetFood-Connect/internal/identity/infrastructure/postgres"
	orderapp "github.com/Lavanya13-S/StreetFood-Connect/internal/order/application"
	orderhttp "github.com/Lavanya13-S/StreetFood-Connect/internal/order/infrastructure/http"
	orderkafka "github.com/Lavanya13-S/StreetFood-Connect/internal/order/infrastructure/kafka"
	orderpg "github.com/Lavanya13-S/StreetFood-Connect/internal/order/infrastructure/postgres"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/config"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/httpx"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/idempotency"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/logging"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/metrics"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/outbox"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/pgstore"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/shutdown"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/tracing"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "marketplace-api", cfg.Tracing.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	// Postgres Setup
	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pgstore.Migrate(ctx, pool); err != nil {
		log.Error("pg migrate failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	// Kafka producer
	writer := orderkafka.NewWriter(log, cfg.Kafka.Brokers)
	defer writer.Close()

	guard, err := access.NewGuard()
	if err != nil {
		log.Error("access guard init failed", "err", err)
		os.Exit(1)
	}

	// Services
	identitySvc := identityapp.NewService(log, identitypg.NewRepository(log, pool), identityapp.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	catalogSvc := catalogapp.NewService(log, catalogpg.NewRepository(log, pool), guard)
	orderRepo := orderpg.NewRepository(log, pool)
	orderSvc := orderapp.NewService(log, orderRepo, priceBook{catalog: catalogSvc}, profileSource{identity: identitySvc}, guard,
		orderapp.WithIdempotency(idempotency.NewStore(rdb, cfg.Redis.IdempotencyTTL)))
	analyticsSvc := analyticsapp.NewService(log, orderRepo, guard)

	// Outbox relay
	dispatch := outbox.NewDispatcher(log, writer, cfg.Kafka.OutboxTopic)
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), dispatch, relayID())

	identityH := identityhttp.NewHandler(log, identitySvc)
	catalogH := cataloghttp.NewHandler(log, catalogSvc)
	orderH := orderhttp.NewHandler(log, orderSvc)
	analyticsH := analyticshttp.NewHandler(log, analyticsSvc, cfg.Analytics.WindowDays)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics("api", reg)

	// HTTP server
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, logging.Middleware(log), m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if err := pool.Ping(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, map[string]string{"status": status})
	})
	r.Handle("/metrics", m.Handler())
	r.Route("/api", func(api chi.Router) {
		identityH.Public(api)
		catalogH.Public(api)
		api.Group(func(api chi.Router) {
			api.Use(identityhttp.Authenticate(log, identitySvc))
			identityH.Protected(api)
			catalogH.Protected(api)
			orderH.Protected(api)
			analyticsH.Protected(api)
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Run relay
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	// Run HTTP
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdown.Drain(log, 10*time.Second, srv.Shutdown, tp.Shutdown)
	log.Info("marketplace-api shutdown complete")
}

func relayID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "local"
	}
	return "marketplace-relay-" + host
}
