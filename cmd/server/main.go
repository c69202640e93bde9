package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "irdesk/internal/jwt_token"
	"irdesk/internal/platform/config"
	"irdesk/internal/platform/database"
	"irdesk/internal/platform/httpserver"
	"irdesk/internal/platform/logger"
	platformmetrics "irdesk/internal/platform/metrics"
	platformredis "irdesk/internal/platform/redis"
	"irdesk/internal/verification/guard"
	"irdesk/internal/verification/handler"
	"irdesk/internal/verification/jobs"
	"irdesk/internal/verification/metrics"
	"irdesk/internal/verification/service"
	authmw "irdesk/pkg/platform/middleware/auth"
	"irdesk/pkg/platform/middleware/metadata"
	"irdesk/pkg/platform/middleware/request"
	"irdesk/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	configFile := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("postgres connected")
	} else {
		log.Warn("no database configured, using in-memory stores")
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	}

	infra, err := buildInfra(ctx, cfg, db, rdb, log)
	if err != nil {
		return err
	}
	defer infra.close()

	reg := prometheus.DefaultRegisterer
	verificationMetrics := metrics.New(reg)
	httpMetrics := platformmetrics.New(reg)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithAuditPublisher(infra.audit),
		service.WithMetrics(verificationMetrics),
		service.WithNotifier(infra.notifier),
		service.WithLoginLink(cfg.Verification.LoginLink),
		service.WithUniqueIdentity(cfg.Verification.UniqueIdentity),
	}
	if infra.registry != nil {
		opts = append(opts, service.WithRegistry(infra.registry))
	}
	svc := service.New(infra.applicants, guard.New(infra.applicants), opts...)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	h := handler.New(svc, log, handler.WithRevoker(infra.revocations))

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(httpMetrics.Middleware)

	h.Register(r)
	r.Group(func(admin chi.Router) {
		admin.Use(authmw.RequireReviewer(jwttoken.NewValidator(jwtService), infra.revocations, log))
		h.RegisterAdmin(admin)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(db, rdb))

	refresher := jobs.NewGaugeRefresher(infra.applicants, verificationMetrics, log)
	scheduler := jobs.NewScheduler(log)
	if err := scheduler.Add("applicant_gauges", cfg.Jobs.GaugeRefreshSchedule, refresher.Run); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	srv := httpserver.New(cfg.Server, r)
	log.Info("starting irdesk", "addr", cfg.Server.Addr, "environment", cfg.Environment)
	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}

func healthz(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
