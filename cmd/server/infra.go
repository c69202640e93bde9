package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	jwttoken "irdesk/internal/jwt_token"
	"irdesk/internal/notification"
	"irdesk/internal/platform/config"
	platformredis "irdesk/internal/platform/redis"
	"irdesk/internal/registry"
	registrystore "irdesk/internal/registry/store"
	"irdesk/internal/verification/guard"
	"irdesk/internal/verification/jobs"
	"irdesk/internal/verification/service"
	verificationstore "irdesk/internal/verification/store"
	audit "irdesk/pkg/platform/audit"
	"irdesk/pkg/platform/audit/publisher"
	auditmemory "irdesk/pkg/platform/audit/store/memory"
	auditpostgres "irdesk/pkg/platform/audit/store/postgres"
)

type applicantStore interface {
	service.ApplicantStore
	guard.Finder
	jobs.Counter
}

type revocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// infra holds the storage and delivery adapters selected by configuration.
type infra struct {
	applicants  applicantStore
	registry    registrystore.Source
	notifier    notification.Sender
	audit       *publisher.Publisher
	revocations revocationList
	closers     []func()
}

// close releases adapters in reverse order of construction.
func (i *infra) close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func buildInfra(ctx context.Context, cfg config.Config, db *sql.DB, rdb *platformredis.Client, log *slog.Logger) (*infra, error) {
	in := &infra{}

	var auditStore audit.Store
	if db != nil {
		in.applicants = verificationstore.NewPostgres(db)
		in.registry = registrystore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		in.applicants = verificationstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		// An empty in-memory registry would reject every claim, so matching
		// stays manual unless a seed file is given.
		if cfg.Registry.SeedFile != "" {
			in.registry = registrystore.NewInMemory()
		}
	}

	if rdb != nil {
		if in.registry != nil {
			in.registry = registrystore.NewRedisCache(rdb.Client, in.registry, cfg.Registry.CacheTTL,
				registrystore.WithCacheLogger(log))
		}
		in.revocations = jwttoken.NewRedisRevocationList(rdb.Client)
	} else {
		in.revocations = jwttoken.NewInMemoryRevocationList()
	}

	if cfg.Registry.SeedFile != "" {
		n, err := registry.LoadSeedFile(ctx, cfg.Registry.SeedFile, in.registry)
		if err != nil {
			return nil, err
		}
		log.Info("registry seeded", "file", cfg.Registry.SeedFile, "holders", n)
	}

	notifier, closeNotifier, err := buildNotifier(cfg.Notification, log)
	if err != nil {
		return nil, err
	}
	in.notifier = notifier
	in.closers = append(in.closers, closeNotifier)

	in.audit = publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Verification.AuditBuffer),
		publisher.WithLogger(log))
	// Registered last so pending audit events drain before brokers close.
	in.closers = append(in.closers, in.audit.Close)

	return in, nil
}

func buildNotifier(cfg config.NotificationConfig, log *slog.Logger) (notification.Sender, func(), error) {
	switch cfg.Driver {
	case "kafka":
		s, err := notification.NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka notifier: %w", err)
		}
		log.Info("notifications via kafka", "topic", cfg.KafkaTopic)
		return s, s.Close, nil
	case "amqp":
		s, err := notification.NewAMQPSender(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp notifier: %w", err)
		}
		log.Info("notifications via amqp", "exchange", cfg.AMQPExchange)
		return s, s.Close, nil
	default:
		return notification.NewLogSender(log), func() {}, nil
	}
}
