package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ministryofjustice/offender-case-notes/internal/alertnotes"
	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
	"github.com/ministryofjustice/offender-case-notes/internal/api"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/service"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/merge"
	"github.com/ministryofjustice/offender-case-notes/internal/nomissync"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/config"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/httpserver"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/kafka"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/kafka/consumer"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/logger"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/postgres"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/redis"
	"github.com/ministryofjustice/offender-case-notes/internal/prisons"
	"github.com/ministryofjustice/offender-case-notes/internal/reconciliation"
	"github.com/ministryofjustice/offender-case-notes/internal/users"
	"github.com/ministryofjustice/offender-case-notes/internal/verification"
)

// main wires dependencies and runs the HTTP server and the event consumer
// until a shutdown signal arrives. Business logic lives in the internal
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("open postgres", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "err", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	kafkaClient, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		log.Error("connect kafka", "err", err)
		os.Exit(1)
	}
	defer kafkaClient.Close()

	if err := kafka.EnsureTopics(ctx, kafkaClient, cfg.Kafka); err != nil {
		log.Error("ensure topics", "err", err)
		os.Exit(1)
	}

	m := metrics.New()

	noteStore := store.NewPostgres(db)
	registry := types.NewPostgres(db)
	publisher := events.NewKafkaPublisher(kafkaClient, cfg.Kafka.EventsTopic, m)

	alertsClient := alerts.NewClient(cfg.Alerts, m)
	prisonsClient := prisons.NewClient(cfg.PrisonerSearchURL)
	usersClient := users.NewClient(cfg.ManageUsersURL)
	systemUser := users.NewSystemUserCache(usersClient, log)

	gate := prisons.NewAlertGate(rdb)

	notesService, err := service.New(noteStore, registry, publisher, log)
	if err != nil {
		log.Error("build case notes service", "err", err)
		os.Exit(1)
	}
	syncService := nomissync.New(noteStore, registry, publisher, m, log)

	alertHandler := alertnotes.NewHandler(
		alertsClient, prisonsClient, gate, usersClient,
		noteStore, registry, publisher, systemUser, log,
	)
	reconciler := reconciliation.New(
		alertsClient, noteStore, registry, publisher, systemUser, m, log,
		cfg.ReconciliationWritesEnabled,
	)
	verifier := verification.New(
		noteStore, registry, publisher, systemUser, m, log,
		cfg.ReconciliationWritesEnabled,
	)
	mergeHandler := merge.NewHandler(noteStore, m, log)

	router := events.NewRouter(log)
	router.Register(events.TypeAlertCreated, func(ctx context.Context, detail json.RawMessage) error {
		var ev events.AlertEvent
		if err := json.Unmarshal(detail, &ev); err != nil {
			return err
		}
		return alertHandler.HandleCreated(ctx, ev)
	})
	router.Register(events.TypeAlertInactive, func(ctx context.Context, detail json.RawMessage) error {
		var ev events.AlertEvent
		if err := json.Unmarshal(detail, &ev); err != nil {
			return err
		}
		return alertHandler.HandleInactive(ctx, ev)
	})
	router.Register(events.TypePrisonerMerged, func(ctx context.Context, detail json.RawMessage) error {
		var ev events.MergeEvent
		if err := json.Unmarshal(detail, &ev); err != nil {
			return err
		}
		return mergeHandler.Handle(ctx, ev)
	})
	router.Register(events.TypeReconciliationTrigger, func(ctx context.Context, detail json.RawMessage) error {
		var trig events.ReconciliationTrigger
		if err := json.Unmarshal(detail, &trig); err != nil {
			return err
		}
		if err := reconciler.Run(ctx, trig.PersonIdentifier, trig.From, trig.To); err != nil {
			return err
		}
		alertList, err := alertsClient.CaseNoteAlerts(ctx, trig.PersonIdentifier, trig.From, trig.To)
		if err != nil {
			return err
		}
		for _, a := range alertList {
			if err := verifier.Verify(ctx, trig.PersonIdentifier, a); err != nil {
				return err
			}
		}
		return nil
	})

	checks := map[string]api.HealthChecker{
		"db":    db.PingContext,
		"kafka": func(ctx context.Context) error { return kafka.Ping(ctx, kafkaClient) },
	}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}

	republisher := events.NewRepublisher(kafkaClient, cfg.Kafka.TriggerTopic, log)
	handler := api.NewHandler(notesService, syncService, republisher, checks, log)
	srv := httpserver.New(cfg.Addr, api.NewRouter(handler, cfg.JWTVerifyingKey, log))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting offender-case-notes", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		err := consumer.New(kafkaClient, router, log).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
