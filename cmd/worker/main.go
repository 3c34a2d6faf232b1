// The worker binary consumes intake messages from the queue, runs the
// document pipeline (sender resolution, matching, upload, transition,
// forwarding), and sweeps overdue requirements on a timer.
package main

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	clientservice "docuflow/internal/client/service"
	clientstore "docuflow/internal/client/store"
	"docuflow/internal/docstore"
	doctypestore "docuflow/internal/doctype/store"
	"docuflow/internal/forwarding"
	"docuflow/internal/platform/config"
	"docuflow/internal/platform/httpserver"
	"docuflow/internal/platform/kafka/consumer"
	"docuflow/internal/platform/logger"
	platformredis "docuflow/internal/platform/redis"
	"docuflow/internal/processing"
	"docuflow/internal/processing/matching"
	procmetrics "docuflow/internal/processing/metrics"
	reqmetrics "docuflow/internal/requirement/metrics"
	requirementservice "docuflow/internal/requirement/service"
	requirementstore "docuflow/internal/requirement/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New("docuflow-worker")

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("postgres unreachable", "error", err)
		os.Exit(1)
	}

	var storage docstore.Storage = docstore.NewInMemory()
	if cfg.Worker.FlakyRate > 0 {
		// Development knob: simulated storage faults with a fixed seed so a
		// failure sequence can be replayed.
		storage = docstore.NewFlaky(storage, cfg.Worker.FlakyRate, rand.New(rand.NewSource(cfg.Worker.FlakySeed)))
		log.Warn("flaky storage enabled", "rate", cfg.Worker.FlakyRate, "seed", cfg.Worker.FlakySeed)
	}
	clients := clientservice.New(clientstore.NewPostgres(db), clientservice.WithLogger(log))
	requirements := requirementservice.New(
		requirementstore.NewPostgres(db),
		clientstore.NewPostgres(db),
		doctypestore.NewPostgres(db),
		requirementservice.WithLogger(log),
		requirementservice.WithMetrics(reqmetrics.New()),
		requirementservice.WithStorage(storage),
	)

	opts := []processing.Option{
		processing.WithLogger(log),
		processing.WithMetrics(procmetrics.New()),
		processing.WithGatewayTimeout(cfg.Worker.GatewayTimeout),
	}

	// Redis is optional; without it forwarding is at-least-once.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, processing.WithDedup(processing.NewRedisDedup(redisClient.Client), cfg.Worker.DedupTTL))
	}

	processor := processing.New(
		clients,
		requirements,
		matching.NewEarliestDue(),
		storage,
		forwarding.NewSMTP(cfg.SMTP),
		opts...,
	)

	queue, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.Group, cfg.Kafka.IntakeTopic, processing.NewHandler(processor, log), log)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	metricsSrv := httpserver.New(cfg.Worker.MetricsAddr, mux)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("worker consuming", "topic", cfg.Kafka.IntakeTopic, "group", cfg.Kafka.Group)
		return queue.Run(ctx)
	})

	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Worker.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := requirements.SweepOverdue(ctx); err != nil {
					log.ErrorContext(ctx, "overdue sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("worker exited", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
