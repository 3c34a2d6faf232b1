// The server binary runs the intake gateway: the mail webhook, the admin
// API, and the subscription renewal loop. Document processing runs in the
// worker binary; the two share only Postgres and the queue.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	clientservice "docuflow/internal/client/service"
	clientstore "docuflow/internal/client/store"
	"docuflow/internal/docstore"
	doctypeservice "docuflow/internal/doctype/service"
	doctypestore "docuflow/internal/doctype/store"
	httpapi "docuflow/internal/http"
	"docuflow/internal/intake"
	"docuflow/internal/intake/clientstate"
	"docuflow/internal/intake/mailsource"
	intakemetrics "docuflow/internal/intake/metrics"
	"docuflow/internal/platform/config"
	"docuflow/internal/platform/httpserver"
	"docuflow/internal/platform/kafka/producer"
	"docuflow/internal/platform/logger"
	reqmetrics "docuflow/internal/requirement/metrics"
	requirementservice "docuflow/internal/requirement/service"
	requirementstore "docuflow/internal/requirement/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New("docuflow-server")

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

	clients := clientservice.New(clientstore.NewPostgres(db), clientservice.WithLogger(log))
	docTypes := doctypeservice.New(doctypestore.NewPostgres(db))
	requirements := requirementservice.New(
		requirementstore.NewPostgres(db),
		clientstore.NewPostgres(db),
		doctypestore.NewPostgres(db),
		requirementservice.WithLogger(log),
		requirementservice.WithMetrics(reqmetrics.New()),
		requirementservice.WithStorage(docstore.NewInMemory()),
	)

	queue, err := producer.New(cfg.Kafka.Brokers, cfg.Kafka.IntakeTopic)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	tokens := clientstate.New(cfg.MailSource.ClientStateSecret)
	source := mailsource.NewClient(cfg.MailSource, nil)
	metrics := intakemetrics.New()
	webhook := intake.NewWebhookHandler(
		source,
		intake.NewPublisher(queue),
		tokens,
		cfg.MailSource.Mailbox,
		log,
		metrics,
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Webhook:      webhook,
		Clients:      clients,
		DocTypes:     docTypes,
		Requirements: requirements,
		AdminToken:   cfg.Server.AdminToken,
		Logger:       log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("intake gateway listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		renewer := mailsource.NewRenewer(source, tokens, cfg.MailSource, log, metrics)
		return renewer.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("intake gateway exited", "error", err)
		os.Exit(1)
	}
	log.Info("intake gateway stopped")
}
