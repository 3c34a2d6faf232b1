package mailsource

import (
	"context"
	"log/slog"
	"time"

	intakemetrics "docuflow/internal/intake/metrics"
	"docuflow/internal/platform/config"
)

// ClientStateIssuer mints the client-state token embedded in a
// subscription.
type ClientStateIssuer interface {
	Generate(mailbox string, lifetime time.Duration, now time.Time) (string, error)
}

// Renewer keeps the mail-source change subscription alive. Subscriptions
// expire on the provider's side; without re-arming them the webhook simply
// goes quiet, so the renewer re-arms at two thirds of the configured
// lifetime.
type Renewer struct {
	source  Source
	tokens  ClientStateIssuer
	mailbox string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *intakemetrics.Metrics

	subscriptionID string
}

func NewRenewer(source Source, tokens ClientStateIssuer, cfg config.MailSource, logger *slog.Logger, metrics *intakemetrics.Metrics) *Renewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renewer{
		source:  source,
		tokens:  tokens,
		mailbox: cfg.Mailbox,
		ttl:     cfg.SubscriptionTTL,
		logger:  logger,
		metrics: metrics,
	}
}

// Run arms the subscription and renews it until ctx is cancelled. A failed
// renewal falls back to creating a fresh subscription on the next tick.
func (r *Renewer) Run(ctx context.Context) error {
	if err := r.subscribe(ctx); err != nil {
		r.logger.ErrorContext(ctx, "initial subscription failed, will retry", "error", err)
	}

	ticker := time.NewTicker(2 * r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.renew(ctx); err != nil {
				r.logger.WarnContext(ctx, "subscription renewal failed, re-subscribing", "error", err)
				if err := r.subscribe(ctx); err != nil {
					r.logger.ErrorContext(ctx, "re-subscription failed", "error", err)
				}
			}
		}
	}
}

func (r *Renewer) subscribe(ctx context.Context) error {
	now := time.Now()
	token, err := r.tokens.Generate(r.mailbox, 2*r.ttl, now)
	if err != nil {
		return err
	}
	sub, err := r.source.Subscribe(ctx, token, now.Add(r.ttl))
	if err != nil {
		return err
	}
	r.subscriptionID = sub.ID
	r.logger.InfoContext(ctx, "mail subscription armed",
		"subscription_id", sub.ID, "expires_at", sub.ExpiresAt)
	return nil
}

func (r *Renewer) renew(ctx context.Context) error {
	if r.subscriptionID == "" {
		return r.subscribe(ctx)
	}
	sub, err := r.source.Renew(ctx, r.subscriptionID, time.Now().Add(r.ttl))
	if err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.SubscriptionRenewals.Inc()
	}
	r.logger.InfoContext(ctx, "mail subscription renewed",
		"subscription_id", sub.ID, "expires_at", sub.ExpiresAt)
	return nil
}
