// Package processing consumes canonical intake messages and drives the
// document pipeline: sender resolution, requirement matching, storage
// upload, state transition, and downstream forwarding. Attachment failures
// are isolated from each other; only infrastructure faults ask the queue
// for redelivery.
package processing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	clientmodels "docuflow/internal/client/models"
	"docuflow/internal/docstore"
	"docuflow/internal/forwarding"
	"docuflow/internal/intake"
	procmetrics "docuflow/internal/processing/metrics"
	"docuflow/internal/processing/matching"
	"docuflow/internal/requirement/models"
	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
)

// Decision tells the queue edge what to do with the message.
type Decision int

const (
	// Ack commits the message; it will not be redelivered.
	Ack Decision = iota
	// Retry leaves the message uncommitted for redelivery.
	Retry
)

func (d Decision) String() string {
	if d == Retry {
		return "retry"
	}
	return "ack"
}

type SenderResolver interface {
	ResolveSender(ctx context.Context, email string) (*clientmodels.Client, error)
}

type RequirementSource interface {
	ListOpenByClient(ctx context.Context, clientID id.ClientID) ([]*models.Requirement, error)
	AttachDocument(ctx context.Context, reqID id.RequirementID, blobID string) (*models.Requirement, error)
}

// Processor handles one canonical message end to end.
type Processor struct {
	clients      SenderResolver
	requirements RequirementSource
	policy       matching.Policy
	storage      docstore.Storage
	forwarder    forwarding.Forwarder
	dedup        DedupStore

	gatewayTimeout time.Duration
	dedupTTL       time.Duration
	logger         *slog.Logger
	metrics        *procmetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Processor)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

func WithMetrics(m *procmetrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithDedup(dedup DedupStore, ttl time.Duration) Option {
	return func(p *Processor) {
		p.dedup = dedup
		p.dedupTTL = ttl
	}
}

// WithGatewayTimeout bounds each storage and forwarding call.
func WithGatewayTimeout(timeout time.Duration) Option {
	return func(p *Processor) { p.gatewayTimeout = timeout }
}

func New(clients SenderResolver, requirements RequirementSource, policy matching.Policy, storage docstore.Storage, forwarder forwarding.Forwarder, opts ...Option) *Processor {
	p := &Processor{
		clients:        clients,
		requirements:   requirements,
		policy:         policy,
		storage:        storage,
		forwarder:      forwarder,
		dedup:          NoopDedup{},
		gatewayTimeout: 30 * time.Second,
		dedupTTL:       24 * time.Hour,
		logger:         slog.Default(),
		tracer:         otel.Tracer("docuflow/processing"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one message. Ack means the message is finished, whether or
// not every attachment landed; Retry means an infrastructure fault makes a
// later attempt worthwhile.
func (p *Processor) Process(ctx context.Context, msg *intake.Message) (Decision, error) {
	ctx, span := p.tracer.Start(ctx, "processing.message",
		trace.WithAttributes(
			attribute.String("mail.from", msg.From),
			attribute.Int("mail.attachments", len(msg.Attachments)),
		))
	defer span.End()

	decision, err := p.process(ctx, msg)
	if p.metrics != nil {
		if decision == Retry {
			p.metrics.MessagesRetried.Inc()
		} else {
			p.metrics.MessagesProcessed.Inc()
		}
	}
	span.SetAttributes(attribute.String("processing.decision", decision.String()))
	return decision, err
}

func (p *Processor) process(ctx context.Context, msg *intake.Message) (Decision, error) {
	client, err := p.clients.ResolveSender(ctx, msg.From)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			// Unknown senders are not an error condition: the mailbox
			// receives plenty of mail that is not a document submission.
			p.logger.InfoContext(ctx, "skipping message from unknown sender", "from", msg.From)
			if p.metrics != nil {
				p.metrics.UnknownSenders.Inc()
			}
			return Ack, nil
		}
		return Retry, dErrors.Wrap(err, dErrors.CodeInternal, "sender resolution failed")
	}

	for i, att := range msg.Attachments {
		if err := p.processAttachment(ctx, client, msg.Subject, att); err != nil {
			// Only infrastructure faults propagate out of an attachment;
			// everything else was handled and logged in isolation.
			p.logger.ErrorContext(ctx, "attachment processing hit infrastructure fault",
				"client_id", client.ID, "attachment", i, "file", att.FileName, "error", err)
			return Retry, err
		}
	}
	return Ack, nil
}

func (p *Processor) processAttachment(ctx context.Context, client *clientmodels.Client, subject string, att intake.Attachment) error {
	ctx, span := p.tracer.Start(ctx, "processing.attachment",
		trace.WithAttributes(attribute.String("file.name", att.FileName)))
	defer span.End()

	open, err := p.requirements.ListOpenByClient(ctx, client.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load open requirements")
	}
	req := p.policy.Match(open)
	if req == nil {
		p.logger.InfoContext(ctx, "no open requirement for attachment",
			"client_id", client.ID, "file", att.FileName)
		if p.metrics != nil {
			p.metrics.NoMatch.Inc()
		}
		return nil
	}

	blobID, err := p.upload(ctx, client.ID, req.ID, att)
	if err != nil {
		// Storage faults are contained to this attachment; the rest of the
		// message still processes.
		p.logger.ErrorContext(ctx, "attachment upload failed",
			"client_id", client.ID, "requirement_id", req.ID, "file", att.FileName, "error", err)
		if p.metrics != nil {
			p.metrics.UploadFailures.Inc()
		}
		return nil
	}
	if p.metrics != nil {
		p.metrics.Uploads.Inc()
	}

	if _, err := p.requirements.AttachDocument(ctx, req.ID, blobID); err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeTerminalState), dErrors.HasCode(err, dErrors.CodeNotFound):
			// The requirement closed between matching and attaching. The
			// blob stays in storage under its retention window; nothing to
			// transition or forward.
			p.logger.WarnContext(ctx, "requirement closed before attach",
				"requirement_id", req.ID, "file", att.FileName, "error", err)
			return nil
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist attachment transition")
		}
	}

	// The transition is durable; from here on nothing rolls it back.
	p.forward(ctx, client, req.ID, subject, att)
	return nil
}

func (p *Processor) upload(ctx context.Context, clientID id.ClientID, reqID id.RequirementID, att intake.Attachment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.gatewayTimeout)
	defer cancel()
	blobID, err := p.storage.Upload(ctx, bytes.NewReader(att.Content), att.FileName, clientID, reqID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeUploadFailed, "upload timed out")
		}
		return "", err
	}
	return blobID, nil
}

// forward sends the attachment to the client's compliance mailbox. Failures
// are logged and counted but never fail the attachment: the document is
// stored and the requirement transitioned, which is the part that must not
// be lost.
func (p *Processor) forward(ctx context.Context, client *clientmodels.Client, reqID id.RequirementID, subject string, att intake.Attachment) {
	key := forwardKey(reqID, att)

	seen, err := p.dedup.AlreadyForwarded(ctx, key)
	if err != nil {
		p.logger.WarnContext(ctx, "forward dedup check failed, forwarding anyway", "error", err)
	} else if seen {
		p.logger.InfoContext(ctx, "attachment already forwarded, skipping",
			"requirement_id", reqID, "file", att.FileName)
		if p.metrics != nil {
			p.metrics.DedupHits.Inc()
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.gatewayTimeout)
	defer cancel()
	if err := p.forwarder.Send(sendCtx, client.ComplianceEmail, subject, att); err != nil {
		p.logger.ErrorContext(ctx, "forward failed",
			"requirement_id", reqID, "destination", client.ComplianceEmail, "file", att.FileName, "error", err)
		if p.metrics != nil {
			p.metrics.ForwardFailures.Inc()
		}
		return
	}
	if p.metrics != nil {
		p.metrics.Forwards.Inc()
	}

	if err := p.dedup.MarkForwarded(ctx, key, p.dedupTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to record forward marker", "error", err)
	}
}
