package intake

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	intakemetrics "docuflow/internal/intake/metrics"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/platform/httputil"
)

// MessageFetcher loads the full mail item a notification references.
type MessageFetcher interface {
	FetchMessage(ctx context.Context, messageID string) (*Message, error)
}

// MessagePublisher puts a canonical message on the durable queue.
type MessagePublisher interface {
	Publish(ctx context.Context, messageID string, msg *Message) error
}

// ClientStateValidator checks the client-state token echoed by the mail
// source against the watched mailbox.
type ClientStateValidator interface {
	Validate(token, mailbox string) error
}

// WebhookHandler terminates mail-source push notifications. It acknowledges
// the source as soon as the canonical message is durably queued; document
// processing happens later, on the worker.
type WebhookHandler struct {
	fetcher     MessageFetcher
	publisher   MessagePublisher
	clientState ClientStateValidator
	mailbox     string
	logger      *slog.Logger
	metrics     *intakemetrics.Metrics
}

func NewWebhookHandler(fetcher MessageFetcher, publisher MessagePublisher, clientState ClientStateValidator, mailbox string, logger *slog.Logger, metrics *intakemetrics.Metrics) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		fetcher:     fetcher,
		publisher:   publisher,
		clientState: clientState,
		mailbox:     mailbox,
		logger:      logger,
		metrics:     metrics,
	}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/mail", h.HandleNotification)
}

type notification struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientState    string `json:"clientState"`
	ResourceData   struct {
		ID string `json:"id"`
	} `json:"resourceData"`
}

type notificationPayload struct {
	Value []notification `json:"value"`
}

// HandleNotification handles POST /webhooks/mail.
func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Subscription validation handshake: the source probes the endpoint by
	// sending a token it expects echoed back in plain text.
	if token := r.URL.Query().Get("validationToken"); token != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(token))
		return
	}

	if h.metrics != nil {
		h.metrics.NotificationsReceived.Inc()
	}

	payload, ok := httputil.Decode[notificationPayload](w, r)
	if !ok {
		h.countRejected()
		return
	}
	if len(payload.Value) == 0 {
		h.countRejected()
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "notification payload is empty"))
		return
	}

	for _, note := range payload.Value {
		if err := h.clientState.Validate(note.ClientState, h.mailbox); err != nil {
			h.logger.WarnContext(ctx, "rejecting notification with bad client state",
				"subscription_id", note.SubscriptionID, "error", err)
			h.countRejected()
			httputil.WriteError(w, err)
			return
		}
		if note.ResourceData.ID == "" {
			h.countRejected()
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "notification has no resource id"))
			return
		}

		if err := h.ingest(ctx, note.ResourceData.ID); err != nil {
			// The mail source owns retry for failed notifications; a
			// non-2xx here asks it to redeliver.
			h.logger.ErrorContext(ctx, "failed to ingest mail item",
				"message_id", note.ResourceData.ID, "error", err)
			if h.metrics != nil {
				h.metrics.FetchFailures.Inc()
			}
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "mail ingestion failed"))
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{"accepted": len(payload.Value)})
}

func (h *WebhookHandler) ingest(ctx context.Context, messageID string) error {
	msg, err := h.fetcher.FetchMessage(ctx, messageID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// The item vanished between notification and fetch. Nothing to
			// ingest, nothing to retry.
			h.logger.InfoContext(ctx, "mail item no longer exists, skipping", "message_id", messageID)
			return nil
		}
		return err
	}

	if err := h.publisher.Publish(ctx, messageID, msg); err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.MessagesPublished.Inc()
	}
	h.logger.InfoContext(ctx, "intake message queued",
		"message_id", messageID, "attachments", len(msg.Attachments))
	return nil
}

func (h *WebhookHandler) countRejected() {
	if h.metrics != nil {
		h.metrics.NotificationsRejected.Inc()
	}
}
