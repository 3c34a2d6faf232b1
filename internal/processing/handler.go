package processing

import (
	"context"
	"log/slog"

	"docuflow/internal/intake"
	"docuflow/internal/platform/kafka/consumer"
	dErrors "docuflow/pkg/domain-errors"
	"docuflow/pkg/requestcontext"
)

// Handler adapts the Processor to the queue consumer contract: Ack maps to
// a nil return (commit), Retry to an error (no commit, redelivery).
type Handler struct {
	processor *Processor
	logger    *slog.Logger
}

func NewHandler(processor *Processor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{processor: processor, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	ctx = requestcontext.WithMessageID(ctx, string(msg.Key))

	decoded, err := intake.DecodeMessage(msg.Value)
	if err != nil {
		// A malformed record can never succeed; redelivering it would wedge
		// the partition. Log and commit.
		h.logger.ErrorContext(ctx, "dropping malformed intake message",
			"key", string(msg.Key), "error", err)
		return nil
	}

	decision, perr := h.processor.Process(ctx, decoded)
	if decision == Retry {
		if perr == nil {
			perr = dErrors.New(dErrors.CodeInternal, "message processing asked for retry")
		}
		return perr
	}
	return nil
}
