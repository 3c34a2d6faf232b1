package intake

import (
	"context"

	dErrors "docuflow/pkg/domain-errors"
)

// QueueProducer is the durable queue edge the gateway publishes to.
type QueueProducer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Publisher encodes canonical messages onto the queue, keyed by the mail
// item id so redeliveries of one item land on one partition.
type Publisher struct {
	producer QueueProducer
}

func NewPublisher(producer QueueProducer) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) Publish(ctx context.Context, messageID string, msg *Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, []byte(messageID), data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "publish intake message")
	}
	return nil
}
