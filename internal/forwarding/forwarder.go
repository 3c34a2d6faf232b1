// Package forwarding relays validated attachments to a client's downstream
// compliance mailbox.
package forwarding

import (
	"context"

	"docuflow/internal/intake"
)

// SubjectPrefix marks forwarded mail so the downstream mailbox can filter it.
const SubjectPrefix = "FWD: "

// Forwarder sends one attachment to a destination address. Send is
// synchronous; the worker calls it only after the requirement transition is
// durable.
type Forwarder interface {
	Send(ctx context.Context, destination, subject string, att intake.Attachment) error
}
