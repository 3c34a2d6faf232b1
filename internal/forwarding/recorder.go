package forwarding

import (
	"context"
	"sync"

	"docuflow/internal/intake"
)

// SentMail is one recorded forward.
type SentMail struct {
	Destination string
	Subject     string
	Attachment  intake.Attachment
}

// Recorder is a Forwarder that captures sends for tests. An optional Err
// makes every send fail.
type Recorder struct {
	mu   sync.Mutex
	sent []SentMail

	Err error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, destination, subject string, att intake.Attachment) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, SentMail{Destination: destination, Subject: subject, Attachment: att})
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMail(nil), r.sent...)
}
