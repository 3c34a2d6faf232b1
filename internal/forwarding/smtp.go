package forwarding

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"

	"docuflow/internal/intake"
	"docuflow/internal/platform/config"
	dErrors "docuflow/pkg/domain-errors"
)

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP forwards attachments as single-attachment MIME mail from a fixed
// sender identity.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	send sendFunc
}

type SMTPOption func(*SMTP)

// WithSendFunc replaces the SMTP transport, for tests.
func WithSendFunc(send sendFunc) SMTPOption {
	return func(s *SMTP) { s.send = send }
}

func NewSMTP(cfg config.SMTP, opts ...SMTPOption) *SMTP {
	s := &SMTP{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SMTP) Send(ctx context.Context, destination, subject string, att intake.Attachment) error {
	if destination == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "forward destination is required")
	}
	msg := buildMessage(s.from, destination, SubjectPrefix+subject, att)

	done := make(chan error, 1)
	go func() { done <- s.send(s.addr, s.auth, s.from, []string{destination}, msg) }()
	select {
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeForwardFailed, "forward timed out")
	case err := <-done:
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeForwardFailed, "smtp send failed")
		}
	}
	return nil
}

const mimeBoundary = "docuflow-attachment"

func buildMessage(from, to, subject string, att intake.Attachment) []byte {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", mimeBoundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", att.FileName)
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("\r\n")
	writeBase64Wrapped(&buf, att.Content)
	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes()
}

// writeBase64Wrapped emits base64 content in 76-character lines per RFC 2045.
func writeBase64Wrapped(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	if encoded != "" {
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
}
