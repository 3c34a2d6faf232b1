// Package intake normalizes mail-source notifications into canonical queue
// messages. A Message is ephemeral: it exists only between webhook publish
// and worker consumption, and its durability is the queue's.
package intake

import (
	"encoding/json"
	"fmt"

	dErrors "docuflow/pkg/domain-errors"
)

// Message is the canonical intake message carried on the queue.
type Message struct {
	From        string       `json:"from"`
	Subject     string       `json:"subject"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is one document candidate. Content is raw bytes; the JSON
// codec carries it base64-encoded.
type Attachment struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Validate rejects messages the worker could never act on.
func (m *Message) Validate() error {
	if m.From == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "message sender is required")
	}
	for i, att := range m.Attachments {
		if att.FileName == "" {
			return dErrors.Newf(dErrors.CodeInvalidInput, "attachment %d has no file name", i)
		}
	}
	return nil
}

// Encode serializes the message for the queue.
func (m *Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode intake message: %w", err)
	}
	return data, nil
}

// DecodeMessage deserializes a queue record back into a Message and
// validates it.
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed intake message")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
