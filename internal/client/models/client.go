package models

import (
	"net/mail"
	"strings"
	"time"

	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
)

// ClientStatus is the activation state of a client organization.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Client is the aggregate root for an organization that owes compliance
// documents.
//
// Invariants:
//   - Name is non-empty
//   - ComplianceEmail is a valid address; validated documents are forwarded
//     there
//   - ContactEmails are the sender addresses that resolve inbound mail to
//     this client; stored lowercased, no duplicates
//   - Status is active or inactive; only active clients accept new
//     requirements (enforced by the requirement service)
type Client struct {
	ID              id.ClientID  `json:"id"`
	Name            string       `json:"name"`
	ComplianceEmail string       `json:"compliance_email"`
	ContactEmails   []string     `json:"contact_emails"`
	Status          ClientStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// NewClient validates and constructs an active client.
func NewClient(clientID id.ClientID, name, complianceEmail string, contactEmails []string, now time.Time) (*Client, error) {
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "client name is required")
	}
	complianceEmail, err := normalizeEmail(complianceEmail)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(contactEmails))
	seen := make(map[string]bool, len(contactEmails))
	for _, contact := range contactEmails {
		addr, err := normalizeEmail(contact)
		if err != nil {
			return nil, err
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		normalized = append(normalized, addr)
	}

	return &Client{
		ID:              clientID,
		Name:            name,
		ComplianceEmail: complianceEmail,
		ContactEmails:   normalized,
		Status:          ClientStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsActive reports whether the client may receive new requirements.
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}

// Deactivate transitions the client to inactive. Idempotent.
func (c *Client) Deactivate(now time.Time) {
	if c.Status == ClientStatusInactive {
		return
	}
	c.Status = ClientStatusInactive
	c.UpdatedAt = now
}

// Activate transitions the client to active. Idempotent.
func (c *Client) Activate(now time.Time) {
	if c.Status == ClientStatusActive {
		return
	}
	c.Status = ClientStatusActive
	c.UpdatedAt = now
}

// UpdateName validates and sets a new name. Setting the same name is a no-op.
func (c *Client) UpdateName(newName string, now time.Time) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "client name is required")
	}
	if c.Name == newName {
		return nil
	}
	c.Name = newName
	c.UpdatedAt = now
	return nil
}

// AddContactEmail registers another sender address for this client.
func (c *Client) AddContactEmail(email string, now time.Time) error {
	addr, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	for _, existing := range c.ContactEmails {
		if existing == addr {
			return nil
		}
	}
	c.ContactEmails = append(c.ContactEmails, addr)
	c.UpdatedAt = now
	return nil
}

// HasContactEmail reports whether the address resolves to this client.
func (c *Client) HasContactEmail(email string) bool {
	addr := strings.ToLower(strings.TrimSpace(email))
	for _, existing := range c.ContactEmails {
		if existing == addr {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores can hand out values without aliasing.
func (c *Client) Clone() *Client {
	clone := *c
	clone.ContactEmails = append([]string(nil), c.ContactEmails...)
	return &clone
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "email address is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid email address: %q", email)
	}
	return email, nil
}
