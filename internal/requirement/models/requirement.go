package models

import (
	"time"

	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
)

// Requirement is the aggregate root for one document obligation: a client
// owes one document of a given type by a due date.
//
// Invariants:
//   - ClientID and DocumentTypeID are non-nil and immutable after construction
//   - DueDate is a pure UTC date (midnight, no time-of-day component)
//   - Completed and Cancelled are terminal; transition methods reject both
//   - BlobID and UploadedAt are either both set or both absent
//   - Overdue is only entered by MarkOverdue when today is past the due
//     date, and only left through UpdateDueDate
type Requirement struct {
	ID             id.RequirementID  `json:"id"`
	ClientID       id.ClientID       `json:"client_id"`
	DocumentTypeID id.DocumentTypeID `json:"document_type_id"`
	DueDate        time.Time         `json:"due_date"`
	Status         Status            `json:"status"`
	BlobID         string            `json:"blob_id,omitempty"`
	UploadedAt     *time.Time        `json:"uploaded_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// DateOnly strips the time-of-day component, keeping the UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewRequirement validates and constructs a pending requirement. The due
// date must be on or after the current UTC date.
func NewRequirement(reqID id.RequirementID, clientID id.ClientID, docTypeID id.DocumentTypeID, dueDate, now time.Time) (*Requirement, error) {
	if reqID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requirement id is required")
	}
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client id is required")
	}
	if docTypeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document type id is required")
	}
	if err := validateDueDate(dueDate, now); err != nil {
		return nil, err
	}
	return &Requirement{
		ID:             reqID,
		ClientID:       clientID,
		DocumentTypeID: docTypeID,
		DueDate:        DateOnly(dueDate),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func validateDueDate(dueDate, now time.Time) error {
	if DateOnly(dueDate).Before(DateOnly(now)) {
		return dErrors.New(dErrors.CodeInvalidInput, "due date cannot be in the past")
	}
	return nil
}

// requireNonTerminal rejects any transition out of Completed or Cancelled.
func (r *Requirement) requireNonTerminal() error {
	if r.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeTerminalState, "requirement is completed")
	}
	if r.Status == StatusCancelled {
		return dErrors.New(dErrors.CodeTerminalState, "requirement is cancelled")
	}
	return nil
}

// MarkReceived sets status to Received. Only the terminal check guards this:
// ordering between Received, Validated, and Completed is deliberately not
// enforced, so a direct Pending->Completed jump is accepted behavior.
func (r *Requirement) MarkReceived(now time.Time) error {
	if err := r.requireNonTerminal(); err != nil {
		return err
	}
	r.Status = StatusReceived
	r.UpdatedAt = now
	return nil
}

// MarkValidated sets status to Validated unless the requirement is terminal.
func (r *Requirement) MarkValidated(now time.Time) error {
	if err := r.requireNonTerminal(); err != nil {
		return err
	}
	r.Status = StatusValidated
	r.UpdatedAt = now
	return nil
}

// MarkCompleted sets status to Completed unless already terminal.
func (r *Requirement) MarkCompleted(now time.Time) error {
	if err := r.requireNonTerminal(); err != nil {
		return err
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now
	return nil
}

// MarkOverdue enters Overdue when today is strictly past the due date.
// Terminal requirements are left untouched; the sweep treats that as a
// no-op, not an error.
func (r *Requirement) MarkOverdue(now time.Time) {
	if r.Status.IsTerminal() {
		return
	}
	if DateOnly(now).After(r.DueDate) {
		r.Status = StatusOverdue
		r.UpdatedAt = now
	}
}

// Cancel sets status to Cancelled. Completed requirements cannot be
// cancelled; cancelling an already-cancelled requirement is idempotent.
func (r *Requirement) Cancel(now time.Time) error {
	if r.Status == StatusCompleted {
		return dErrors.New(dErrors.CodeInvalidTransition, "cannot cancel completed requirement")
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now
	return nil
}

// UpdateDueDate moves the due date. An Overdue requirement whose new date is
// on or after today returns to Pending.
func (r *Requirement) UpdateDueDate(newDate, now time.Time) error {
	if err := validateDueDate(newDate, now); err != nil {
		return err
	}
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidTransition, "cannot update due date of completed or cancelled requirement")
	}
	r.DueDate = DateOnly(newDate)
	if r.Status == StatusOverdue && !r.DueDate.Before(DateOnly(now)) {
		r.Status = StatusPending
	}
	r.UpdatedAt = now
	return nil
}

// AttachDocument records the stored document reference and marks the
// requirement Received. The terminal check runs before any field changes, so
// a rejected attach leaves the requirement exactly as it was.
func (r *Requirement) AttachDocument(blobID string, now time.Time) error {
	if blobID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "blob id is required")
	}
	if err := r.requireNonTerminal(); err != nil {
		return err
	}
	r.BlobID = blobID
	uploadedAt := now
	r.UploadedAt = &uploadedAt
	r.Status = StatusReceived
	r.UpdatedAt = now
	return nil
}

// RemoveDocument clears the stored document reference and resets status to
// Pending regardless of current status, including Completed. That reset of a
// terminal requirement mirrors the long-standing behavior this system
// replaces; revisit against business intent before relying on it.
func (r *Requirement) RemoveDocument(now time.Time) {
	r.BlobID = ""
	r.UploadedAt = nil
	r.Status = StatusPending
	r.UpdatedAt = now
}

// IsOpen reports whether the requirement can still receive a document.
func (r *Requirement) IsOpen() bool {
	return !r.Status.IsTerminal()
}

// Clone returns a deep copy so stores can hand out values without aliasing
// internal state.
func (r *Requirement) Clone() *Requirement {
	clone := *r
	if r.UploadedAt != nil {
		uploadedAt := *r.UploadedAt
		clone.UploadedAt = &uploadedAt
	}
	return &clone
}
