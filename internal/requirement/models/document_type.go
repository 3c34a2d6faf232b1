package models

import (
	"time"

	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
)

const (
	maxDocumentTypeNameLength        = 100
	maxDocumentTypeDescriptionLength = 500
)

// Frequency is how often a document of this type falls due.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// IsValid reports whether f is a known frequency.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return true
	}
	return false
}

// DocumentType describes a recurring compliance document. Identity is
// immutable; requirements reference it by id only.
type DocumentType struct {
	ID          id.DocumentTypeID `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Frequency   Frequency         `json:"frequency"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewDocumentType validates and constructs a document type.
func NewDocumentType(typeID id.DocumentTypeID, name string, frequency Frequency, description string, now time.Time) (*DocumentType, error) {
	if typeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document type id is required")
	}
	if err := validateDocumentTypeName(name); err != nil {
		return nil, err
	}
	if err := validateDocumentTypeDescription(description); err != nil {
		return nil, err
	}
	if !frequency.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown frequency")
	}
	return &DocumentType{
		ID:          typeID,
		Name:        name,
		Description: description,
		Frequency:   frequency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateName validates and sets a new name. Setting the same name is a no-op.
func (d *DocumentType) UpdateName(newName string, now time.Time) error {
	if err := validateDocumentTypeName(newName); err != nil {
		return err
	}
	if d.Name == newName {
		return nil
	}
	d.Name = newName
	d.UpdatedAt = now
	return nil
}

// UpdateDescription validates and sets a new description.
func (d *DocumentType) UpdateDescription(newDescription string, now time.Time) error {
	if err := validateDocumentTypeDescription(newDescription); err != nil {
		return err
	}
	if d.Description == newDescription {
		return nil
	}
	d.Description = newDescription
	d.UpdatedAt = now
	return nil
}

// UpdateFrequency sets a new recurrence frequency.
func (d *DocumentType) UpdateFrequency(newFrequency Frequency, now time.Time) error {
	if !newFrequency.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown frequency")
	}
	if d.Frequency == newFrequency {
		return nil
	}
	d.Frequency = newFrequency
	d.UpdatedAt = now
	return nil
}

func validateDocumentTypeName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "document type name is required")
	}
	if len(name) > maxDocumentTypeNameLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "document type name must be %d characters or less", maxDocumentTypeNameLength)
	}
	return nil
}

func validateDocumentTypeDescription(description string) error {
	if len(description) > maxDocumentTypeDescriptionLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "description must be %d characters or less", maxDocumentTypeDescriptionLength)
	}
	return nil
}
