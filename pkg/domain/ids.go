// Package domain holds typed identifiers shared across features.
//
// Each ID is a distinct type over uuid.UUID so a ClientID can never be passed
// where a RequirementID is expected. Conversions are explicit at the edges
// (HTTP handlers, stores) and nowhere else.
package domain

import (
	"github.com/google/uuid"

	dErrors "docuflow/pkg/domain-errors"
)

type (
	// ClientID identifies a client organization.
	ClientID uuid.UUID

	// DocumentTypeID identifies a recurring document type.
	DocumentTypeID uuid.UUID

	// RequirementID identifies a single document obligation.
	RequirementID uuid.UUID
)

// NewClientID returns a random ClientID.
func NewClientID() ClientID { return ClientID(uuid.New()) }

// NewDocumentTypeID returns a random DocumentTypeID.
func NewDocumentTypeID() DocumentTypeID { return DocumentTypeID(uuid.New()) }

// NewRequirementID returns a random RequirementID.
func NewRequirementID() RequirementID { return RequirementID(uuid.New()) }

func (id ClientID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id DocumentTypeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequirementID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id ClientID) String() string       { return uuid.UUID(id).String() }
func (id DocumentTypeID) String() string { return uuid.UUID(id).String() }
func (id RequirementID) String() string  { return uuid.UUID(id).String() }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(kind, s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s: %q", kind, s)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", kind)
	}
	return u, nil
}

// ParseClientID parses the canonical string form of a ClientID.
func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID("client id", s)
	if err != nil {
		return ClientID{}, err
	}
	return ClientID(u), nil
}

// ParseDocumentTypeID parses the canonical string form of a DocumentTypeID.
func ParseDocumentTypeID(s string) (DocumentTypeID, error) {
	u, err := parseUUID("document type id", s)
	if err != nil {
		return DocumentTypeID{}, err
	}
	return DocumentTypeID(u), nil
}

// ParseRequirementID parses the canonical string form of a RequirementID.
func ParseRequirementID(s string) (RequirementID, error) {
	u, err := parseUUID("requirement id", s)
	if err != nil {
		return RequirementID{}, err
	}
	return RequirementID(u), nil
}

// MarshalText implementations keep the IDs JSON-friendly as plain UUID strings.
func (id ClientID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id DocumentTypeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id RequirementID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *ClientID) UnmarshalText(b []byte) error {
	parsed, err := ParseClientID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DocumentTypeID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentTypeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RequirementID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequirementID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
