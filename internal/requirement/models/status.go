package models

// Status is the lifecycle state of a requirement.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReceived  Status = "received"
	StatusValidated Status = "validated"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReceived, StatusValidated, StatusCompleted, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}
