// Package matching picks the requirement an incoming attachment belongs to.
package matching

import (
	"sort"

	"docuflow/internal/requirement/models"
)

// Policy selects the target requirement from a client's candidates. A nil
// result means no match; it is never an error.
type Policy interface {
	Match(reqs []*models.Requirement) *models.Requirement
}

// EarliestDue matches the open requirement with the earliest due date.
// Ties break on creation time, then id, so the choice is deterministic for
// any fixed candidate set regardless of input order.
type EarliestDue struct{}

func NewEarliestDue() EarliestDue {
	return EarliestDue{}
}

func (EarliestDue) Match(reqs []*models.Requirement) *models.Requirement {
	open := make([]*models.Requirement, 0, len(reqs))
	for _, req := range reqs {
		// Callers normally pass open requirements only; filter anyway so a
		// stale candidate set cannot route a document to a closed one.
		if req.IsOpen() {
			open = append(open, req)
		}
	}
	if len(open) == 0 {
		return nil
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].DueDate.Equal(open[j].DueDate) {
			return open[i].DueDate.Before(open[j].DueDate)
		}
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].ID.String() < open[j].ID.String()
	})
	return open[0]
}
