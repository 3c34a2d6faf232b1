package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "docuflow/pkg/domain"
	dErrors "docuflow/pkg/domain-errors"
)

type RequirementSuite struct {
	suite.Suite
	now time.Time
}

func TestRequirementSuite(t *testing.T) {
	suite.Run(t, new(RequirementSuite))
}

func (s *RequirementSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 15, 30, 45, 0, time.UTC)
}

func (s *RequirementSuite) newRequirement(daysUntilDue int) *Requirement {
	req, err := NewRequirement(
		id.NewRequirementID(),
		id.NewClientID(),
		id.NewDocumentTypeID(),
		s.now.AddDate(0, 0, daysUntilDue),
		s.now,
	)
	s.Require().NoError(err)
	return req
}

func (s *RequirementSuite) TestConstruction() {
	s.Run("starts pending with no document", func() {
		req := s.newRequirement(3)
		s.Equal(StatusPending, req.Status)
		s.Empty(req.BlobID)
		s.Nil(req.UploadedAt)
	})

	s.Run("due date is stored as a pure date", func() {
		req := s.newRequirement(3)
		s.Equal(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), req.DueDate)
	})

	s.Run("accepts a due date of today", func() {
		req := s.newRequirement(0)
		s.Equal(StatusPending, req.Status)
	})

	s.Run("rejects a past due date", func() {
		_, err := NewRequirement(
			id.NewRequirementID(),
			id.NewClientID(),
			id.NewDocumentTypeID(),
			s.now.AddDate(0, 0, -1),
			s.now,
		)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects nil identifiers", func() {
		_, err := NewRequirement(id.NewRequirementID(), id.ClientID{}, id.NewDocumentTypeID(), s.now, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewRequirement(id.NewRequirementID(), id.NewClientID(), id.DocumentTypeID{}, s.now, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *RequirementSuite) TestStatusTransitions() {
	s.Run("pending through completed", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.MarkReceived(s.now))
		s.Equal(StatusReceived, req.Status)
		s.Require().NoError(req.MarkValidated(s.now))
		s.Equal(StatusValidated, req.Status)
		s.Require().NoError(req.MarkCompleted(s.now))
		s.Equal(StatusCompleted, req.Status)
	})

	s.Run("skipping intermediate statuses is accepted", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.MarkCompleted(s.now))
		s.Equal(StatusCompleted, req.Status)
	})

	s.Run("completed rejects further transitions", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.MarkCompleted(s.now))

		for _, fn := range []func(time.Time) error{req.MarkReceived, req.MarkValidated, req.MarkCompleted} {
			err := fn(s.now)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeTerminalState))
		}
		s.Equal(StatusCompleted, req.Status)
	})

	s.Run("cancel then complete always fails terminal", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.Cancel(s.now))
		err := req.MarkCompleted(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTerminalState))
	})
}

func (s *RequirementSuite) TestCancel() {
	s.Run("cancels a pending requirement", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.Cancel(s.now))
		s.Equal(StatusCancelled, req.Status)
	})

	s.Run("cancelling twice is idempotent", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.Cancel(s.now))
		s.Require().NoError(req.Cancel(s.now))
		s.Equal(StatusCancelled, req.Status)
	})

	s.Run("rejects cancelling a completed requirement", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.MarkCompleted(s.now))
		err := req.Cancel(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		s.Equal(StatusCompleted, req.Status)
	})
}

func (s *RequirementSuite) TestOverdue() {
	s.Run("marks overdue once past due date", func() {
		req := s.newRequirement(1)
		req.MarkOverdue(s.now.AddDate(0, 0, 2))
		s.Equal(StatusOverdue, req.Status)
	})

	s.Run("due today is not overdue", func() {
		req := s.newRequirement(0)
		req.MarkOverdue(s.now)
		s.Equal(StatusPending, req.Status)
	})

	s.Run("terminal requirements are left untouched", func() {
		req := s.newRequirement(1)
		s.Require().NoError(req.Cancel(s.now))
		req.MarkOverdue(s.now.AddDate(0, 0, 2))
		s.Equal(StatusCancelled, req.Status)
	})
}

func (s *RequirementSuite) TestUpdateDueDate() {
	s.Run("future date while overdue resets to pending", func() {
		req := s.newRequirement(1)
		later := s.now.AddDate(0, 0, 2)
		req.MarkOverdue(later)
		s.Require().Equal(StatusOverdue, req.Status)

		s.Require().NoError(req.UpdateDueDate(later.AddDate(0, 0, 7), later))
		s.Equal(StatusPending, req.Status)
	})

	s.Run("future date while pending leaves status unchanged", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.UpdateDueDate(s.now.AddDate(0, 0, 10), s.now))
		s.Equal(StatusPending, req.Status)
		s.Equal(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), req.DueDate)
	})

	s.Run("rejects a past date", func() {
		req := s.newRequirement(3)
		err := req.UpdateDueDate(s.now.AddDate(0, 0, -1), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects terminal requirements", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.MarkCompleted(s.now))
		err := req.UpdateDueDate(s.now.AddDate(0, 0, 10), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *RequirementSuite) TestAttachDocument() {
	s.Run("attach on pending yields received with blob fields set", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.AttachDocument("blob-1", s.now))
		s.Equal(StatusReceived, req.Status)
		s.Equal("blob-1", req.BlobID)
		s.Require().NotNil(req.UploadedAt)
		s.Equal(s.now, *req.UploadedAt)
	})

	s.Run("attach on received keeps received", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.MarkReceived(s.now))
		s.Require().NoError(req.AttachDocument("blob-2", s.now))
		s.Equal(StatusReceived, req.Status)
	})

	s.Run("rejects an empty blob id", func() {
		req := s.newRequirement(3)
		err := req.AttachDocument("", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Empty(req.BlobID)
		s.Nil(req.UploadedAt)
	})

	s.Run("attach on terminal fails with no partial mutation", func() {
		for _, terminal := range []func(*Requirement){
			func(r *Requirement) { s.Require().NoError(r.MarkCompleted(s.now)) },
			func(r *Requirement) { s.Require().NoError(r.Cancel(s.now)) },
		} {
			req := s.newRequirement(3)
			terminal(req)
			before := *req.Clone()

			err := req.AttachDocument("blob-3", s.now)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeTerminalState))
			s.Equal(before, *req)
		}
	})
}

func (s *RequirementSuite) TestRemoveDocument() {
	s.Run("round trip restores pre-attach fields", func() {
		req := s.newRequirement(3)
		before := *req.Clone()

		s.Require().NoError(req.AttachDocument("blob-4", s.now))
		req.RemoveDocument(s.now)

		s.Equal(before.Status, req.Status)
		s.Equal(before.BlobID, req.BlobID)
		s.Equal(before.UploadedAt, req.UploadedAt)
		s.Equal(before.DueDate, req.DueDate)
	})

	s.Run("resets even a completed requirement to pending", func() {
		req := s.newRequirement(3)
		s.Require().NoError(req.AttachDocument("blob-5", s.now))
		s.Require().NoError(req.MarkCompleted(s.now))

		req.RemoveDocument(s.now)
		s.Equal(StatusPending, req.Status)
		s.Empty(req.BlobID)
		s.Nil(req.UploadedAt)
	})
}
