package service

import (
	"github.com/studia-dev/classhub-api/internal/models"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   string
	Role models.UserRole
}

// Check is a single access predicate. It returns nil to allow and a typed
// denial otherwise.
type Check func() *appErrors.Error

// evaluate runs checks in order and returns the first denial. An empty
// actor fails closed before any predicate runs.
func evaluate(actor Actor, checks ...Check) error {
	if actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	for _, check := range checks {
		if denial := check(); denial != nil {
			return denial
		}
	}
	return nil
}

func requireTeacher(actor Actor) Check {
	return func() *appErrors.Error {
		if actor.Role != models.RoleTeacher {
			return appErrors.Clone(appErrors.ErrForbidden, "only teachers may perform this action")
		}
		return nil
	}
}

func requireStudent(actor Actor) Check {
	return func() *appErrors.Error {
		if actor.Role != models.RoleStudent {
			return appErrors.Clone(appErrors.ErrForbidden, "this action is only for students")
		}
		return nil
	}
}

// requireClassroomOwner denies with NotFound rather than Forbidden so a
// non-owner cannot distinguish a hidden classroom from a missing one.
func requireClassroomOwner(actor Actor, classroom *models.Classroom) Check {
	return func() *appErrors.Error {
		if classroom == nil || classroom.TeacherID != actor.ID {
			return appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil
	}
}

func requireMembership(isMember bool) Check {
	return func() *appErrors.Error {
		if !isMember {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not a member of this classroom")
		}
		return nil
	}
}

func requireSubmissionCreator(actor Actor, submission *models.Submission) Check {
	return func() *appErrors.Error {
		if submission == nil || submission.CreatedBy != actor.ID {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil
	}
}

func requireDraft(submission *models.Submission) Check {
	return func() *appErrors.Error {
		if submission == nil || submission.Status != models.SubmissionStatusDraft {
			return appErrors.Clone(appErrors.ErrInvalidState, "submission is no longer editable")
		}
		return nil
	}
}

func requireSubmitted(submission *models.Submission) Check {
	return func() *appErrors.Error {
		if submission == nil || submission.Status != models.SubmissionStatusSubmitted {
			return appErrors.Clone(appErrors.ErrInvalidState, "submission has not been submitted")
		}
		return nil
	}
}

// canViewSubmission implements the read visibility rule: creator,
// collaborator or owning teacher.
func canViewSubmission(actor Actor, detail *models.SubmissionDetail) bool {
	if detail == nil {
		return false
	}
	if detail.CreatedBy == actor.ID || detail.TeacherID == actor.ID {
		return true
	}
	return detail.IsCollaborator(actor.ID)
}
