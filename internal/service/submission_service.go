package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/notify"
	"github.com/studia-dev/classhub-api/internal/repository"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, submission *models.Submission, collaboratorIDs []string) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error)
	UpdateDraft(ctx context.Context, submission *models.Submission, collaboratorIDs []string) error
	Submit(ctx context.Context, id string, submittedAt time.Time) error
	Grade(ctx context.Context, id string, grade int, notes string) error
	DeleteDraft(ctx context.Context, id string) error
	ListForTeacher(ctx context.Context, teacherID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
	ListForStudent(ctx context.Context, studentID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
}

type submissionRoster interface {
	Exists(ctx context.Context, classroomID, studentID string) (bool, error)
	MemberIDs(ctx context.Context, classroomID string) (map[string]bool, error)
}

// SubmissionService provides the submission lifecycle use cases.
type SubmissionService struct {
	submissions submissionRepository
	classrooms  joinCodeResolver
	roster      submissionRoster
	users       userDirectory
	audit       auditRecorder
	emitter     notify.Emitter
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// AttachMetrics enables transition counters. Optional.
func (s *SubmissionService) AttachMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions submissionRepository, classrooms joinCodeResolver, roster submissionRoster, users userDirectory, audit auditRecorder, emitter notify.Emitter, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if emitter == nil {
		emitter = notify.NopEmitter{}
	}
	return &SubmissionService{
		submissions: submissions,
		classrooms:  classrooms,
		roster:      roster,
		users:       users,
		audit:       audit,
		emitter:     emitter,
		validator:   validate,
		logger:      logger,
	}
}

// Create opens a new draft in a classroom the student belongs to. Each
// collaborator must also be enrolled; the storage unique constraint keeps
// one submission per (classroom, creator) even under concurrent calls.
func (s *SubmissionService) Create(ctx context.Context, actor Actor, req models.CreateSubmissionRequest) (*models.SubmissionDetail, error) {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if !validHTTPURL(req.RepositoryURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "repository_url must be an absolute http(s) URL")
	}
	if req.DeployedURL != nil && !validHTTPURL(*req.DeployedURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deployed_url must be an absolute http(s) URL")
	}

	member, err := s.roster.Exists(ctx, req.ClassroomID, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if err := evaluate(actor, requireMembership(member)); err != nil {
		return nil, err
	}

	collaborators, err := s.resolveCollaborators(ctx, req.ClassroomID, actor.ID, req.CollaboratorIDs)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		ClassroomID:   req.ClassroomID,
		Title:         req.Title,
		Description:   req.Description,
		RepositoryURL: req.RepositoryURL,
		DeployedURL:   req.DeployedURL,
		Status:        models.SubmissionStatusDraft,
		CreatedBy:     actor.ID,
	}
	if err := s.submissions.Create(ctx, submission, collaborators); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a submission in this classroom")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionSubmissionCreate, submission.ID)
	return s.loadDetail(ctx, submission.ID)
}

// Update edits a draft. Only the creator may edit, and only while the
// submission is still a draft.
func (s *SubmissionService) Update(ctx context.Context, actor Actor, id string, req models.UpdateSubmissionRequest) (*models.SubmissionDetail, error) {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	submission, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		submission.Title = *req.Title
	}
	if req.Description != nil {
		submission.Description = *req.Description
	}
	if req.RepositoryURL != nil {
		if !validHTTPURL(*req.RepositoryURL) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "repository_url must be an absolute http(s) URL")
		}
		submission.RepositoryURL = *req.RepositoryURL
	}
	if req.DeployedURL != nil {
		if *req.DeployedURL != "" && !validHTTPURL(*req.DeployedURL) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deployed_url must be an absolute http(s) URL")
		}
		submission.DeployedURL = req.DeployedURL
	}

	collaborators, err := s.currentCollaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CollaboratorIDs != nil {
		collaborators, err = s.resolveCollaborators(ctx, submission.ClassroomID, actor.ID, *req.CollaboratorIDs)
		if err != nil {
			return nil, err
		}
	}

	if err := s.submissions.UpdateDraft(ctx, submission, collaborators); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "submission is no longer editable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionSubmissionUpdate, id)
	return s.loadDetail(ctx, id)
}

// Submit performs the one-way DRAFT -> SUBMITTED transition. The storage
// compare-and-swap guarantees exactly one of two concurrent calls wins;
// the notification is emitted only on the winning path.
func (s *SubmissionService) Submit(ctx context.Context, actor Actor, id string) (*models.SubmissionDetail, error) {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return nil, err
	}

	submission, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.submissions.Submit(ctx, submission.ID, now); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "submission has already been submitted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionSubmissionSubmit, id)
	s.metrics.RecordSubmissionTransition("submitted")

	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitSubmissionEvent(ctx, notify.EventSubmissionSubmitted, detail)
	return detail, nil
}

// Grade assigns or revises a grade on a submitted submission. Only the
// owning teacher may grade; the status predicate in the update keeps
// drafts ungradable even under races.
func (s *SubmissionService) Grade(ctx context.Context, actor Actor, id string, req models.GradeSubmissionRequest) (*models.SubmissionDetail, error) {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	if req.Grade < models.GradeMin || req.Grade > models.GradeMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade must be between %d and %d", models.GradeMin, models.GradeMax))
	}

	submission, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	classroom, err := s.classrooms.FindByID(ctx, submission.ClassroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if err := evaluate(actor, requireClassroomOwner(actor, classroom), requireSubmitted(submission)); err != nil {
		return nil, err
	}

	if err := s.submissions.Grade(ctx, id, req.Grade, req.TeacherNotes); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "only submitted work can be graded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionSubmissionGrade, id)
	s.metrics.RecordSubmissionTransition("graded")

	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitSubmissionEvent(ctx, notify.EventSubmissionGraded, detail)
	return detail, nil
}

// Delete removes a draft. Submitted work cannot be deleted.
func (s *SubmissionService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return err
	}
	if _, err := s.loadEditable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.submissions.DeleteDraft(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Clone(appErrors.ErrInvalidState, "submitted work cannot be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionSubmissionDelete, id)
	return nil
}

// List returns the submissions visible to the actor: those in owned
// classrooms for a teacher, those created or collaborated on for a student.
func (s *SubmissionService) List(ctx context.Context, actor Actor, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	if err := evaluate(actor); err != nil {
		return nil, 0, err
	}
	switch actor.Role {
	case models.RoleTeacher:
		submissions, total, err := s.submissions.ListForTeacher(ctx, actor.ID, filter)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
		}
		return submissions, total, nil
	case models.RoleStudent:
		submissions, total, err := s.submissions.ListForStudent(ctx, actor.ID, filter)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
		}
		return submissions, total, nil
	default:
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

// Grades returns the student's graded work across classrooms.
func (s *SubmissionService) Grades(ctx context.Context, actor Actor, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return nil, 0, err
	}
	filter.GradedOnly = true
	submissions, total, err := s.submissions.ListForStudent(ctx, actor.ID, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return submissions, total, nil
}

// Detail returns one submission if the actor may see it. A denied reader
// gets the same NotFound as for a missing id.
func (s *SubmissionService) Detail(ctx context.Context, actor Actor, id string) (*models.SubmissionDetail, error) {
	if err := evaluate(actor); err != nil {
		return nil, err
	}
	detail, err := s.submissions.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !canViewSubmission(actor, detail) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	return detail, nil
}

func (s *SubmissionService) loadEditable(ctx context.Context, actor Actor, id string) (*models.Submission, error) {
	submission, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if err := evaluate(actor, requireSubmissionCreator(actor, submission), requireDraft(submission)); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *SubmissionService) loadDetail(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	detail, err := s.submissions.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return detail, nil
}

func (s *SubmissionService) currentCollaborators(ctx context.Context, id string) ([]string, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(detail.Collaborators))
	for _, c := range detail.Collaborators {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// resolveCollaborators deduplicates the requested set, drops the creator,
// and rejects anyone who is not enrolled in the classroom.
func (s *SubmissionService) resolveCollaborators(ctx context.Context, classroomID, creatorID string, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	members, err := s.roster.MemberIDs(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check collaborators")
	}
	seen := map[string]struct{}{creatorID: {}}
	resolved := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if !members[id] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("collaborator %s is not a member of this classroom", id))
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

func (s *SubmissionService) emitSubmissionEvent(ctx context.Context, eventType notify.EventType, detail *models.SubmissionDetail) {
	classroom, err := s.classrooms.FindByID(ctx, detail.ClassroomID)
	if err != nil {
		s.logger.Warn("failed to load classroom for notification", zap.Error(err), zap.String("submission_id", detail.ID))
		return
	}
	teacher, err := s.users.FindByID(ctx, classroom.TeacherID)
	if err != nil {
		s.logger.Warn("failed to load teacher for notification", zap.Error(err), zap.String("submission_id", detail.ID))
		return
	}
	s.emitter.Emit(notify.Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Classroom:  *classroom,
		Teacher:    models.UserInfo{ID: teacher.ID, Email: teacher.Email, FullName: teacher.FullName, Role: teacher.Role},
		Submission: detail,
	})
}

func (s *SubmissionService) recordAudit(ctx context.Context, userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "submission",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record submission audit log", zap.Error(err), zap.String("action", action))
	}
}
