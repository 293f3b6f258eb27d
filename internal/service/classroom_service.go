package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/repository"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

// joinCodeAttempts bounds the collision retry loop at creation time.
const joinCodeAttempts = 5

type classroomRepository interface {
	Create(ctx context.Context, classroom *models.Classroom) error
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassroomDetail, error)
	ListByTeacher(ctx context.Context, teacherID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error)
	ListByMember(ctx context.Context, studentID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error)
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id string) error
}

type classroomRoster interface {
	Exists(ctx context.Context, classroomID, studentID string) (bool, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]models.MembershipDetail, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ClassroomService provides classroom management use cases.
type ClassroomService struct {
	classrooms classroomRepository
	roster     classroomRoster
	audit      auditRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewClassroomService constructs a ClassroomService instance.
func NewClassroomService(classrooms classroomRepository, roster classroomRoster, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassroomService{classrooms: classrooms, roster: roster, audit: audit, validator: validate, logger: logger}
}

// Create opens a new classroom owned by the acting teacher. The join code
// is generated server side; on the rare collision a fresh code is tried.
func (s *ClassroomService) Create(ctx context.Context, actor Actor, req models.CreateClassroomRequest) (*models.ClassroomDetail, error) {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	if req.RequirementsURL != nil && !validHTTPURL(*req.RequirementsURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requirements_url must be an absolute http(s) URL")
	}

	classroom := &models.Classroom{
		Title:           req.Title,
		Description:     req.Description,
		Subject:         req.Subject,
		RequirementsURL: req.RequirementsURL,
		TeacherID:       actor.ID,
		Active:          true,
	}

	var lastErr error
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := GenerateJoinCode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate join code")
		}
		classroom.JoinCode = code
		if err := s.classrooms.Create(ctx, classroom); err != nil {
			if repository.IsUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate a unique join code")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionClassroomCreate, classroom.ID)

	detail, err := s.classrooms.FindDetailByID(ctx, classroom.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return detail, nil
}

// Update edits mutable classroom fields. Only the owning teacher may call
// it; the join code is never changed.
func (s *ClassroomService) Update(ctx context.Context, actor Actor, id string, req models.UpdateClassroomRequest) (*models.ClassroomDetail, error) {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}

	classroom, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		classroom.Title = *req.Title
	}
	if req.Description != nil {
		classroom.Description = *req.Description
	}
	if req.Subject != nil {
		classroom.Subject = *req.Subject
	}
	if req.RequirementsURL != nil {
		if *req.RequirementsURL != "" && !validHTTPURL(*req.RequirementsURL) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "requirements_url must be an absolute http(s) URL")
		}
		classroom.RequirementsURL = req.RequirementsURL
	}
	if req.Active != nil {
		classroom.Active = *req.Active
	}

	if err := s.classrooms.Update(ctx, classroom); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionClassroomUpdate, classroom.ID)

	detail, err := s.classrooms.FindDetailByID(ctx, classroom.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return detail, nil
}

// Delete removes a classroom and all dependent records.
func (s *ClassroomService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return err
	}
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.classrooms.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete classroom")
	}
	s.recordAudit(ctx, actor.ID, models.AuditActionClassroomDelete, id)
	return nil
}

// List returns the classrooms visible to the actor: owned ones for a
// teacher, enrolled ones for a student.
func (s *ClassroomService) List(ctx context.Context, actor Actor, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	if err := evaluate(actor); err != nil {
		return nil, 0, err
	}
	var (
		classrooms []models.ClassroomDetail
		total      int
		err        error
	)
	switch actor.Role {
	case models.RoleTeacher:
		classrooms, total, err = s.classrooms.ListByTeacher(ctx, actor.ID, filter)
	case models.RoleStudent:
		classrooms, total, err = s.classrooms.ListByMember(ctx, actor.ID, filter)
	default:
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	// Students never see the join code.
	if actor.Role == models.RoleStudent {
		for i := range classrooms {
			classrooms[i].JoinCode = ""
		}
	}
	return classrooms, total, nil
}

// Detail returns one classroom if the actor owns it or is enrolled in it.
// Anything else looks like a missing classroom.
func (s *ClassroomService) Detail(ctx context.Context, actor Actor, id string) (*models.ClassroomDetail, error) {
	if err := evaluate(actor); err != nil {
		return nil, err
	}
	detail, err := s.classrooms.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if detail.TeacherID == actor.ID {
		return detail, nil
	}
	member, err := s.roster.Exists(ctx, id, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if !member {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}
	detail.JoinCode = ""
	return detail, nil
}

// Members returns the roster. Visible to the owning teacher and to
// enrolled students, same rule as Detail.
func (s *ClassroomService) Members(ctx context.Context, actor Actor, id string) ([]models.MembershipDetail, error) {
	if err := evaluate(actor); err != nil {
		return nil, err
	}
	classroom, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if classroom.TeacherID != actor.ID {
		member, err := s.roster.Exists(ctx, id, actor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if !member {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
	}
	members, err := s.roster.ListByClassroom(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

func (s *ClassroomService) loadOwned(ctx context.Context, actor Actor, id string) (*models.Classroom, error) {
	classroom, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if err := evaluate(actor, requireClassroomOwner(actor, classroom)); err != nil {
		return nil, err
	}
	return classroom, nil
}

func (s *ClassroomService) recordAudit(ctx context.Context, userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "classroom",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record classroom audit log", zap.Error(err), zap.String("action", action))
	}
}
