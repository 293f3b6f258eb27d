package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/notify"
	"github.com/studia-dev/classhub-api/internal/repository"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

type joinCodeResolver interface {
	FindActiveByJoinCode(ctx context.Context, code string) (*models.Classroom, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type membershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	Exists(ctx context.Context, classroomID, studentID string) (bool, error)
	Delete(ctx context.Context, classroomID, studentID string) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// MembershipService handles joining and leaving classrooms.
type MembershipService struct {
	classrooms  joinCodeResolver
	memberships membershipRepository
	users       userDirectory
	audit       auditRecorder
	emitter     notify.Emitter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMembershipService constructs a MembershipService instance.
func NewMembershipService(classrooms joinCodeResolver, memberships membershipRepository, users userDirectory, audit auditRecorder, emitter notify.Emitter, validate *validator.Validate, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if emitter == nil {
		emitter = notify.NopEmitter{}
	}
	return &MembershipService{
		classrooms:  classrooms,
		memberships: memberships,
		users:       users,
		audit:       audit,
		emitter:     emitter,
		validator:   validate,
		logger:      logger,
	}
}

// Join enrolls the acting student into the active classroom carrying the
// code. The unique constraint on (classroom, student) is the authority on
// duplicates, so two concurrent joins cannot both succeed.
func (s *MembershipService) Join(ctx context.Context, actor Actor, req models.JoinClassroomRequest) (*models.ClassroomDetail, error) {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid join payload")
	}

	code := NormalizeJoinCode(req.JoinCode)
	if !ValidJoinCode(code) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no classroom matches this code")
	}

	classroom, err := s.classrooms.FindActiveByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no classroom matches this code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve join code")
	}

	membership := &models.Membership{ClassroomID: classroom.ID, StudentID: actor.ID}
	if err := s.memberships.Create(ctx, membership); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you are already a member of this classroom")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join classroom")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionClassroomJoin, classroom.ID)
	s.emitJoined(ctx, *classroom, actor.ID)

	detail := &models.ClassroomDetail{Classroom: *classroom}
	detail.JoinCode = ""
	return detail, nil
}

// Leave removes the student from a classroom. A student who created a
// submission in the classroom cannot leave; the guard lives inside the
// delete statement, so here we only translate the outcome.
func (s *MembershipService) Leave(ctx context.Context, actor Actor, classroomID string) error {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return err
	}

	if err := s.memberships.Delete(ctx, classroomID, actor.ID); err != nil {
		if !errors.Is(err, repository.ErrNoRowsAffected) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to leave classroom")
		}
		member, checkErr := s.memberships.Exists(ctx, classroomID, actor.ID)
		if checkErr != nil {
			return appErrors.Wrap(checkErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to leave classroom")
		}
		if member {
			return appErrors.Clone(appErrors.ErrInvalidState, "you cannot leave a classroom where you created a submission")
		}
		return appErrors.Clone(appErrors.ErrNotFound, "membership not found")
	}

	s.recordAudit(ctx, actor.ID, models.AuditActionClassroomLeave, classroomID)
	return nil
}

func (s *MembershipService) emitJoined(ctx context.Context, classroom models.Classroom, studentID string) {
	teacher, err := s.users.FindByID(ctx, classroom.TeacherID)
	if err != nil {
		s.logger.Warn("failed to load teacher for join notification", zap.Error(err), zap.String("classroom_id", classroom.ID))
		return
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to load student for join notification", zap.Error(err), zap.String("classroom_id", classroom.ID))
		return
	}
	s.emitter.Emit(notify.Event{
		Type:       notify.EventMembershipCreated,
		OccurredAt: time.Now().UTC(),
		Classroom:  classroom,
		Teacher:    models.UserInfo{ID: teacher.ID, Email: teacher.Email, FullName: teacher.FullName, Role: teacher.Role},
		Student:    models.UserInfo{ID: student.ID, Email: student.Email, FullName: student.FullName, Role: student.Role},
	})
}

func (s *MembershipService) recordAudit(ctx context.Context, userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "membership",
		ResourceID: &resourceID,
	}); err != nil {
		s.logger.Warn("failed to record membership audit log", zap.Error(err), zap.String("action", action))
	}
}
