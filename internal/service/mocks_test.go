package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/notify"
	"github.com/studia-dev/classhub-api/internal/repository"
)

var errDuplicate = &pq.Error{Code: "23505"}

type mockClassroomRepo struct {
	classrooms map[string]models.Classroom
	codes      map[string]bool
	created    []models.Classroom
	deleted    []string
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{
		classrooms: make(map[string]models.Classroom),
		codes:      make(map[string]bool),
	}
}

func (m *mockClassroomRepo) Create(ctx context.Context, classroom *models.Classroom) error {
	if m.codes[classroom.JoinCode] {
		return errDuplicate
	}
	if classroom.ID == "" {
		classroom.ID = "classroom-" + classroom.JoinCode
	}
	m.codes[classroom.JoinCode] = true
	m.classrooms[classroom.ID] = *classroom
	m.created = append(m.created, *classroom)
	return nil
}

func (m *mockClassroomRepo) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassroomRepo) FindDetailByID(ctx context.Context, id string) (*models.ClassroomDetail, error) {
	if c, ok := m.classrooms[id]; ok {
		return &models.ClassroomDetail{Classroom: c}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassroomRepo) FindActiveByJoinCode(ctx context.Context, code string) (*models.Classroom, error) {
	for _, c := range m.classrooms {
		if c.JoinCode == code && c.Active {
			out := c
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassroomRepo) ListByTeacher(ctx context.Context, teacherID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	var out []models.ClassroomDetail
	for _, c := range m.classrooms {
		if c.TeacherID == teacherID {
			out = append(out, models.ClassroomDetail{Classroom: c})
		}
	}
	return out, len(out), nil
}

func (m *mockClassroomRepo) ListByMember(ctx context.Context, studentID string, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	var out []models.ClassroomDetail
	for _, c := range m.classrooms {
		out = append(out, models.ClassroomDetail{Classroom: c})
	}
	return out, len(out), nil
}

func (m *mockClassroomRepo) Update(ctx context.Context, classroom *models.Classroom) error {
	if _, ok := m.classrooms[classroom.ID]; !ok {
		return sql.ErrNoRows
	}
	m.classrooms[classroom.ID] = *classroom
	return nil
}

func (m *mockClassroomRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.classrooms[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.classrooms, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type membershipKey struct {
	classroomID string
	studentID   string
}

type mockMembershipRepo struct {
	mu          sync.Mutex
	members     map[membershipKey]bool
	submissions map[membershipKey]bool
}

func newMockMembershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{
		members:     make(map[membershipKey]bool),
		submissions: make(map[membershipKey]bool),
	}
}

func (m *mockMembershipRepo) add(classroomID, studentID string) {
	m.members[membershipKey{classroomID, studentID}] = true
}

func (m *mockMembershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membershipKey{membership.ClassroomID, membership.StudentID}
	if m.members[key] {
		return errDuplicate
	}
	m.members[key] = true
	if membership.ID == "" {
		membership.ID = "membership-1"
	}
	return nil
}

func (m *mockMembershipRepo) Exists(ctx context.Context, classroomID, studentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[membershipKey{classroomID, studentID}], nil
}

func (m *mockMembershipRepo) MemberIDs(ctx context.Context, classroomID string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for key := range m.members {
		if key.classroomID == classroomID {
			out[key.studentID] = true
		}
	}
	return out, nil
}

func (m *mockMembershipRepo) ListByClassroom(ctx context.Context, classroomID string) ([]models.MembershipDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MembershipDetail
	for key := range m.members {
		if key.classroomID == classroomID {
			out = append(out, models.MembershipDetail{
				Membership: models.Membership{ClassroomID: key.classroomID, StudentID: key.studentID},
			})
		}
	}
	return out, nil
}

func (m *mockMembershipRepo) Delete(ctx context.Context, classroomID, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := membershipKey{classroomID, studentID}
	if !m.members[key] || m.submissions[key] {
		return repository.ErrNoRowsAffected
	}
	delete(m.members, key)
	return nil
}

type mockUserRepo struct {
	users map[string]models.User
	audit []models.AuditLog
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audit = append(m.audit, *log)
	return nil
}

type mockSubmissionRepo struct {
	mu            sync.Mutex
	submissions   map[string]models.Submission
	collaborators map[string][]string
	teacherByRoom map[string]string
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{
		submissions:   make(map[string]models.Submission),
		collaborators: make(map[string][]string),
		teacherByRoom: make(map[string]string),
	}
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *models.Submission, collaboratorIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.submissions {
		if existing.ClassroomID == submission.ClassroomID && existing.CreatedBy == submission.CreatedBy {
			return errDuplicate
		}
	}
	if submission.ID == "" {
		submission.ID = "submission-" + submission.CreatedBy
	}
	submission.Status = models.SubmissionStatusDraft
	m.submissions[submission.ID] = *submission
	m.collaborators[submission.ID] = collaboratorIDs
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.submissions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := &models.SubmissionDetail{
		Submission: s,
		TeacherID:  m.teacherByRoom[s.ClassroomID],
	}
	for _, userID := range m.collaborators[id] {
		detail.Collaborators = append(detail.Collaborators, models.UserInfo{ID: userID, Role: models.RoleStudent})
	}
	return detail, nil
}

func (m *mockSubmissionRepo) UpdateDraft(ctx context.Context, submission *models.Submission, collaboratorIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.submissions[submission.ID]
	if !ok || current.Status != models.SubmissionStatusDraft {
		return repository.ErrNoRowsAffected
	}
	m.submissions[submission.ID] = *submission
	m.collaborators[submission.ID] = collaboratorIDs
	return nil
}

func (m *mockSubmissionRepo) Submit(ctx context.Context, id string, submittedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.Status != models.SubmissionStatusDraft {
		return repository.ErrNoRowsAffected
	}
	s.Status = models.SubmissionStatusSubmitted
	s.SubmittedAt = &submittedAt
	m.submissions[id] = s
	return nil
}

func (m *mockSubmissionRepo) Grade(ctx context.Context, id string, grade int, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.Status != models.SubmissionStatusSubmitted {
		return repository.ErrNoRowsAffected
	}
	s.Grade = &grade
	s.TeacherNotes = &notes
	m.submissions[id] = s
	return nil
}

func (m *mockSubmissionRepo) DeleteDraft(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.Status != models.SubmissionStatusDraft {
		return repository.ErrNoRowsAffected
	}
	delete(m.submissions, id)
	return nil
}

func (m *mockSubmissionRepo) ListForTeacher(ctx context.Context, teacherID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SubmissionDetail
	for _, s := range m.submissions {
		if m.teacherByRoom[s.ClassroomID] != teacherID {
			continue
		}
		if filter.ClassroomID != "" && s.ClassroomID != filter.ClassroomID {
			continue
		}
		out = append(out, models.SubmissionDetail{Submission: s, TeacherID: m.teacherByRoom[s.ClassroomID]})
	}
	return out, len(out), nil
}

func (m *mockSubmissionRepo) ListForStudent(ctx context.Context, studentID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SubmissionDetail
	for id, s := range m.submissions {
		owned := s.CreatedBy == studentID
		for _, c := range m.collaborators[id] {
			if c == studentID {
				owned = true
			}
		}
		if !owned {
			continue
		}
		if filter.GradedOnly && s.Grade == nil {
			continue
		}
		out = append(out, models.SubmissionDetail{Submission: s, TeacherID: m.teacherByRoom[s.ClassroomID]})
	}
	return out, len(out), nil
}

func (m *mockSubmissionRepo) GradesByClassroom(ctx context.Context, classroomID string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var grades []int
	for _, s := range m.submissions {
		if s.ClassroomID == classroomID && s.Grade != nil {
			grades = append(grades, *s.Grade)
		}
	}
	return grades, nil
}

type mockEmitter struct {
	mu     sync.Mutex
	events []notify.Event
}

func (m *mockEmitter) Emit(event notify.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockEmitter) byType(t notify.EventType) []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notify.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
