package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studia-dev/classhub-api/internal/middleware"
	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/service"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

type classroomServiceMock struct {
	createResp  *models.ClassroomDetail
	createErr   error
	listResp    []models.ClassroomDetail
	listErr     error
	detailResp  *models.ClassroomDetail
	detailErr   error
	membersResp []models.MembershipDetail
	membersErr  error
	lastFilter  models.ClassroomFilter
	lastActor   service.Actor
	listCalled  bool
}

func (m *classroomServiceMock) Create(_ context.Context, actor service.Actor, _ models.CreateClassroomRequest) (*models.ClassroomDetail, error) {
	m.lastActor = actor
	return m.createResp, m.createErr
}

func (m *classroomServiceMock) Update(_ context.Context, _ service.Actor, _ string, _ models.UpdateClassroomRequest) (*models.ClassroomDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *classroomServiceMock) Delete(context.Context, service.Actor, string) error {
	return m.detailErr
}

func (m *classroomServiceMock) List(_ context.Context, actor service.Actor, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error) {
	m.listCalled = true
	m.lastActor = actor
	m.lastFilter = filter
	return m.listResp, len(m.listResp), m.listErr
}

func (m *classroomServiceMock) Detail(context.Context, service.Actor, string) (*models.ClassroomDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *classroomServiceMock) Members(context.Context, service.Actor, string) ([]models.MembershipDetail, error) {
	return m.membersResp, m.membersErr
}

type membershipServiceMock struct {
	joinResp *models.ClassroomDetail
	joinErr  error
	leaveErr error
}

func (m *membershipServiceMock) Join(context.Context, service.Actor, models.JoinClassroomRequest) (*models.ClassroomDetail, error) {
	return m.joinResp, m.joinErr
}

func (m *membershipServiceMock) Leave(context.Context, service.Actor, string) error {
	return m.leaveErr
}

func testContext(t *testing.T, method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func asUser(c *gin.Context, id string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: id, Role: role})
}

func TestClassroomHandlerList(t *testing.T) {
	mockSvc := &classroomServiceMock{listResp: []models.ClassroomDetail{{Classroom: models.Classroom{ID: "c1"}}}}
	h := NewClassroomHandler(mockSvc, &membershipServiceMock{})

	c, w := testContext(t, http.MethodGet, "/classrooms?search=web&page=2", "")
	asUser(c, "t1", models.RoleTeacher)

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, "web", mockSvc.lastFilter.Search)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, "t1", mockSvc.lastActor.ID)
}

func TestClassroomHandlerCreateInvalidBody(t *testing.T) {
	h := NewClassroomHandler(&classroomServiceMock{}, &membershipServiceMock{})

	c, w := testContext(t, http.MethodPost, "/classrooms", `{"title":`)
	asUser(c, "t1", models.RoleTeacher)

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassroomHandlerCreateForbidden(t *testing.T) {
	mockSvc := &classroomServiceMock{createErr: appErrors.ErrForbidden}
	h := NewClassroomHandler(mockSvc, &membershipServiceMock{})

	c, w := testContext(t, http.MethodPost, "/classrooms", `{"title":"Web Engineering"}`)
	asUser(c, "s1", models.RoleStudent)

	h.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestClassroomHandlerJoinConflict(t *testing.T) {
	memberships := &membershipServiceMock{joinErr: appErrors.Clone(appErrors.ErrConflict, "you are already a member of this classroom")}
	h := NewClassroomHandler(&classroomServiceMock{}, memberships)

	c, w := testContext(t, http.MethodPost, "/classrooms/join", `{"join_code":"WXYZ2345"}`)
	asUser(c, "s1", models.RoleStudent)

	h.Join(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already a member")
}

func TestClassroomHandlerMembersHiddenClassroom(t *testing.T) {
	mockSvc := &classroomServiceMock{membersErr: appErrors.Clone(appErrors.ErrNotFound, "classroom not found")}
	h := NewClassroomHandler(mockSvc, &membershipServiceMock{})

	c, w := testContext(t, http.MethodGet, "/classrooms/c1/members", "")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	asUser(c, "outsider", models.RoleStudent)

	h.Members(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerLeaveBlocked(t *testing.T) {
	memberships := &membershipServiceMock{leaveErr: appErrors.Clone(appErrors.ErrInvalidState, "you cannot leave a classroom where you created a submission")}
	h := NewClassroomHandler(&classroomServiceMock{}, memberships)

	c, w := testContext(t, http.MethodDelete, "/classrooms/c1/membership", "")
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	asUser(c, "s1", models.RoleStudent)

	h.Leave(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
