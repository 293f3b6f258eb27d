package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/service"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
)

type submissionServiceMock struct {
	detailResp   *models.SubmissionDetail
	detailErr    error
	listResp     []models.SubmissionDetail
	listErr      error
	lastFilter   models.SubmissionFilter
	gradesCalled bool
}

func (m *submissionServiceMock) Create(context.Context, service.Actor, models.CreateSubmissionRequest) (*models.SubmissionDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *submissionServiceMock) Update(context.Context, service.Actor, string, models.UpdateSubmissionRequest) (*models.SubmissionDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *submissionServiceMock) Submit(context.Context, service.Actor, string) (*models.SubmissionDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *submissionServiceMock) Grade(context.Context, service.Actor, string, models.GradeSubmissionRequest) (*models.SubmissionDetail, error) {
	return m.detailResp, m.detailErr
}

func (m *submissionServiceMock) Delete(context.Context, service.Actor, string) error {
	return m.detailErr
}

func (m *submissionServiceMock) List(_ context.Context, _ service.Actor, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	m.lastFilter = filter
	return m.listResp, len(m.listResp), m.listErr
}

func (m *submissionServiceMock) Grades(_ context.Context, _ service.Actor, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	m.gradesCalled = true
	m.lastFilter = filter
	return m.listResp, len(m.listResp), m.listErr
}

func (m *submissionServiceMock) Detail(context.Context, service.Actor, string) (*models.SubmissionDetail, error) {
	return m.detailResp, m.detailErr
}

func TestSubmissionHandlerCreateInvalidBody(t *testing.T) {
	h := NewSubmissionHandler(&submissionServiceMock{})

	c, w := testContext(t, http.MethodPost, "/submissions", `{"title":`)
	asUser(c, "s1", models.RoleStudent)

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerSubmitConflict(t *testing.T) {
	mockSvc := &submissionServiceMock{detailErr: appErrors.Clone(appErrors.ErrInvalidState, "submission has already been submitted")}
	h := NewSubmissionHandler(mockSvc)

	c, w := testContext(t, http.MethodPost, "/submissions/s1/submit", "")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	asUser(c, "s1", models.RoleStudent)

	h.Submit(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already been submitted")
}

func TestSubmissionHandlerGradeValidation(t *testing.T) {
	mockSvc := &submissionServiceMock{detailErr: appErrors.Clone(appErrors.ErrValidation, "grade must be between 1 and 20")}
	h := NewSubmissionHandler(mockSvc)

	c, w := testContext(t, http.MethodPut, "/submissions/s1/grade", `{"grade":25}`)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	asUser(c, "t1", models.RoleTeacher)

	h.Grade(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerDetailHidden(t *testing.T) {
	mockSvc := &submissionServiceMock{detailErr: appErrors.Clone(appErrors.ErrNotFound, "submission not found")}
	h := NewSubmissionHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/submissions/s1", "")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	asUser(c, "outsider", models.RoleStudent)

	h.Detail(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmissionHandlerGradesFilter(t *testing.T) {
	mockSvc := &submissionServiceMock{listResp: []models.SubmissionDetail{{Submission: models.Submission{ID: "s1"}}}}
	h := NewSubmissionHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/grades?classroom_id=c1", "")
	asUser(c, "s1", models.RoleStudent)

	h.Grades(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.gradesCalled)
	assert.Equal(t, "c1", mockSvc.lastFilter.ClassroomID)
}
