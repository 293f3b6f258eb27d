package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/service"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
	"github.com/studia-dev/classhub-api/pkg/response"
)

type submissionService interface {
	Create(ctx context.Context, actor service.Actor, req models.CreateSubmissionRequest) (*models.SubmissionDetail, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.UpdateSubmissionRequest) (*models.SubmissionDetail, error)
	Submit(ctx context.Context, actor service.Actor, id string) (*models.SubmissionDetail, error)
	Grade(ctx context.Context, actor service.Actor, id string, req models.GradeSubmissionRequest) (*models.SubmissionDetail, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	List(ctx context.Context, actor service.Actor, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
	Grades(ctx context.Context, actor service.Actor, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
	Detail(ctx context.Context, actor service.Actor, id string) (*models.SubmissionDetail, error)
}

// SubmissionHandler wires HTTP endpoints to the submission lifecycle.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Create godoc
// @Summary Create a draft submission
// @Description Create a draft in a classroom the student belongs to
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req models.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	detail, err := h.service.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List visible submissions
// @Description Submissions in owned classrooms for teachers; created or
// collaborated submissions for students
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param classroom_id query string false "Filter by classroom"
// @Param status query string false "Filter by status (DRAFT or SUBMITTED)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	filter := models.SubmissionFilter{
		ClassroomID: c.Query("classroom_id"),
		Status:      models.SubmissionStatus(c.Query("status")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}
	submissions, total, err := h.service.List(c.Request.Context(), currentActor(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, paginationFor(filter.Page, filter.PageSize, total))
}

// Detail godoc
// @Summary Get one submission
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Detail(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Edit a draft submission
// @Description Edit fields and collaborators while the submission is a draft
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payload body models.UpdateSubmissionRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id} [put]
func (h *SubmissionHandler) Update(c *gin.Context) {
	var req models.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	detail, err := h.service.Update(c.Request.Context(), currentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a draft submission
// @Tags Submissions
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit a draft
// @Description One-way DRAFT to SUBMITTED transition
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	detail, err := h.service.Submit(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Grade godoc
// @Summary Grade a submitted submission
// @Description Assign or revise a grade between 1 and 20. Owner teacher only.
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payload body models.GradeSubmissionRequest true "Grading payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/grade [put]
func (h *SubmissionHandler) Grade(c *gin.Context) {
	var req models.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grading payload"))
		return
	}
	detail, err := h.service.Grade(c.Request.Context(), currentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Grades godoc
// @Summary List the current student's graded work
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *SubmissionHandler) Grades(c *gin.Context) {
	filter := models.SubmissionFilter{
		ClassroomID: c.Query("classroom_id"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
		SortBy:      "submitted_at",
	}
	submissions, total, err := h.service.Grades(c.Request.Context(), currentActor(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, paginationFor(filter.Page, filter.PageSize, total))
}
