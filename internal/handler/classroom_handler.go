package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studia-dev/classhub-api/internal/models"
	"github.com/studia-dev/classhub-api/internal/service"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
	"github.com/studia-dev/classhub-api/pkg/response"
)

type classroomService interface {
	Create(ctx context.Context, actor service.Actor, req models.CreateClassroomRequest) (*models.ClassroomDetail, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.UpdateClassroomRequest) (*models.ClassroomDetail, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	List(ctx context.Context, actor service.Actor, filter models.ClassroomFilter) ([]models.ClassroomDetail, int, error)
	Detail(ctx context.Context, actor service.Actor, id string) (*models.ClassroomDetail, error)
	Members(ctx context.Context, actor service.Actor, id string) ([]models.MembershipDetail, error)
}

type membershipService interface {
	Join(ctx context.Context, actor service.Actor, req models.JoinClassroomRequest) (*models.ClassroomDetail, error)
	Leave(ctx context.Context, actor service.Actor, classroomID string) error
}

// ClassroomHandler wires HTTP endpoints to classroom use cases.
type ClassroomHandler struct {
	classrooms  classroomService
	memberships membershipService
}

// NewClassroomHandler creates a new handler.
func NewClassroomHandler(classrooms classroomService, memberships membershipService) *ClassroomHandler {
	return &ClassroomHandler{classrooms: classrooms, memberships: memberships}
}

// Create godoc
// @Summary Create a classroom
// @Description Create a classroom owned by the current teacher
// @Tags Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateClassroomRequest true "Classroom payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classrooms [post]
func (h *ClassroomHandler) Create(c *gin.Context) {
	var req models.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classroom payload"))
		return
	}
	detail, err := h.classrooms.Create(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List visible classrooms
// @Description Owned classrooms for teachers, enrolled ones for students
// @Tags Classrooms
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param search query string false "Title or subject search"
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *ClassroomHandler) List(c *gin.Context) {
	filter := models.ClassroomFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}

	classrooms, total, err := h.classrooms.List(c.Request.Context(), currentActor(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, paginationFor(filter.Page, filter.PageSize, total))
}

// Detail godoc
// @Summary Get one classroom
// @Tags Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id} [get]
func (h *ClassroomHandler) Detail(c *gin.Context) {
	detail, err := h.classrooms.Detail(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Update a classroom
// @Description Edit classroom fields. The join code never changes.
// @Tags Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param payload body models.UpdateClassroomRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id} [put]
func (h *ClassroomHandler) Update(c *gin.Context) {
	var req models.UpdateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid classroom payload"))
		return
	}
	detail, err := h.classrooms.Update(c.Request.Context(), currentActor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a classroom
// @Tags Classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id} [delete]
func (h *ClassroomHandler) Delete(c *gin.Context) {
	if err := h.classrooms.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Join godoc
// @Summary Join a classroom by code
// @Description Enroll the current student using a join code
// @Tags Classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.JoinClassroomRequest true "Join payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classrooms/join [post]
func (h *ClassroomHandler) Join(c *gin.Context) {
	var req models.JoinClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid join payload"))
		return
	}
	detail, err := h.memberships.Join(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Leave godoc
// @Summary Leave a classroom
// @Description Remove the current student's membership. Blocked when the
// student created a submission in the classroom.
// @Tags Classrooms
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classrooms/{id}/membership [delete]
func (h *ClassroomHandler) Leave(c *gin.Context) {
	if err := h.memberships.Leave(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Members godoc
// @Summary List classroom members
// @Description Roster of the classroom. Owning teacher or enrolled student.
// @Tags Classrooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/members [get]
func (h *ClassroomHandler) Members(c *gin.Context) {
	members, err := h.classrooms.Members(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}
