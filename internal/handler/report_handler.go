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

type reportService interface {
	TeacherDashboard(ctx context.Context, actor service.Actor) (*models.TeacherDashboard, error)
	StudentDashboard(ctx context.Context, actor service.Actor) (*models.StudentDashboard, error)
	ClassroomStatistics(ctx context.Context, actor service.Actor, classroomID string) (*models.GradeStatistics, error)
	ExportClassroomReport(ctx context.Context, actor service.Actor, classroomID string, format service.ExportFormat) (*service.ExportResult, error)
}

// ReportHandler exposes dashboards, grade statistics and report exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Dashboard godoc
// @Summary Role-specific dashboard
// @Description Aggregate counters for the current teacher or student
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	actor := currentActor(c)
	switch actor.Role {
	case models.RoleTeacher:
		dashboard, err := h.service.TeacherDashboard(c.Request.Context(), actor)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	case models.RoleStudent:
		dashboard, err := h.service.StudentDashboard(c.Request.Context(), actor)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	default:
		response.Error(c, appErrors.ErrUnauthorized)
	}
}

// Statistics godoc
// @Summary Classroom grade statistics
// @Description Grade distribution of a classroom. Owner teacher only.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/report [get]
func (h *ReportHandler) Statistics(c *gin.Context) {
	stats, err := h.service.ClassroomStatistics(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export a classroom report
// @Description Download the classroom's submissions as CSV or PDF. Owner
// teacher only.
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Classroom ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classrooms/{id}/report/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.service.ExportClassroomReport(c.Request.Context(), currentActor(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
