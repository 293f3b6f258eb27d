package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/studia-dev/classhub-api/internal/models"
	appErrors "github.com/studia-dev/classhub-api/pkg/errors"
	"github.com/studia-dev/classhub-api/pkg/export"
)

// ExportFormat selects the rendering backend for classroom reports.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered report document.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

type dashboardRepository interface {
	TeacherDashboard(ctx context.Context, teacherID string) (*models.TeacherDashboard, error)
	StudentDashboard(ctx context.Context, studentID string) (*models.StudentDashboard, error)
}

type gradeSource interface {
	GradesByClassroom(ctx context.Context, classroomID string) ([]int, error)
	ListForTeacher(ctx context.Context, teacherID string, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
}

// ReportService produces dashboards, grade statistics and classroom
// report exports. Read-heavy payloads are cached with a short TTL; writes
// elsewhere do not invalidate, staleness is bounded by the TTL.
type ReportService struct {
	stats       dashboardRepository
	classrooms  classroomRepository
	submissions gradeSource
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewReportService constructs a ReportService instance.
func NewReportService(stats dashboardRepository, classrooms classroomRepository, submissions gradeSource, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		stats:       stats,
		classrooms:  classrooms,
		submissions: submissions,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// TeacherDashboard returns aggregate counters for the teacher's classrooms.
func (s *ReportService) TeacherDashboard(ctx context.Context, actor Actor) (*models.TeacherDashboard, error) {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return nil, err
	}
	key := "dashboard:teacher:" + actor.ID
	var cached models.TeacherDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	dashboard, err := s.stats.TeacherDashboard(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}
	_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	return dashboard, nil
}

// StudentDashboard returns counters for the student's enrollments and work.
func (s *ReportService) StudentDashboard(ctx context.Context, actor Actor) (*models.StudentDashboard, error) {
	if err := evaluate(actor, requireStudent(actor)); err != nil {
		return nil, err
	}
	key := "dashboard:student:" + actor.ID
	var cached models.StudentDashboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	dashboard, err := s.stats.StudentDashboard(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}
	_ = s.cache.Set(ctx, key, dashboard, s.cacheTTL)
	return dashboard, nil
}

// ClassroomStatistics computes the grade distribution of one classroom.
// Owner only.
func (s *ReportService) ClassroomStatistics(ctx context.Context, actor Actor, classroomID string) (*models.GradeStatistics, error) {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return nil, err
	}
	if _, err := s.ownedClassroom(ctx, actor, classroomID); err != nil {
		return nil, err
	}

	key := "report:stats:" + classroomID
	var cached models.GradeStatistics
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	grades, err := s.submissions.GradesByClassroom(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	stats := computeGradeStatistics(grades)
	_ = s.cache.Set(ctx, key, stats, s.cacheTTL)
	return stats, nil
}

// ExportClassroomReport renders the classroom's submissions as CSV or PDF.
// Owner only.
func (s *ReportService) ExportClassroomReport(ctx context.Context, actor Actor, classroomID string, format ExportFormat) (*ExportResult, error) {
	if err := evaluate(actor, requireTeacher(actor)); err != nil {
		return nil, err
	}
	classroom, err := s.ownedClassroom(ctx, actor, classroomID)
	if err != nil {
		return nil, err
	}

	submissions, _, err := s.submissions.ListForTeacher(ctx, actor.ID, models.SubmissionFilter{
		ClassroomID: classroomID,
		PageSize:    100,
		SortBy:      "submitted_at",
		SortOrder:   "ASC",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}

	dataset := buildReportDataset(submissions)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("classroom-report-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, classroom.Title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("classroom-report-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *ReportService) ownedClassroom(ctx context.Context, actor Actor, classroomID string) (*models.Classroom, error) {
	classroom, err := s.classrooms.FindByID(ctx, classroomID)
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

// computeGradeStatistics derives distribution figures from an ascending
// grade slice. Passing is 10/20 and above.
func computeGradeStatistics(grades []int) *models.GradeStatistics {
	stats := &models.GradeStatistics{Count: len(grades)}
	if len(grades) == 0 {
		return stats
	}

	sum := 0
	passing := 0
	for _, g := range grades {
		sum += g
		if g >= 10 {
			passing++
		}
	}

	min := grades[0]
	max := grades[len(grades)-1]
	average := float64(sum) / float64(len(grades))

	var median float64
	mid := len(grades) / 2
	if len(grades)%2 == 0 {
		median = float64(grades[mid-1]+grades[mid]) / 2
	} else {
		median = float64(grades[mid])
	}

	stats.Average = &average
	stats.Min = &min
	stats.Max = &max
	stats.Median = &median
	stats.PassingCount = passing
	stats.PassingRate = float64(passing) / float64(len(grades))
	return stats
}

func buildReportDataset(submissions []models.SubmissionDetail) export.Dataset {
	headers := []string{"Student", "Email", "Title", "Status", "Submitted At", "Grade", "Letter"}
	rows := make([]map[string]string, 0, len(submissions))
	for _, sub := range submissions {
		submittedAt := ""
		if sub.SubmittedAt != nil {
			submittedAt = sub.SubmittedAt.UTC().Format(time.RFC3339)
		}
		grade := ""
		if sub.Grade != nil {
			grade = strconv.Itoa(*sub.Grade)
		}
		rows = append(rows, map[string]string{
			"Student":      sub.CreatorName,
			"Email":        sub.CreatorEmail,
			"Title":        sub.Title,
			"Status":       string(sub.Status),
			"Submitted At": submittedAt,
			"Grade":        grade,
			"Letter":       models.GradeLetter(sub.Grade),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
