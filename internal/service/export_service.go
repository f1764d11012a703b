package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/export"
)

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

type scheduleReader interface {
	ScheduleFor(ctx context.Context, student string) models.Schedule
}

type applicantReader interface {
	ListAll() []models.Applicant
	ListByLastName(name string) []models.Applicant
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders schedules and applicant lists as CSV or PDF.
type ExportService struct {
	schedules  scheduleReader
	applicants applicantReader
	renderer   datasetRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService. A nil renderer selects the default CSV/PDF renderer.
func NewExportService(schedules scheduleReader, applicants applicantReader, renderer datasetRenderer, logger *zap.Logger) *ExportService {
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{schedules: schedules, applicants: applicants, renderer: renderer, logger: logger, now: time.Now}
}

// Schedule renders a student's schedule.
func (s *ExportService) Schedule(ctx context.Context, student, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	schedule := s.schedules.ScheduleFor(ctx, student)
	data := export.Dataset{
		Title:   fmt.Sprintf("Schedule for %s (%d credits)", schedule.StudentUsername, schedule.TotalCredits),
		Headers: []string{"Course", "Title", "Credits", "Enrolled At", "Status"},
	}
	for _, entry := range schedule.Entries {
		status := "active"
		if !entry.Active {
			status = "withdrawn from catalog"
		}
		data.Rows = append(data.Rows, map[string]string{
			"Course":      entry.CourseCode,
			"Title":       entry.CourseTitle,
			"Credits":     strconv.Itoa(entry.Credits),
			"Enrolled At": entry.EnrolledAt.UTC().Format(time.RFC3339),
			"Status":      status,
		})
	}
	return s.render(format, "schedule-"+models.NormalizeKey(student), data)
}

// Applicants renders the admissions list, optionally filtered by last name.
func (s *ExportService) Applicants(_ context.Context, lastName, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	applicants := s.applicants.ListAll()
	if lastName != "" {
		applicants = s.applicants.ListByLastName(lastName)
	}
	data := export.Dataset{
		Title:   "Admissions applications",
		Headers: []string{"ID", "First Name", "Last Name", "Submitted At", "Status"},
	}
	for _, a := range applicants {
		data.Rows = append(data.Rows, map[string]string{
			"ID":           strconv.FormatInt(a.ID, 10),
			"First Name":   a.FirstName,
			"Last Name":    a.LastName,
			"Submitted At": a.SubmittedAt.UTC().Format(time.RFC3339),
			"Status":       string(a.Status),
		})
	}
	return s.render(format, "applicants", data)
}

func (s *ExportService) render(format export.Format, name string, data export.Dataset) (*ExportFile, error) {
	body, err := s.renderer.Render(format, data)
	if err != nil {
		s.logger.Error("export render failed", zap.String("name", name), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s.%s", name, s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
