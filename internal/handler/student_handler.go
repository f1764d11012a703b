package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/service"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type scheduleService interface {
	ScheduleFor(ctx context.Context, student string) models.Schedule
}

type transcriptService interface {
	RecordCompletion(ctx context.Context, student string, req models.RecordCompletionRequest) (*models.CompletedCourse, error)
	Completions(ctx context.Context, student string) []models.CompletedCourse
	EnqueueImport(ctx context.Context) (string, error)
}

type exportService interface {
	Schedule(ctx context.Context, student, format string) (*service.ExportFile, error)
	Applicants(ctx context.Context, lastName, format string) (*service.ExportFile, error)
}

// StudentHandler serves per-student schedule and transcript endpoints.
type StudentHandler struct {
	schedules   scheduleService
	transcripts transcriptService
	exports     exportService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(schedules scheduleService, transcripts transcriptService, exports exportService) *StudentHandler {
	return &StudentHandler{schedules: schedules, transcripts: transcripts, exports: exports}
}

// Schedule godoc
// @Summary Student schedule
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param username path string true "Student username"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{username}/schedule [get]
func (h *StudentHandler) Schedule(c *gin.Context) {
	schedule := h.schedules.ScheduleFor(c.Request.Context(), c.Param("username"))
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ExportSchedule godoc
// @Summary Download student schedule
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param username path string true "Student username"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/{username}/schedule/export [get]
func (h *StudentHandler) ExportSchedule(c *gin.Context) {
	file, err := h.exports.Schedule(c.Request.Context(), c.Param("username"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Body)
}

// Completions godoc
// @Summary Completed courses
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param username path string true "Student username"
// @Success 200 {object} response.Envelope
// @Router /students/{username}/completions [get]
func (h *StudentHandler) Completions(c *gin.Context) {
	completions := h.transcripts.Completions(c.Request.Context(), c.Param("username"))
	response.JSON(c, http.StatusOK, completions, nil)
}

// RecordCompletion godoc
// @Summary Record a completed course
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param username path string true "Student username"
// @Param payload body models.RecordCompletionRequest true "Completion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{username}/completions [post]
func (h *StudentHandler) RecordCompletion(c *gin.Context) {
	var req models.RecordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	completion, err := h.transcripts.RecordCompletion(c.Request.Context(), c.Param("username"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, completion)
}

// ImportTranscripts godoc
// @Summary Import transcripts
// @Description Queues an import of completion facts from the registrar database
// @Tags Transcripts
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /transcripts/import [post]
func (h *StudentHandler) ImportTranscripts(c *gin.Context) {
	id, err := h.transcripts.EnqueueImport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"job_id": id})
}
