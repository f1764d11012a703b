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

type admissionsService interface {
	SubmitRequest(ctx context.Context, req service.SubmitApplicationRequest) (*models.Applicant, error)
	ListAll() []models.Applicant
	ListByLastName(name string) []models.Applicant
	Get(id int64) (models.Applicant, bool)
	DecideRequest(ctx context.Context, id int64, req service.DecideApplicationRequest) (*models.Applicant, error)
}

// AdmissionsHandler exposes the admissions pipeline.
type AdmissionsHandler struct {
	service admissionsService
	exports exportService
}

// NewAdmissionsHandler constructs an AdmissionsHandler.
func NewAdmissionsHandler(svc admissionsService, exports exportService) *AdmissionsHandler {
	return &AdmissionsHandler{service: svc, exports: exports}
}

// Submit godoc
// @Summary Submit an application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body service.SubmitApplicationRequest true "Applicant"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionsHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}
	applicant, err := h.service.SubmitRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, applicant)
}

// List godoc
// @Summary List applications
// @Tags Admissions
// @Produce json
// @Security BearerAuth
// @Param lastName query string false "Exact last name, case-insensitive"
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionsHandler) List(c *gin.Context) {
	var applicants []models.Applicant
	if lastName, ok := c.GetQuery("lastName"); ok {
		applicants = h.service.ListByLastName(lastName)
	} else {
		applicants = h.service.ListAll()
	}
	response.JSON(c, http.StatusOK, applicants, &models.Pagination{Page: 1, PageSize: len(applicants), TotalCount: len(applicants)})
}

// Get godoc
// @Summary Get application
// @Tags Admissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionsHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	applicant, ok := h.service.Get(id)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "application not found"))
		return
	}
	response.JSON(c, http.StatusOK, applicant, nil, map[string]interface{}{"summary": applicant.Summary()})
}

// Decide godoc
// @Summary Decide an application
// @Description Sets the status; any status may replace any other
// @Tags Admissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application id"
// @Param payload body service.DecideApplicationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/{id}/decision [put]
func (h *AdmissionsHandler) Decide(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.DecideApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	applicant, err := h.service.DecideRequest(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applicant, nil)
}

// Export godoc
// @Summary Download applications
// @Tags Admissions
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param lastName query string false "Exact last name"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /admissions/export [get]
func (h *AdmissionsHandler) Export(c *gin.Context) {
	file, err := h.exports.Applicants(c.Request.Context(), c.Query("lastName"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.ContentType, file.Filename, file.Body)
}
