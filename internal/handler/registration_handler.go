package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, student, courseCode string) (models.RegistrationResult, error)
	RegisterBatch(ctx context.Context, requests []models.RegistrationRequest) ([]models.RegistrationResult, error)
}

// RegisterRequest is the payload for a self-service registration.
type RegisterRequest struct {
	CourseCode string `json:"course_code" binding:"required"`
}

// BatchRegisterRequest is the payload for staff bulk registration.
type BatchRegisterRequest struct {
	Items []models.RegistrationRequest `json:"items" binding:"required"`
}

var outcomeErrors = map[models.RegistrationOutcome]*appErrors.Error{
	models.RegistrationNotAuthorized:       appErrors.ErrNotAuthorized,
	models.RegistrationNotFound:            appErrors.ErrCourseNotFound,
	models.RegistrationCourseFull:          appErrors.ErrCourseFull,
	models.RegistrationAlreadyEnrolled:     appErrors.ErrAlreadyEnrolled,
	models.RegistrationMissingPrerequisite: appErrors.ErrMissingPrerequisite,
}

// RegistrationHandler exposes course registration.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register for a course
// @Description Registers the authenticated student. Rejections carry the outcome code and message.
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "course_code is required"))
		return
	}

	result, err := h.service.Register(c.Request.Context(), claims.Username, req.CourseCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.OK {
		response.Error(c, outcomeError(result), map[string]interface{}{"result": result})
		return
	}
	response.Created(c, result)
}

// Batch godoc
// @Summary Register students in bulk
// @Description Runs each item as an independent registration attempt; per-item outcomes are returned in order
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body BatchRegisterRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registrations/batch [post]
func (h *RegistrationHandler) Batch(c *gin.Context) {
	var req BatchRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}

	results, err := h.service.RegisterBatch(c.Request.Context(), req.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	succeeded := 0
	for _, r := range results {
		if r.OK {
			succeeded++
		}
	}
	response.JSON(c, http.StatusOK, results, nil, map[string]interface{}{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

func outcomeError(result models.RegistrationResult) *appErrors.Error {
	template, ok := outcomeErrors[result.Outcome]
	if !ok {
		template = appErrors.ErrInternal
	}
	return appErrors.Clone(template, result.Message)
}
