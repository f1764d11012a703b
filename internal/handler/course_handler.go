package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context, search string) []models.Course
	Get(ctx context.Context, code string) (*models.Course, error)
	Upsert(ctx context.Context, code string, req models.UpsertCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, code string) error
}

// CourseHandler exposes the course catalog.
type CourseHandler struct {
	service catalogService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc catalogService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Description Case-insensitive search over code, title and department
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses := h.service.List(c.Request.Context(), c.Query("search"))
	response.JSON(c, http.StatusOK, courses, &models.Pagination{Page: 1, PageSize: len(courses), TotalCount: len(courses)})
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil, map[string]interface{}{"summary": course.Summary()})
}

// Upsert godoc
// @Summary Create or replace course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body models.UpsertCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{code} [put]
func (h *CourseHandler) Upsert(c *gin.Context) {
	var req models.UpsertCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Upsert(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Description Removes the course; existing enrollments are kept
// @Tags Courses
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
