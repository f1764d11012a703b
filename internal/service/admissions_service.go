package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// SubmitApplicationRequest is the public admissions payload.
type SubmitApplicationRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

// DecideApplicationRequest carries a reviewer decision.
type DecideApplicationRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdmissionsService owns applicant records. Ids start at 1 and are assigned under the same lock
// that appends the record, so concurrent submissions never share or skip an id.
type AdmissionsService struct {
	mu         sync.RWMutex
	applicants []models.Applicant
	byID       map[int64]int
	nextID     int64

	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdmissionsService constructs an empty pipeline.
func NewAdmissionsService(metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdmissionsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionsService{
		byID:      make(map[int64]int),
		nextID:    1,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit records an application in the Submitted state and returns its id. It never fails.
func (s *AdmissionsService) Submit(firstName, lastName string, submittedAt time.Time) int64 {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.byID[id] = len(s.applicants)
	s.applicants = append(s.applicants, models.Applicant{
		ID:          id,
		FirstName:   firstName,
		LastName:    lastName,
		SubmittedAt: submittedAt,
		Status:      models.ApplicationSubmitted,
	})
	s.mu.Unlock()

	s.metrics.RecordApplication()
	s.logger.Info("application submitted", zap.Int64("id", id))
	return id
}

// SubmitRequest validates an HTTP payload and submits it stamped with the current time.
func (s *AdmissionsService) SubmitRequest(_ context.Context, req SubmitApplicationRequest) (*models.Applicant, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "first and last name are required")
	}
	id := s.Submit(req.FirstName, req.LastName, s.now().UTC())
	applicant, _ := s.Get(id)
	return &applicant, nil
}

// ListAll returns a snapshot in submission order.
func (s *AdmissionsService) ListAll() []models.Applicant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Applicant, len(s.applicants))
	copy(out, s.applicants)
	return out
}

// ListByLastName returns applicants whose last name equals name, ignoring case and surrounding space.
func (s *AdmissionsService) ListByLastName(name string) []models.Applicant {
	needle := models.NormalizeKey(name)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Applicant, 0)
	for _, a := range s.applicants {
		if models.NormalizeKey(a.LastName) == needle {
			out = append(out, a)
		}
	}
	return out
}

// Get returns a single applicant.
func (s *AdmissionsService) Get(id int64) (models.Applicant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return models.Applicant{}, false
	}
	return s.applicants[idx], true
}

// Decide sets the status of an application and reports whether it exists. Any status may replace
// any other, including a previous decision.
func (s *AdmissionsService) Decide(id int64, status models.ApplicationStatus) bool {
	s.mu.Lock()
	idx, ok := s.byID[id]
	if ok {
		s.applicants[idx].Status = status
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.metrics.RecordDecision(status)
	s.logger.Info("application decided", zap.Int64("id", id), zap.String("status", string(status)))
	return true
}

// DecideRequest parses the payload and applies the decision, returning the updated applicant.
func (s *AdmissionsService) DecideRequest(_ context.Context, id int64, req DecideApplicationRequest) (*models.Applicant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	status, ok := models.ParseApplicationStatus(req.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Submitted, Accepted or Rejected")
	}
	if !s.Decide(id, status) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	applicant, _ := s.Get(id)
	return &applicant, nil
}
