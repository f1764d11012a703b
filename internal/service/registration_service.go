package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type accountResolver interface {
	ResolveAccount(ctx context.Context, username string) (*models.Account, error)
}

type seatCatalog interface {
	Update(fn func(tx *repository.CatalogTx) error) error
}

type enrollmentLedger interface {
	Update(fn func(tx *repository.LedgerTx) error) error
}

type catalogCacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// RegistrationConfig tunes batch registration.
type RegistrationConfig struct {
	BatchConcurrency int
	BatchMaxItems    int
}

// RegistrationService decides registration attempts against the catalog and ledger.
// Every check and both writes happen under the catalog lock followed by the ledger lock.
type RegistrationService struct {
	accounts  accountResolver
	catalog   seatCatalog
	ledger    enrollmentLedger
	cache     catalogCacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    RegistrationConfig
}

// NewRegistrationService constructs a RegistrationService. cache and metrics may be nil.
func NewRegistrationService(accounts accountResolver, catalog seatCatalog, ledger enrollmentLedger, cache catalogCacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config RegistrationConfig) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 8
	}
	if config.BatchMaxItems <= 0 {
		config.BatchMaxItems = 500
	}
	return &RegistrationService{
		accounts:  accounts,
		catalog:   catalog,
		ledger:    ledger,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Register attempts to enroll student in courseCode. Ordinary rejections are reported in the
// result; the error is non-nil only for ErrInvariantViolated.
func (s *RegistrationService) Register(ctx context.Context, student, courseCode string) (models.RegistrationResult, error) {
	start := time.Now()
	student = strings.TrimSpace(student)
	courseCode = strings.TrimSpace(courseCode)

	result, err := s.register(ctx, student, courseCode)
	if err != nil {
		s.metrics.RecordInvariantViolation()
		s.logger.Error("registration invariant violated",
			zap.String("student", student),
			zap.String("course", courseCode),
			zap.Error(err),
		)
		return result, err
	}

	s.metrics.RecordRegistration(result.Outcome, time.Since(start))
	fields := []zap.Field{
		zap.String("student", student),
		zap.String("course", result.CourseCode),
		zap.String("outcome", string(result.Outcome)),
	}
	if result.OK {
		s.logger.Info("registration accepted", fields...)
		if s.cache != nil {
			s.cache.InvalidateCache(ctx)
		}
	} else {
		s.logger.Warn("registration rejected", append(fields, zap.String("message", result.Message))...)
	}
	return result, nil
}

func (s *RegistrationService) register(ctx context.Context, student, courseCode string) (models.RegistrationResult, error) {
	result := models.RegistrationResult{StudentUsername: student, CourseCode: courseCode}

	account, err := s.accounts.ResolveAccount(ctx, student)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		s.logger.Warn("account lookup failed", zap.String("student", student), zap.Error(err))
	}
	if err != nil || account == nil || account.Role != models.RoleStudent {
		return reject(result, models.RegistrationNotAuthorized, "Only student accounts can register."), nil
	}
	result.StudentUsername = account.Username

	err = s.catalog.Update(func(tx *repository.CatalogTx) error {
		course, ok := tx.Get(courseCode)
		if !ok {
			result = reject(result, models.RegistrationNotFound, fmt.Sprintf("Course %s not found.", courseCode))
			return nil
		}
		result.CourseCode = course.Code
		if !course.HasSeatAvailable() {
			result = reject(result, models.RegistrationCourseFull, "Course is full.")
			return nil
		}

		return s.ledger.Update(func(ltx *repository.LedgerTx) error {
			if ltx.Exists(account.Username, course.Code) {
				result = reject(result, models.RegistrationAlreadyEnrolled, "You are already enrolled in this course.")
				return nil
			}
			for _, pre := range course.Prerequisites {
				if !ltx.HasCompleted(account.Username, pre) {
					result = reject(result, models.RegistrationMissingPrerequisite, fmt.Sprintf("Missing prerequisite: %s.", pre))
					result.MissingPrerequisite = pre
					return nil
				}
			}

			updated, err := tx.IncrementSeat(course.Code)
			if err != nil {
				return err
			}
			if updated.Enrolled > updated.Capacity {
				tx.ReleaseSeat(course.Code)
				return appErrors.Clone(appErrors.ErrInvariantViolated,
					fmt.Sprintf("course %s enrolled %d exceeds capacity %d", updated.Code, updated.Enrolled, updated.Capacity))
			}

			enrollment := models.Enrollment{
				StudentUsername: account.Username,
				CourseCode:      course.Code,
				CourseTitle:     course.Title,
				EnrolledAt:      ltx.Now(),
			}
			if err := ltx.Add(enrollment); err != nil {
				tx.ReleaseSeat(course.Code)
				return appErrors.Wrap(err, appErrors.ErrInvariantViolated.Code, appErrors.ErrInvariantViolated.Status, "enrollment insert failed after checks passed")
			}

			result.OK = true
			result.Outcome = models.RegistrationOK
			result.Message = fmt.Sprintf("Registered in %s - %s.", course.Code, course.Title)
			result.Enrollment = &enrollment
			return nil
		})
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// RegisterBatch runs independent registration attempts with bounded concurrency. Results keep the
// order of requests. The batch stops early only on an invariant violation or context cancellation.
func (s *RegistrationService) RegisterBatch(ctx context.Context, requests []models.RegistrationRequest) ([]models.RegistrationResult, error) {
	if len(requests) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one registration is required")
	}
	if len(requests) > s.config.BatchMaxItems {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds %d registrations", s.config.BatchMaxItems))
	}
	for i, req := range requests {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid registration at index %d", i))
		}
	}

	results := make([]models.RegistrationResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchConcurrency)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.Register(gctx, req.StudentUsername, req.CourseCode)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "batch registration aborted")
	}

	s.logger.Info("batch registration completed", zap.Int("items", len(requests)))
	return results, nil
}

func reject(result models.RegistrationResult, outcome models.RegistrationOutcome, message string) models.RegistrationResult {
	result.OK = false
	result.Outcome = outcome
	result.Message = message
	result.Enrollment = nil
	return result
}
