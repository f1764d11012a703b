package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
)

// TranscriptImportJob is the job type handled by TranscriptService.HandleJob.
const TranscriptImportJob = "transcript_import"

const transcriptPageSize = 500

type transcriptSource interface {
	ListCompletions(ctx context.Context, after models.TranscriptCursor, limit int) ([]models.CompletedCourse, error)
	InsertCompletion(ctx context.Context, completion models.CompletedCourse) error
}

type completionLedger interface {
	RecordCompletionAt(student, course string, at time.Time) bool
	CompletedFor(student string) []models.CompletedCourse
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// ImportResult summarises one transcript import run.
type ImportResult struct {
	Fetched int       `json:"fetched"`
	Added   int       `json:"added"`
	Through time.Time `json:"through"`
}

// TranscriptService maintains completion facts: manual entries from staff and bulk imports from the
// registrar database.
type TranscriptService struct {
	source    transcriptSource
	ledger    completionLedger
	accounts  accountResolver
	catalog   courseLookup
	queue     jobEnqueuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	cursor models.TranscriptCursor
}

// NewTranscriptService constructs a TranscriptService. source and queue may be nil when no registrar
// database is configured.
func NewTranscriptService(source transcriptSource, ledger completionLedger, accounts accountResolver, catalog courseLookup, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		source:    source,
		ledger:    ledger,
		accounts:  accounts,
		catalog:   catalog,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// AttachQueue wires the async import queue. The queue is built after the service since its handler
// is HandleJob.
func (s *TranscriptService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// RecordCompletion adds a completion fact for a student account and writes it through to the
// registrar database when one is configured.
func (s *TranscriptService) RecordCompletion(ctx context.Context, student string, req models.RecordCompletionRequest) (*models.CompletedCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}

	account, err := s.accounts.ResolveAccount(ctx, student)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}
	if account.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "completions can only be recorded for student accounts")
	}

	course, ok := s.catalog.Get(req.CourseCode)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "Course "+strings.TrimSpace(req.CourseCode)+" not found.")
	}

	completion := models.CompletedCourse{StudentUsername: account.Username, CourseCode: course.Code, RecordedAt: s.now().UTC()}
	if added := s.ledger.RecordCompletionAt(completion.StudentUsername, completion.CourseCode, completion.RecordedAt); !added {
		s.logger.Debug("completion already recorded", zap.String("student", account.Username), zap.String("course", course.Code))
		return &completion, nil
	}

	if s.source != nil {
		if err := s.source.InsertCompletion(ctx, completion); err != nil {
			s.logger.Warn("completion write-through failed", zap.String("student", account.Username), zap.String("course", course.Code), zap.Error(err))
		}
	}
	s.logger.Info("completion recorded", zap.String("student", account.Username), zap.String("course", course.Code))
	return &completion, nil
}

// Completions lists completion facts for a student.
func (s *TranscriptService) Completions(_ context.Context, student string) []models.CompletedCourse {
	return s.ledger.CompletedFor(student)
}

// Import pulls completions recorded since the last successful run and adds them to the ledger.
func (s *TranscriptService) Import(ctx context.Context) (ImportResult, error) {
	if s.source == nil {
		return ImportResult{}, appErrors.Clone(appErrors.ErrQueueUnavailable, "transcript source not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cursor := s.cursor
	result := ImportResult{Through: cursor.CompletedAt}
	for {
		start := time.Now()
		page, err := s.source.ListCompletions(ctx, cursor, transcriptPageSize)
		s.metrics.ObserveDBQuery("list_transcript_completions", time.Since(start))
		if err != nil {
			s.cursor = cursor
			result.Through = cursor.CompletedAt
			s.metrics.RecordCompletionsImported(result.Added)
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import transcripts")
		}
		advanced := false
		for _, c := range page {
			if !cursor.Precedes(c) {
				continue
			}
			result.Fetched++
			if s.ledger.RecordCompletionAt(c.StudentUsername, c.CourseCode, c.RecordedAt) {
				result.Added++
			}
			cursor = models.CursorAt(c)
			advanced = true
		}
		if len(page) < transcriptPageSize {
			break
		}
		if !advanced {
			s.logger.Warn("transcript page did not advance the cursor", zap.Time("completed_at", cursor.CompletedAt), zap.String("student", cursor.Student))
			break
		}
	}

	s.cursor = cursor
	result.Through = cursor.CompletedAt
	s.metrics.RecordCompletionsImported(result.Added)
	s.logger.Info("transcript import finished",
		zap.Int("fetched", result.Fetched),
		zap.Int("added", result.Added),
		zap.Time("through", result.Through),
	)
	return result, nil
}

// EnqueueImport schedules an asynchronous import and returns the job id.
func (s *TranscriptService) EnqueueImport(_ context.Context) (string, error) {
	if s.queue == nil || s.source == nil {
		return "", appErrors.Clone(appErrors.ErrQueueUnavailable, "transcript import is disabled")
	}
	id, err := s.queue.Enqueue(jobs.Job{Type: TranscriptImportJob})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrQueueUnavailable.Code, appErrors.ErrQueueUnavailable.Status, "failed to enqueue transcript import")
	}
	return id, nil
}

// HandleJob is the queue handler for transcript imports.
func (s *TranscriptService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != TranscriptImportJob {
		s.logger.Warn("ignoring unknown job type", zap.String("type", job.Type), zap.String("job_id", job.ID))
		return nil
	}
	_, err := s.Import(ctx)
	return err
}
