package service

import (
	"context"
	"encoding/hex"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

const catalogCachePattern = "catalog:*"

type courseCatalog interface {
	Get(code string) (models.Course, bool)
	Search(term string) []models.Course
	Upsert(course models.Course) error
	Delete(code string) bool
}

// CatalogService serves catalog reads through the cache and applies admin edits.
type CatalogService struct {
	catalog   courseCatalog
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	// generation changes on every invalidation; listings read under an older generation are not cached.
	generation atomic.Uint64
}

// NewCatalogService constructs a CatalogService. cache may be nil.
func NewCatalogService(catalog courseCatalog, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, cache: cache, validator: validate, logger: logger}
}

// List returns courses matching search (blank for all), ordered by code.
func (s *CatalogService) List(ctx context.Context, search string) []models.Course {
	key := catalogCacheKey(search)
	var cached []models.Course
	if s.cache.Get(ctx, key, &cached) {
		return cached
	}

	gen := s.generation.Load()
	courses := s.catalog.Search(search)
	if s.generation.Load() != gen {
		return courses
	}
	s.cache.Set(ctx, key, courses, 0)
	if s.generation.Load() != gen {
		s.cache.Invalidate(ctx, key)
	}
	return courses
}

// Get returns a single course.
func (s *CatalogService) Get(_ context.Context, code string) (*models.Course, error) {
	course, ok := s.catalog.Get(code)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "Course "+code+" not found.")
	}
	return &course, nil
}

// Upsert creates or replaces the course identified by code.
func (s *CatalogService) Upsert(ctx context.Context, code string, req models.UpsertCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.catalog.Upsert(req.ToCourse(code)); err != nil {
		return nil, err
	}
	s.InvalidateCache(ctx)

	course, _ := s.catalog.Get(code)
	s.logger.Info("course upserted", zap.String("code", course.Code), zap.Int("capacity", course.Capacity))
	return &course, nil
}

// Delete removes a course. Existing enrollments are kept.
func (s *CatalogService) Delete(ctx context.Context, code string) error {
	if !s.catalog.Delete(code) {
		return appErrors.Clone(appErrors.ErrCourseNotFound, "Course "+code+" not found.")
	}
	s.InvalidateCache(ctx)
	s.logger.Info("course deleted", zap.String("code", code))
	return nil
}

// InvalidateCache drops every cached catalog listing.
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	s.generation.Add(1)
	s.cache.Invalidate(ctx, catalogCachePattern)
}

func catalogCacheKey(search string) string {
	term := models.NormalizeKey(search)
	if term == "" {
		return "catalog:all"
	}
	return "catalog:search:" + hex.EncodeToString([]byte(term))
}
