package repository

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// ErrTxClosed is returned when a transaction handle is used after its closure returned.
var ErrTxClosed = errors.New("transaction already closed")

// CourseCatalog is the in-memory owner of course records, keyed by normalized code.
type CourseCatalog struct {
	mu      sync.RWMutex
	courses map[string]models.Course
}

// NewCourseCatalog constructs an empty catalog.
func NewCourseCatalog() *CourseCatalog {
	return &CourseCatalog{courses: make(map[string]models.Course)}
}

// Get performs a case-insensitive lookup.
func (c *CourseCatalog) Get(code string) (models.Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[models.NormalizeKey(code)]
	if !ok {
		return models.Course{}, false
	}
	return course.Clone(), true
}

// List returns every course ordered by code.
func (c *CourseCatalog) List() []models.Course {
	return c.Search("")
}

// Search matches the trimmed term against code, title and department, case-insensitively.
// A blank term matches everything.
func (c *CourseCatalog) Search(term string) []models.Course {
	needle := models.NormalizeKey(term)

	c.mu.RLock()
	out := make([]models.Course, 0, len(c.courses))
	for _, course := range c.courses {
		if needle == "" || matches(course, needle) {
			out = append(out, course.Clone())
		}
	}
	c.mu.RUnlock()

	sortCourses(out)
	return out
}

// Upsert inserts or replaces a course by code. The enrolled count of an existing course is kept
// and a new course always starts empty; seat counts only move through registration.
func (c *CourseCatalog) Upsert(course models.Course) error {
	code := strings.TrimSpace(course.Code)
	if code == "" {
		return appErrors.Clone(appErrors.ErrValidation, "course code is required")
	}
	course = course.Clone()
	course.Code = code
	course.Prerequisites = normalizePrerequisites(code, course.Prerequisites)

	key := models.NormalizeKey(code)

	c.mu.Lock()
	defer c.mu.Unlock()
	course.Enrolled = 0
	if existing, ok := c.courses[key]; ok {
		course.Enrolled = existing.Enrolled
	}
	c.courses[key] = course
	return nil
}

// Delete removes a course and reports whether it existed. Enrollments are not touched.
func (c *CourseCatalog) Delete(code string) bool {
	key := models.NormalizeKey(code)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.courses[key]; !ok {
		return false
	}
	delete(c.courses, key)
	return true
}

// Len returns the number of courses.
func (c *CourseCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.courses)
}

// Update runs fn holding the catalog write lock. The CatalogTx is only valid inside fn.
func (c *CourseCatalog) Update(fn func(tx *CatalogTx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := &CatalogTx{catalog: c}
	defer func() { tx.closed = true }()
	return fn(tx)
}

// CatalogTx exposes seat mutation to code already holding the catalog lock.
type CatalogTx struct {
	catalog *CourseCatalog
	closed  bool
}

// Get reads a course inside the transaction.
func (tx *CatalogTx) Get(code string) (models.Course, bool) {
	if tx.closed {
		return models.Course{}, false
	}
	course, ok := tx.catalog.courses[models.NormalizeKey(code)]
	if !ok {
		return models.Course{}, false
	}
	return course.Clone(), true
}

// IncrementSeat consumes one seat and returns the updated course.
func (tx *CatalogTx) IncrementSeat(code string) (models.Course, error) {
	if tx.closed {
		return models.Course{}, ErrTxClosed
	}
	key := models.NormalizeKey(code)
	course, ok := tx.catalog.courses[key]
	if !ok {
		return models.Course{}, appErrors.Clone(appErrors.ErrCourseNotFound, "course "+code+" not found")
	}
	course.Enrolled++
	tx.catalog.courses[key] = course
	return course.Clone(), nil
}

// ReleaseSeat undoes an IncrementSeat made earlier in the same transaction.
func (tx *CatalogTx) ReleaseSeat(code string) {
	if tx.closed {
		return
	}
	key := models.NormalizeKey(code)
	course, ok := tx.catalog.courses[key]
	if !ok || course.Enrolled == 0 {
		return
	}
	course.Enrolled--
	tx.catalog.courses[key] = course
}

func matches(course models.Course, needle string) bool {
	return strings.Contains(strings.ToLower(course.Code), needle) ||
		strings.Contains(strings.ToLower(course.Title), needle) ||
		strings.Contains(strings.ToLower(course.Department), needle)
}

func sortCourses(courses []models.Course) {
	sort.Slice(courses, func(i, j int) bool {
		ki, kj := models.NormalizeKey(courses[i].Code), models.NormalizeKey(courses[j].Code)
		if ki != kj {
			return ki < kj
		}
		return courses[i].Code < courses[j].Code
	})
}

// normalizePrerequisites trims codes and drops blanks, duplicates and self references while
// keeping declaration order.
func normalizePrerequisites(code string, prereqs []string) []string {
	if len(prereqs) == 0 {
		return []string{}
	}
	self := models.NormalizeKey(code)
	seen := make(map[string]struct{}, len(prereqs))
	out := make([]string, 0, len(prereqs))
	for _, p := range prereqs {
		trimmed := strings.TrimSpace(p)
		key := models.NormalizeKey(trimmed)
		if key == "" || key == self {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
