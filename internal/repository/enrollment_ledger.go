package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

// EnrollmentLedger records enrollments and completed-course facts per student.
type EnrollmentLedger struct {
	mu          sync.RWMutex
	enrollments map[string]map[string]models.Enrollment
	completions map[string]map[string]models.CompletedCourse
	now         func() time.Time
}

// NewEnrollmentLedger constructs an empty ledger.
func NewEnrollmentLedger() *EnrollmentLedger {
	return &EnrollmentLedger{
		enrollments: make(map[string]map[string]models.Enrollment),
		completions: make(map[string]map[string]models.CompletedCourse),
		now:         time.Now,
	}
}

// Exists reports whether the student holds an enrollment in the course.
func (l *EnrollmentLedger) Exists(student, course string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.exists(student, course)
}

// HasCompleted reports whether a completion fact exists for the pair.
func (l *EnrollmentLedger) HasCompleted(student, course string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasCompleted(student, course)
}

// RecordCompletion adds a completion fact. Recording the same pair twice is a no-op.
func (l *EnrollmentLedger) RecordCompletion(student, course string) {
	l.RecordCompletionAt(student, course, l.now().UTC())
}

// RecordCompletionAt is RecordCompletion with an explicit timestamp. It reports whether the fact was new.
func (l *EnrollmentLedger) RecordCompletionAt(student, course string, at time.Time) bool {
	studentKey, courseKey := models.NormalizeKey(student), models.NormalizeKey(course)
	if studentKey == "" || courseKey == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	facts, ok := l.completions[studentKey]
	if !ok {
		facts = make(map[string]models.CompletedCourse)
		l.completions[studentKey] = facts
	}
	if _, dup := facts[courseKey]; dup {
		return false
	}
	facts[courseKey] = models.CompletedCourse{
		StudentUsername: strings.TrimSpace(student),
		CourseCode:      strings.TrimSpace(course),
		RecordedAt:      at,
	}
	return true
}

// ScheduleFor returns the student's enrollments ordered by enrollment time then course code.
func (l *EnrollmentLedger) ScheduleFor(student string) []models.Enrollment {
	l.mu.RLock()
	rows := l.enrollments[models.NormalizeKey(student)]
	out := make([]models.Enrollment, 0, len(rows))
	for _, e := range rows {
		out = append(out, e)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.Before(out[j].EnrolledAt)
		}
		return models.NormalizeKey(out[i].CourseCode) < models.NormalizeKey(out[j].CourseCode)
	})
	return out
}

// CompletedFor returns the student's completion facts ordered by course code.
func (l *EnrollmentLedger) CompletedFor(student string) []models.CompletedCourse {
	l.mu.RLock()
	rows := l.completions[models.NormalizeKey(student)]
	out := make([]models.CompletedCourse, 0, len(rows))
	for _, c := range rows {
		out = append(out, c)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return models.NormalizeKey(out[i].CourseCode) < models.NormalizeKey(out[j].CourseCode)
	})
	return out
}

// CountFor returns how many students hold an enrollment in the course.
func (l *EnrollmentLedger) CountFor(course string) int {
	courseKey := models.NormalizeKey(course)

	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, rows := range l.enrollments {
		if _, ok := rows[courseKey]; ok {
			count++
		}
	}
	return count
}

// Update runs fn holding the ledger write lock. The LedgerTx is only valid inside fn.
func (l *EnrollmentLedger) Update(fn func(tx *LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := &LedgerTx{ledger: l}
	defer func() { tx.closed = true }()
	return fn(tx)
}

// LedgerTx exposes raw enrollment inserts to code already holding the ledger lock.
type LedgerTx struct {
	ledger *EnrollmentLedger
	closed bool
}

// Exists reads inside the transaction.
func (tx *LedgerTx) Exists(student, course string) bool {
	return !tx.closed && tx.ledger.exists(student, course)
}

// HasCompleted reads inside the transaction.
func (tx *LedgerTx) HasCompleted(student, course string) bool {
	return !tx.closed && tx.ledger.hasCompleted(student, course)
}

// Now returns the ledger clock.
func (tx *LedgerTx) Now() time.Time {
	return tx.ledger.now().UTC()
}

// Add inserts an enrollment. Duplicates are rejected so the ledger keeps set semantics.
func (tx *LedgerTx) Add(enrollment models.Enrollment) error {
	if tx.closed {
		return ErrTxClosed
	}
	studentKey := models.NormalizeKey(enrollment.StudentUsername)
	courseKey := models.NormalizeKey(enrollment.CourseCode)
	if studentKey == "" || courseKey == "" {
		return appErrors.Clone(appErrors.ErrValidation, "enrollment requires student and course")
	}
	rows, ok := tx.ledger.enrollments[studentKey]
	if !ok {
		rows = make(map[string]models.Enrollment)
		tx.ledger.enrollments[studentKey] = rows
	}
	if _, dup := rows[courseKey]; dup {
		return appErrors.ErrAlreadyEnrolled
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = tx.Now()
	}
	rows[courseKey] = enrollment
	return nil
}

func (l *EnrollmentLedger) exists(student, course string) bool {
	_, ok := l.enrollments[models.NormalizeKey(student)][models.NormalizeKey(course)]
	return ok
}

func (l *EnrollmentLedger) hasCompleted(student, course string) bool {
	_, ok := l.completions[models.NormalizeKey(student)][models.NormalizeKey(course)]
	return ok
}
