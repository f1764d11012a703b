package service

import (
	"context"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type scheduleLedger interface {
	ScheduleFor(student string) []models.Enrollment
}

type courseLookup interface {
	Get(code string) (models.Course, bool)
}

// ScheduleService joins ledger enrollments with current catalog data.
type ScheduleService struct {
	ledger  scheduleLedger
	catalog courseLookup
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(ledger scheduleLedger, catalog courseLookup) *ScheduleService {
	return &ScheduleService{ledger: ledger, catalog: catalog}
}

// ScheduleFor returns the student's enrollments. Entries whose course was since removed from the
// catalog keep their recorded title, count zero credits and are marked inactive.
func (s *ScheduleService) ScheduleFor(_ context.Context, student string) models.Schedule {
	enrollments := s.ledger.ScheduleFor(student)
	schedule := models.Schedule{StudentUsername: student, Entries: make([]models.ScheduleEntry, 0, len(enrollments))}
	for _, e := range enrollments {
		entry := models.ScheduleEntry{Enrollment: e}
		if course, ok := s.catalog.Get(e.CourseCode); ok {
			entry.Credits = course.Credits
			entry.Active = true
			schedule.TotalCredits += course.Credits
		}
		schedule.Entries = append(schedule.Entries, entry)
	}
	if len(enrollments) > 0 {
		schedule.StudentUsername = enrollments[0].StudentUsername
	}
	return schedule
}
