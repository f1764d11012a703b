package models

import (
	"fmt"
	"time"
)

// Enrollment records that a student holds a seat in a course.
// CourseTitle is copied at registration time so the record stays renderable if the course is
// later removed from the catalog.
type Enrollment struct {
	StudentUsername string    `json:"student_username"`
	CourseCode      string    `json:"course_code"`
	CourseTitle     string    `json:"course_title"`
	EnrolledAt      time.Time `json:"enrolled_at"`
}

// Summary renders the enrollment for schedules and exports.
func (e Enrollment) Summary() string {
	return fmt.Sprintf("%s -> %s @ %s", e.StudentUsername, e.CourseCode, e.EnrolledAt.UTC().Format("2006-01-02 15:04:05Z"))
}

// CompletedCourse is a transcript fact used for prerequisite checks.
type CompletedCourse struct {
	StudentUsername string    `json:"student_username" db:"student_username"`
	CourseCode      string    `json:"course_code" db:"course_code"`
	RecordedAt      time.Time `json:"recorded_at" db:"completed_at"`
}

// TranscriptCursor is the keyset position of the last imported completion. Rows are ordered by
// (completed_at, student_username, course_code).
type TranscriptCursor struct {
	CompletedAt time.Time
	Student     string
	Course      string
}

// CursorAt returns the cursor positioned on c.
func CursorAt(c CompletedCourse) TranscriptCursor {
	return TranscriptCursor{CompletedAt: c.RecordedAt, Student: c.StudentUsername, Course: c.CourseCode}
}

// Precedes reports whether c sorts strictly after the cursor.
func (cur TranscriptCursor) Precedes(c CompletedCourse) bool {
	if !c.RecordedAt.Equal(cur.CompletedAt) {
		return c.RecordedAt.After(cur.CompletedAt)
	}
	if c.StudentUsername != cur.Student {
		return c.StudentUsername > cur.Student
	}
	return c.CourseCode > cur.Course
}

// ScheduleEntry is one enrollment row with the course's credit value at read time.
type ScheduleEntry struct {
	Enrollment
	Credits int  `json:"credits"`
	Active  bool `json:"active"`
}

// Schedule is a student's current enrollments.
type Schedule struct {
	StudentUsername string          `json:"student_username"`
	Entries         []ScheduleEntry `json:"entries"`
	TotalCredits    int             `json:"total_credits"`
}

// RecordCompletionRequest marks a course as completed for a student.
type RecordCompletionRequest struct {
	CourseCode string `json:"course_code" validate:"required,max=32"`
}
