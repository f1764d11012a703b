package models

import (
	"fmt"
	"strings"
)

// Course defaults applied when a seed or upsert payload omits the field.
const (
	DefaultCourseCapacity = 30
	DefaultCourseCredits  = 3
)

// Course is a catalog entry with finite seat capacity.
type Course struct {
	Code          string   `json:"code" yaml:"code"`
	Title         string   `json:"title" yaml:"title"`
	Department    string   `json:"department" yaml:"department"`
	Capacity      int      `json:"capacity" yaml:"capacity"`
	Enrolled      int      `json:"enrolled" yaml:"-"`
	Credits       int      `json:"credits" yaml:"credits"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
}

// HasSeatAvailable reports whether at least one seat is free.
func (c Course) HasSeatAvailable() bool {
	return c.Enrolled < c.Capacity
}

// SeatsRemaining never goes below zero, even when capacity was lowered under the enrolled count.
func (c Course) SeatsRemaining() int {
	if c.Enrolled >= c.Capacity {
		return 0
	}
	return c.Capacity - c.Enrolled
}

// Summary renders the course the way catalog listings display it.
func (c Course) Summary() string {
	return fmt.Sprintf("%s - %s (Seats: %d/%d)", c.Code, c.Title, c.Enrolled, c.Capacity)
}

// Clone returns a deep copy so callers never share the prerequisite slice with the catalog.
func (c Course) Clone() Course {
	out := c
	if c.Prerequisites != nil {
		out.Prerequisites = append([]string(nil), c.Prerequisites...)
	}
	return out
}

// NormalizeKey produces the lookup key used by every case-insensitive map in the service.
func NormalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// UpsertCourseRequest is the payload for creating or replacing a course. Omitted capacity and
// credits fall back to the course defaults.
type UpsertCourseRequest struct {
	Title         string   `json:"title" validate:"max=200"`
	Department    string   `json:"department" validate:"max=100"`
	Capacity      *int     `json:"capacity"`
	Credits       *int     `json:"credits"`
	Prerequisites []string `json:"prerequisites" validate:"max=20,dive,max=32"`
}

// ToCourse builds the catalog record for code.
func (r UpsertCourseRequest) ToCourse(code string) Course {
	course := Course{
		Code:          code,
		Title:         strings.TrimSpace(r.Title),
		Department:    strings.TrimSpace(r.Department),
		Capacity:      DefaultCourseCapacity,
		Credits:       DefaultCourseCredits,
		Prerequisites: append([]string(nil), r.Prerequisites...),
	}
	if r.Capacity != nil {
		course.Capacity = *r.Capacity
	}
	if r.Credits != nil {
		course.Credits = *r.Credits
	}
	return course
}
