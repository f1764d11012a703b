package models

import (
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the admissions decision state.
type ApplicationStatus string

// Admissions states. Submitted is initial; Accepted and Rejected are decisions.
const (
	ApplicationSubmitted ApplicationStatus = "Submitted"
	ApplicationAccepted  ApplicationStatus = "Accepted"
	ApplicationRejected  ApplicationStatus = "Rejected"
)

// ParseApplicationStatus matches a status name case-insensitively.
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	for _, status := range []ApplicationStatus{ApplicationSubmitted, ApplicationAccepted, ApplicationRejected} {
		if strings.EqualFold(strings.TrimSpace(raw), string(status)) {
			return status, true
		}
	}
	return "", false
}

// Applicant is one admissions submission.
type Applicant struct {
	ID          int64             `json:"id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Status      ApplicationStatus `json:"status"`
}

// FullName joins first and last name.
func (a Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Summary renders the applicant for review listings.
func (a Applicant) Summary() string {
	return fmt.Sprintf("#%d %s (%s)", a.ID, a.FullName(), a.Status)
}
