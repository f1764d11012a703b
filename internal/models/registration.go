package models

// RegistrationOutcome tags the result of a registration attempt.
type RegistrationOutcome string

// Registration outcomes. Every failure is an expected condition returned as data.
const (
	RegistrationOK                  RegistrationOutcome = "REGISTERED"
	RegistrationNotAuthorized       RegistrationOutcome = "NOT_AUTHORIZED"
	RegistrationNotFound            RegistrationOutcome = "NOT_FOUND"
	RegistrationCourseFull          RegistrationOutcome = "COURSE_FULL"
	RegistrationAlreadyEnrolled     RegistrationOutcome = "ALREADY_ENROLLED"
	RegistrationMissingPrerequisite RegistrationOutcome = "MISSING_PREREQUISITE"
)

// RegistrationResult is returned by every registration attempt.
type RegistrationResult struct {
	OK                  bool                `json:"ok"`
	Outcome             RegistrationOutcome `json:"outcome"`
	Message             string              `json:"message"`
	StudentUsername     string              `json:"student_username"`
	CourseCode          string              `json:"course_code"`
	MissingPrerequisite string              `json:"missing_prerequisite,omitempty"`
	Enrollment          *Enrollment         `json:"enrollment,omitempty"`
}

// RegistrationRequest identifies a single (student, course) attempt in a batch.
type RegistrationRequest struct {
	StudentUsername string `json:"student" validate:"required"`
	CourseCode      string `json:"course_code" validate:"required"`
}
