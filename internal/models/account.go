package models

import "fmt"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleFaculty UserRole = "FACULTY"
	RoleAdmin   UserRole = "ADMIN"
)

// ParseUserRole accepts the canonical upper-case names as well as "Student"/"student".
func ParseUserRole(raw string) (UserRole, bool) {
	switch UserRole(NormalizeKey(raw)) {
	case "student":
		return RoleStudent, true
	case "faculty":
		return RoleFaculty, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Account is a login identity resolved by username.
type Account struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
}

func (a Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Username, a.Role)
}

// Permission gates used by the HTTP layer.
func CanManageCourses(role UserRole) bool { return role == RoleAdmin }

func CanReviewAdmissions(role UserRole) bool { return role == RoleAdmin || role == RoleFaculty }

func CanEnterGrades(role UserRole) bool { return role == RoleFaculty }

func CanViewOwnGrades(role UserRole) bool { return role == RoleStudent }

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
