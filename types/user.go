package types

import "errors"

// Role indicates the user's authorization level within the portal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Status is the enrollment status of a student.
type Status string

const (
	StatusActive    Status = "Active"
	StatusGraduated Status = "Graduated"
	StatusDropped   Status = "Dropped"
)

// Statuses lists every enrollment status in display order.
var Statuses = []Status{StatusActive, StatusGraduated, StatusDropped}

// Valid reports whether s is a known enrollment status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusGraduated, StatusDropped:
		return true
	}
	return false
}

// ErrInvalidTransition is returned when a role change is not allowed.
var ErrInvalidTransition = errors.New("invalid role transition")

// User represents an account in the portal.
// It carries identity, role and, for students, enrollment details.
type User struct {
	// ID is the server-assigned identifier of the user.
	ID string `json:"id"`

	// FullName is the user's display name.
	FullName string `json:"fullName"`

	// Email is the user's login address.
	Email string `json:"email"`

	// Role indicates the user's authorization level.
	// Users cannot change their own role; only a promotion may.
	Role Role `json:"role"`

	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty"`

	// ProfilePicture is the canonical image reference returned by the API.
	ProfilePicture string `json:"profilePicture,omitempty"`

	// CourseOfStudy, EnrollmentYear and Status are meaningful only
	// when Role is RoleStudent.
	CourseOfStudy  string `json:"courseOfStudy,omitempty"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty"`
	Status         Status `json:"status,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStudent reports whether the user holds the student role.
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// Promote moves a student to the admin role. Student-only fields are
// cleared since they carry no meaning for administrators. Promotion is
// one-directional: admins cannot be demoted through this path.
func (u *User) Promote() error {
	if u.Role != RoleStudent {
		return ErrInvalidTransition
	}
	u.Role = RoleAdmin
	u.CourseOfStudy = ""
	u.EnrollmentYear = 0
	u.Status = ""
	return nil
}

// CanTransition reports whether a user in role from may be moved to role to.
func CanTransition(from, to Role) bool {
	return from == RoleStudent && to == RoleAdmin
}
