package types

import "time"

// Student is a roster entry as served by the students API.
// The roster API names the identifier "_id" and the course "course".
type Student struct {
	ID             string     `json:"_id"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Course         string     `json:"course"`
	EnrollmentYear int        `json:"enrollmentYear"`
	Status         Status     `json:"status"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// User converts the roster entry into a student user record.
func (s Student) User() User {
	return User{
		ID:             s.ID,
		FullName:       s.FullName,
		Email:          s.Email,
		Role:           RoleStudent,
		Phone:          s.Phone,
		ProfilePicture: s.ProfilePicture,
		CourseOfStudy:  s.Course,
		EnrollmentYear: s.EnrollmentYear,
		Status:         s.Status,
	}
}

// StudentFromUser builds a roster entry from a student user record.
func StudentFromUser(u User, createdAt *time.Time) Student {
	return Student{
		ID:             u.ID,
		FullName:       u.FullName,
		Email:          u.Email,
		Phone:          u.Phone,
		Course:         u.CourseOfStudy,
		EnrollmentYear: u.EnrollmentYear,
		Status:         u.Status,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      createdAt,
	}
}
