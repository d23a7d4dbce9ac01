package roster

import (
	"strings"

	"github.com/quicktech-sms/portal/types"
)

// Criteria narrows the roster view. Empty fields match everything.
type Criteria struct {
	// Search is matched case-insensitively against name, email and course.
	Search string
	// Course and Status must match exactly when set.
	Course string
	Status types.Status
}

// Filter returns the students matching c, in their original order. The
// input slice is not modified.
func Filter(students []types.Student, c Criteria) []types.Student {
	search := strings.ToLower(c.Search)
	out := make([]types.Student, 0, len(students))
	for _, s := range students {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.FullName), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) &&
			!strings.Contains(strings.ToLower(s.Course), search) {
			continue
		}
		if c.Course != "" && s.Course != c.Course {
			continue
		}
		if c.Status != "" && s.Status != c.Status {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Stats summarizes a roster.
type Stats struct {
	Total     int
	Active    int
	Graduated int
	Dropped   int
	Courses   int
}

// Summarize counts students by status and distinct course.
func Summarize(students []types.Student) Stats {
	st := Stats{Total: len(students), Courses: len(DistinctCourses(students))}
	for _, s := range students {
		switch s.Status {
		case types.StatusActive:
			st.Active++
		case types.StatusGraduated:
			st.Graduated++
		case types.StatusDropped:
			st.Dropped++
		}
	}
	return st
}

// DistinctCourses lists non-empty courses in first-seen order.
func DistinctCourses(students []types.Student) []string {
	seen := make(map[string]struct{}, len(students))
	var courses []string
	for _, s := range students {
		if s.Course == "" {
			continue
		}
		if _, ok := seen[s.Course]; ok {
			continue
		}
		seen[s.Course] = struct{}{}
		courses = append(courses, s.Course)
	}
	return courses
}
