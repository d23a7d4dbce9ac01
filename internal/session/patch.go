package session

import "github.com/quicktech-sms/portal/types"

// Patch is a shallow partial update of a user. A nil field keeps the prior
// value; a pointer to the zero value clears an optional field. Role is not
// patchable: it changes only through a promotion.
type Patch struct {
	FullName       *string
	Email          *string
	Phone          *string
	ProfilePicture *string
	CourseOfStudy  *string
	EnrollmentYear *int
	Status         *types.Status
}

// Apply returns u with the patch merged in.
func (p Patch) Apply(u types.User) types.User {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if p.CourseOfStudy != nil {
		u.CourseOfStudy = *p.CourseOfStudy
	}
	if p.EnrollmentYear != nil {
		u.EnrollmentYear = *p.EnrollmentYear
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return u
}

// PatchFromUser builds a patch that sets every editable field to u's value.
// It is how a server-confirmed user replaces the session's copy.
func PatchFromUser(u types.User) Patch {
	return Patch{
		FullName:       &u.FullName,
		Email:          &u.Email,
		Phone:          &u.Phone,
		ProfilePicture: &u.ProfilePicture,
		CourseOfStudy:  &u.CourseOfStudy,
		EnrollmentYear: &u.EnrollmentYear,
		Status:         &u.Status,
	}
}
