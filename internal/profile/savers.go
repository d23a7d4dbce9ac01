package profile

import (
	"context"
	"fmt"

	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/roster"
	"github.com/quicktech-sms/portal/internal/session"
	"github.com/quicktech-sms/portal/types"
)

// ProfileUpdater is the self-service side of the API. *api.Client
// satisfies it.
type ProfileUpdater interface {
	UpdateMe(ctx context.Context, id string, form api.ProfileForm) (types.User, error)
}

// SelfSaver saves the signed-in user's own profile and then patches the
// session with the confirmed record.
func SelfSaver(client ProfileUpdater, store *session.Store) SaveFunc {
	return func(ctx context.Context, id string, d Draft, image *api.Image) (types.User, error) {
		user, err := client.UpdateMe(ctx, id, api.ProfileForm{
			FullName:       d.FullName,
			Email:          d.Email,
			Phone:          d.Phone,
			CourseOfStudy:  d.CourseOfStudy,
			EnrollmentYear: d.EnrollmentYear,
			Image:          image,
		})
		if err != nil {
			return types.User{}, err
		}
		if err := store.UpdateUser(session.PatchFromUser(user)); err != nil {
			return user, fmt.Errorf("update session: %w", err)
		}
		return user, nil
	}
}

// StudentSaver saves an admin's edit of a student through the roster so
// the cached list stays current.
func StudentSaver(r *roster.Reconciler) SaveFunc {
	return func(ctx context.Context, id string, d Draft, image *api.Image) (types.User, error) {
		student, err := r.Update(ctx, id, api.StudentForm{
			FullName:       d.FullName,
			Email:          d.Email,
			Phone:          d.Phone,
			Course:         d.CourseOfStudy,
			EnrollmentYear: d.EnrollmentYear,
			Status:         d.Status,
			Image:          image,
		})
		if err != nil {
			return types.User{}, err
		}
		return student.User(), nil
	}
}
