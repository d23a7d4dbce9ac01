package types

import "time"

// Account is a user as the local authority stores it.
type Account struct {
	User

	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Student returns the roster view of a student account.
func (a Account) Student() Student {
	created := a.CreatedAt
	return StudentFromUser(a.User, &created)
}
