package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when another account already uses an email.
	ErrEmailTaken = errors.New("email already exists")
)
