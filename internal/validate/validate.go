// Package validate runs client-local form validation before any request
// reaches the API. Failures carry the message shown inline to the user.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/quicktech-sms/portal/types"
)

// Error is a client-local validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Messages maps "Field.tag" to the user-facing message for that failure.
// A "Field" key without a tag matches any tag on that field.
type Messages map[string]string

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", notBlank)
		_ = v.RegisterValidation("student_required", studentRequired, true)
		instance = v
	})
	return instance
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// studentRequired requires a non-blank value when the sibling Role field
// holds the student role.
func studentRequired(fl validator.FieldLevel) bool {
	parent := fl.Parent()
	for parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}
	if parent.Kind() != reflect.Struct {
		return true
	}
	role := parent.FieldByName("Role")
	if !role.IsValid() || role.String() != string(types.RoleStudent) {
		return true
	}
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates s and returns the first failure as an *Error, in field
// declaration order. It returns nil when s is valid.
func Struct(s any, messages Messages) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := fieldErrs[0]
	field := first.StructField()
	if msg, ok := messages[field+"."+first.Tag()]; ok {
		return &Error{Field: field, Message: msg}
	}
	if msg, ok := messages[field]; ok {
		return &Error{Field: field, Message: msg}
	}
	return &Error{Field: field, Message: fmt.Sprintf("%s is invalid", field)}
}

// Message returns the user-facing text of err when it is a validation
// failure, and false otherwise.
func Message(err error) (string, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}
