package validate

import (
	"errors"
	"testing"

	"github.com/quicktech-sms/portal/types"
)

type form struct {
	Name   string     `validate:"notblank"`
	Email  string     `validate:"required,email"`
	Role   types.Role `validate:"-"`
	Course string     `validate:"student_required"`
}

var formMessages = Messages{
	"Name":           "Name cannot be empty.",
	"Email.required": "Email cannot be empty.",
	"Email.email":    "Enter a valid email address.",
	"Course":         "Course is required.",
}

func TestStructReportsFirstFailure(t *testing.T) {
	err := Struct(form{Name: "  ", Email: ""}, formMessages)
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if verr.Field != "Name" || verr.Message != "Name cannot be empty." {
		t.Fatalf("unexpected failure: %+v", verr)
	}
}

func TestStructEmailFormat(t *testing.T) {
	err := Struct(form{Name: "Jane", Email: "not-an-email"}, formMessages)
	msg, ok := Message(err)
	if !ok || msg != "Enter a valid email address." {
		t.Fatalf("unexpected message %q (ok=%v)", msg, ok)
	}
}

func TestStudentRequiredDependsOnRole(t *testing.T) {
	valid := form{Name: "Jane", Email: "jane@example.com", Role: types.RoleAdmin}
	if err := Struct(valid, formMessages); err != nil {
		t.Fatalf("admin without course should pass: %v", err)
	}

	valid.Role = types.RoleStudent
	msg, ok := Message(Struct(valid, formMessages))
	if !ok || msg != "Course is required." {
		t.Fatalf("unexpected message %q", msg)
	}

	valid.Course = "Computer Science"
	if err := Struct(valid, formMessages); err != nil {
		t.Fatalf("student with course should pass: %v", err)
	}
}

func TestStructFallbackMessage(t *testing.T) {
	msg, _ := Message(Struct(form{Name: ""}, nil))
	if msg != "Name is invalid" {
		t.Fatalf("unexpected fallback: %q", msg)
	}
}
