package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/quicktech-sms/portal/types"
)

// CreateStudentRequest is the JSON body of POST /students.
type CreateStudentRequest struct {
	FullName       string       `json:"fullName"`
	Email          string       `json:"email"`
	Password       string       `json:"password"`
	Phone          string       `json:"phone,omitempty"`
	Course         string       `json:"course"`
	EnrollmentYear int          `json:"enrollmentYear,omitempty"`
	Status         types.Status `json:"status,omitempty"`
}

// StudentForm is the multipart body of PUT /students/{id}.
type StudentForm struct {
	FullName       string
	Email          string
	Phone          string
	Course         string
	EnrollmentYear int
	Status         types.Status
	Image          *Image
}

func (f StudentForm) fields() []formField {
	fields := []formField{
		{name: "fullName", value: f.FullName},
		{name: "email", value: f.Email},
		{name: "phone", value: f.Phone},
		{name: "course", value: f.Course},
		{name: "status", value: string(f.Status)},
	}
	return append(fields, yearField("enrollmentYear", f.EnrollmentYear)...)
}

// StudentPatch is the JSON body of PATCH /students/{id}. Nil fields are
// left untouched by the API.
type StudentPatch struct {
	Status *types.Status `json:"status,omitempty"`
}

// ListStudents fetches the full roster.
func (c *Client) ListStudents(ctx context.Context) ([]types.Student, error) {
	cl := call{method: http.MethodGet, path: "/students", auth: true, fallback: "Failed to fetch students"}

	var raw json.RawMessage
	if err := c.do(ctx, cl, &raw); err != nil {
		return nil, err
	}
	var students []types.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &Error{StatusCode: http.StatusOK, Message: "API response is not an array as expected.", Err: err}
		}
		return nil, &Error{StatusCode: http.StatusOK, Message: "Failed to fetch students", Err: err}
	}
	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

// GetStudent fetches one roster entry.
func (c *Client) GetStudent(ctx context.Context, id string) (types.Student, error) {
	cl := call{method: http.MethodGet, path: "/students/" + url.PathEscape(id), auth: true, fallback: "Student not found"}
	var student types.Student
	if err := c.do(ctx, cl, &student); err != nil {
		return types.Student{}, err
	}
	return student, nil
}

// CreateStudent adds a student account; the API assigns the id.
func (c *Client) CreateStudent(ctx context.Context, req CreateStudentRequest) (types.Student, error) {
	cl, err := jsonCall(http.MethodPost, "/students", req, true, "Failed to add student")
	if err != nil {
		return types.Student{}, err
	}
	var student types.Student
	if err := c.do(ctx, cl, &student); err != nil {
		return types.Student{}, err
	}
	return student, nil
}

// UpdateStudent replaces a student's editable fields, optionally with a new image.
func (c *Client) UpdateStudent(ctx context.Context, id string, form StudentForm) (types.Student, error) {
	body, contentType, err := buildMultipart(form.fields(), form.Image)
	if err != nil {
		return types.Student{}, &Error{Message: "Failed to update student.", Err: err}
	}
	cl := call{
		method:      http.MethodPut,
		path:        "/students/" + url.PathEscape(id),
		body:        body,
		contentType: contentType,
		auth:        true,
		fallback:    "Failed to update student.",
	}
	var student types.Student
	if err := c.do(ctx, cl, &student); err != nil {
		return types.Student{}, err
	}
	return student, nil
}

// PatchStudent applies a partial update such as a status change.
func (c *Client) PatchStudent(ctx context.Context, id string, patch StudentPatch) (types.Student, error) {
	cl, err := jsonCall(http.MethodPatch, "/students/"+url.PathEscape(id), patch, true, "Failed to update status.")
	if err != nil {
		return types.Student{}, err
	}
	var student types.Student
	if err := c.do(ctx, cl, &student); err != nil {
		return types.Student{}, err
	}
	return student, nil
}

// DeleteStudent removes a student account.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	cl := call{method: http.MethodDelete, path: "/students/" + url.PathEscape(id), auth: true, fallback: "Failed to delete student."}
	return c.do(ctx, cl, nil)
}
