package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/quicktech-sms/portal/types"
)

// ProfileForm is the multipart body of PUT /users/me/{id}.
type ProfileForm struct {
	FullName       string
	Email          string
	Phone          string
	CourseOfStudy  string
	EnrollmentYear int
	Image          *Image
}

func (f ProfileForm) fields() []formField {
	fields := []formField{
		{name: "fullName", value: f.FullName},
		{name: "email", value: f.Email},
		{name: "phone", value: f.Phone},
		{name: "courseOfStudy", value: f.CourseOfStudy},
	}
	return append(fields, yearField("enrollmentYear", f.EnrollmentYear)...)
}

// Me fetches the signed-in user's record.
func (c *Client) Me(ctx context.Context, id string) (types.User, error) {
	cl := call{
		method:   http.MethodGet,
		path:     "/users/me/" + url.PathEscape(id),
		auth:     true,
		fallback: "Failed to load profile.",
	}
	var resp userEnvelope
	if err := c.do(ctx, cl, &resp); err != nil {
		return types.User{}, err
	}
	return resp.User, nil
}

// UpdateMe saves the signed-in user's profile, optionally replacing the image.
func (c *Client) UpdateMe(ctx context.Context, id string, form ProfileForm) (types.User, error) {
	body, contentType, err := buildMultipart(form.fields(), form.Image)
	if err != nil {
		return types.User{}, &Error{Message: "Failed to update profile.", Err: err}
	}
	cl := call{
		method:      http.MethodPut,
		path:        "/users/me/" + url.PathEscape(id),
		body:        body,
		contentType: contentType,
		auth:        true,
		fallback:    "Failed to update profile.",
	}
	var resp userEnvelope
	if err := c.do(ctx, cl, &resp); err != nil {
		return types.User{}, err
	}
	return resp.User, nil
}

// ChangeRoleRequest is the body of PUT /users/change-role/{id}.
type ChangeRoleRequest struct {
	Role types.Role `json:"role"`
}

// ChangeRole asks the API to move a user to role. The API enforces that only
// admins may call it.
func (c *Client) ChangeRole(ctx context.Context, id string, role types.Role) (types.User, error) {
	cl, err := jsonCall(http.MethodPut, "/users/change-role/"+url.PathEscape(id), ChangeRoleRequest{Role: role}, true, "Failed to change role.")
	if err != nil {
		return types.User{}, err
	}
	var resp userEnvelope
	if err := c.do(ctx, cl, &resp); err != nil {
		return types.User{}, err
	}
	return resp.User, nil
}
