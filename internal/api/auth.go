package api

import (
	"context"
	"net/http"

	"github.com/quicktech-sms/portal/types"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is a successful login: the user and its bearer token.
type AuthResponse struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

// RegisterRequest is the body of POST /users/register. Only email and
// password are required by the API; the rest seed the new profile.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"fullName,omitempty"`
	Phone          string `json:"phone,omitempty"`
	CourseOfStudy  string `json:"courseOfStudy,omitempty"`
	EnrollmentYear int    `json:"enrollmentYear,omitempty"`
}

type userEnvelope struct {
	User types.User `json:"user"`
}

// Login exchanges credentials for a user and bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	cl, err := jsonCall(http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, false, "Login failed. Please try again.")
	if err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := c.do(ctx, cl, &resp); err != nil {
		return AuthResponse{}, err
	}
	if resp.Token == "" || resp.User.ID == "" {
		return AuthResponse{}, &Error{StatusCode: http.StatusOK, Message: "Login failed. Please try again."}
	}
	return resp, nil
}

// Register creates a student account. It does not return a token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (types.User, error) {
	cl, err := jsonCall(http.MethodPost, "/users/register", req, false, "Registration failed. Please try again.")
	if err != nil {
		return types.User{}, err
	}

	var resp userEnvelope
	if err := c.do(ctx, cl, &resp); err != nil {
		return types.User{}, err
	}
	return resp.User, nil
}
