package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quicktech-sms/portal/config"
	"github.com/quicktech-sms/portal/internal/services"
	"github.com/quicktech-sms/portal/types"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(context.Background(), config.AuthorityConfig{
		JWTSecret: "test-secret",
		PublicURL: "http://authority.test",
	}, WithServiceOptions(services.WithHashCost(bcrypt.MinCost)))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func serve(t *testing.T, srv *Server, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	srv.Handler().ServeHTTP(resp, req)
	return resp
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func message(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return body.Message
}

func login(t *testing.T, srv *Server, email, password string) (types.User, string) {
	t.Helper()
	resp := serve(t, srv, http.MethodPost, "/auth/login", "", jsonBody(t, map[string]string{"email": email, "password": password}), "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: status %d %s", email, resp.Code, resp.Body.String())
	}
	var out struct {
		User  types.User `json:"user"`
		Token string     `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out.User, out.Token
}

func TestRequiresSecret(t *testing.T) {
	if _, err := New(context.Background(), config.AuthorityConfig{}); err == nil {
		t.Fatalf("expected error without JWT secret")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	if resp := serve(t, srv, http.MethodGet, "/healthz", "", nil, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	user, token := login(t, srv, "admin@quicktech.com", "QuicktechAdmin2024!")
	if !user.IsAdmin() || token == "" {
		t.Fatalf("unexpected login result %+v %q", user, token)
	}

	resp := serve(t, srv, http.MethodPost, "/auth/login", "", jsonBody(t, map[string]string{"email": "admin@quicktech.com", "password": "nope"}), "application/json")
	if resp.Code != http.StatusUnauthorized || message(t, resp) != "Invalid email or password" {
		t.Fatalf("unexpected response %d %s", resp.Code, resp.Body.String())
	}
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)
	payload := map[string]any{"email": "new@student.edu", "password": "secret1", "fullName": "New Student", "enrollmentYear": 2025}

	resp := serve(t, srv, http.MethodPost, "/users/register", "", jsonBody(t, payload), "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		User types.User `json:"user"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.User.Role != types.RoleStudent || out.User.Status != types.StatusActive {
		t.Fatalf("unexpected user %+v", out.User)
	}

	resp = serve(t, srv, http.MethodPost, "/users/register", "", jsonBody(t, payload), "application/json")
	if resp.Code != http.StatusConflict || message(t, resp) != "Email already exists" {
		t.Fatalf("expected duplicate rejection, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestStudentsRequireAdmin(t *testing.T) {
	srv := newTestServer(t)

	if resp := serve(t, srv, http.MethodGet, "/students", "", nil, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	if resp := serve(t, srv, http.MethodGet, "/students", "garbage", nil, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}

	_, studentToken := login(t, srv, "belyse@student.edu", "BelysePassword123!")
	if resp := serve(t, srv, http.MethodGet, "/students", studentToken, nil, ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", resp.Code)
	}

	_, adminToken := login(t, srv, "admin@quicktech.com", "QuicktechAdmin2024!")
	resp := serve(t, srv, http.MethodGet, "/students", adminToken, nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}
	var students []types.Student
	if err := json.Unmarshal(resp.Body.Bytes(), &students); err != nil {
		t.Fatalf("decode students: %v", err)
	}
	if len(students) != 6 {
		t.Fatalf("expected 6 seeded students, got %d", len(students))
	}
	if students[0].CreatedAt == nil {
		t.Fatalf("students must carry createdAt")
	}
}

func TestStudentCRUD(t *testing.T) {
	srv := newTestServer(t)
	_, token := login(t, srv, "admin@quicktech.com", "QuicktechAdmin2024!")

	resp := serve(t, srv, http.MethodPost, "/students", token, jsonBody(t, map[string]any{
		"fullName": "Alice", "email": "alice@student.edu", "password": "pw", "course": "Mathematics",
	}), "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	var created types.Student
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	if created.ID == "" || created.Status != types.StatusActive {
		t.Fatalf("unexpected student %+v", created)
	}

	resp = serve(t, srv, http.MethodPost, "/students", token, jsonBody(t, map[string]any{"fullName": "NoPassword"}), "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = serve(t, srv, http.MethodPatch, "/students/"+created.ID, token, jsonBody(t, map[string]string{"status": "Graduated"}), "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", resp.Code, resp.Body.String())
	}
	resp = serve(t, srv, http.MethodPatch, "/students/"+created.ID, token, jsonBody(t, map[string]string{"status": "Expelled"}), "application/json")
	if resp.Code != http.StatusBadRequest || message(t, resp) != "Invalid status" {
		t.Fatalf("expected invalid status, got %d %s", resp.Code, resp.Body.String())
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("fullName", "Alice B.")
	_ = w.WriteField("email", "alice@student.edu")
	_ = w.WriteField("course", "Physics")
	part, _ := w.CreateFormFile("profilePicture", "alice.png")
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	_ = w.Close()
	resp = serve(t, srv, http.MethodPut, "/students/"+created.ID, token, body, w.FormDataContentType())
	if resp.Code != http.StatusOK {
		t.Fatalf("update: %d %s", resp.Code, resp.Body.String())
	}
	var updated types.Student
	_ = json.Unmarshal(resp.Body.Bytes(), &updated)
	if updated.Course != "Physics" || updated.Status != types.StatusGraduated {
		t.Fatalf("unexpected update %+v", updated)
	}
	if !strings.HasPrefix(updated.ProfilePicture, "http://authority.test/avatars/") {
		t.Fatalf("unexpected picture %q", updated.ProfilePicture)
	}
	avatarPath := strings.TrimPrefix(updated.ProfilePicture, "http://authority.test")
	if resp := serve(t, srv, http.MethodGet, avatarPath, "", nil, ""); resp.Code != http.StatusOK || resp.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("avatar not served: %d %q", resp.Code, resp.Header().Get("Content-Type"))
	}

	if resp := serve(t, srv, http.MethodDelete, "/students/"+created.ID, token, nil, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.Code)
	}
	if resp := serve(t, srv, http.MethodGet, "/students/"+created.ID, token, nil, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestProfileAccess(t *testing.T) {
	srv := newTestServer(t)
	belyse, token := login(t, srv, "belyse@student.edu", "BelysePassword123!")

	if resp := serve(t, srv, http.MethodGet, "/users/me/"+belyse.ID, token, nil, ""); resp.Code != http.StatusOK {
		t.Fatalf("own profile: %d", resp.Code)
	}
	if resp := serve(t, srv, http.MethodGet, "/users/me/1", token, nil, ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another profile, got %d", resp.Code)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("fullName", "Belyse I.")
	_ = w.WriteField("email", belyse.Email)
	_ = w.WriteField("courseOfStudy", "Data Science")
	_ = w.Close()
	resp := serve(t, srv, http.MethodPut, "/users/me/"+belyse.ID, token, body, w.FormDataContentType())
	if resp.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		User types.User `json:"user"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.User.FullName != "Belyse I." || out.User.CourseOfStudy != "Data Science" || out.User.Role != types.RoleStudent {
		t.Fatalf("unexpected profile %+v", out.User)
	}
}

func TestChangeRole(t *testing.T) {
	srv := newTestServer(t)
	_, studentToken := login(t, srv, "igor@student.edu", "IgorPassword456!")
	if resp := serve(t, srv, http.MethodPut, "/users/change-role/2", studentToken, jsonBody(t, map[string]string{"role": "admin"}), "application/json"); resp.Code != http.StatusForbidden {
		t.Fatalf("students may not change roles, got %d", resp.Code)
	}

	_, adminToken := login(t, srv, "admin@quicktech.com", "QuicktechAdmin2024!")
	resp := serve(t, srv, http.MethodPut, "/users/change-role/2", adminToken, jsonBody(t, map[string]string{"role": "admin"}), "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("promote: %d %s", resp.Code, resp.Body.String())
	}
	resp = serve(t, srv, http.MethodPut, "/users/change-role/1", adminToken, jsonBody(t, map[string]string{"role": "student"}), "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("demotion must be refused, got %d", resp.Code)
	}
}
