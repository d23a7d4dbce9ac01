package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/quicktech-sms/portal/internal/services"
	"github.com/quicktech-sms/portal/types"
)

// UserHandler provides registration, self-service profile and role
// endpoints.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers /users routes. authMiddleware must populate the
// request user.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.Post("/register", handler.Register)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me/{userID}", handler.Me)
		r.Put("/me/{userID}", handler.UpdateMe)
		r.With(RequireAdmin).Put("/change-role/{userID}", handler.ChangeRole)
	})
}

type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"fullName"`
	Phone          string `json:"phone"`
	CourseOfStudy  string `json:"courseOfStudy"`
	EnrollmentYear int    `json:"enrollmentYear"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Phone:          req.Phone,
		CourseOfStudy:  req.CourseOfStudy,
		EnrollmentYear: req.EnrollmentYear,
	})
	if err != nil {
		writeServiceError(w, err, "User not found", "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{User: user})
}

// Me returns a profile. Users may read their own; admins may read any.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeProfile(w, r)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "User not found", "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// UpdateMe saves the caller's own profile from a multipart form.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeProfile(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	year, err := parseOptionalInt(r.FormValue("enrollmentYear"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid enrollment year")
		return
	}
	image, err := parseImage(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), id, services.ProfileInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Phone:          r.FormValue("phone"),
		CourseOfStudy:  r.FormValue("courseOfStudy"),
		EnrollmentYear: year,
		Image:          image,
	})
	if err != nil {
		writeServiceError(w, err, "User not found", "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

type ChangeRoleRequest struct {
	Role types.Role `json:"role"`
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.userService.ChangeRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		writeServiceError(w, err, "User not found", "Failed to change role")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

func (h *UserHandler) authorizeProfile(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return "", false
	}
	id := strings.TrimSpace(chi.URLParam(r, "userID"))
	if id != caller.ID && !caller.IsAdmin() {
		writeError(w, http.StatusForbidden, "Not allowed to access this profile")
		return "", false
	}
	return id, true
}
