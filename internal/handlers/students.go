package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quicktech-sms/portal/internal/services"
	"github.com/quicktech-sms/portal/types"
)

// StudentHandler provides the admin roster endpoints.
type StudentHandler struct {
	studentService *services.StudentService
}

func NewStudentHandler(studentService *services.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// StudentRouter registers /students routes, all admin-only.
func StudentRouter(r chi.Router, studentService *services.StudentService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewStudentHandler(studentService)

	r.Use(authMiddleware, RequireAdmin)
	r.Get("/", handler.ListStudents)
	r.Post("/", handler.CreateStudent)
	r.Route("/{studentID}", func(r chi.Router) {
		r.Get("/", handler.GetStudent)
		r.Put("/", handler.UpdateStudent)
		r.Patch("/", handler.PatchStudent)
		r.Delete("/", handler.DeleteStudent)
	})
}

func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.studentService.Get(r.Context(), chi.URLParam(r, "studentID"))
	if err != nil {
		writeServiceError(w, err, "Student not found", "Failed to load student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

type CreateStudentRequest struct {
	FullName       string       `json:"fullName"`
	Email          string       `json:"email"`
	Password       string       `json:"password"`
	Phone          string       `json:"phone"`
	Course         string       `json:"course"`
	EnrollmentYear int          `json:"enrollmentYear"`
	Status         types.Status `json:"status"`
}

func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	student, err := h.studentService.Create(r.Context(), services.CreateStudentInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		Course:         req.Course,
		EnrollmentYear: req.EnrollmentYear,
		Status:         req.Status,
	})
	if err != nil {
		writeServiceError(w, err, "Student not found", "Failed to add student")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
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

	student, err := h.studentService.Update(r.Context(), chi.URLParam(r, "studentID"), services.StudentInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Phone:          r.FormValue("phone"),
		Course:         r.FormValue("course"),
		EnrollmentYear: year,
		Status:         types.Status(r.FormValue("status")),
		Image:          image,
	})
	if err != nil {
		writeServiceError(w, err, "Student not found", "Failed to update student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

type PatchStudentRequest struct {
	Status *types.Status `json:"status"`
}

func (h *StudentHandler) PatchStudent(w http.ResponseWriter, r *http.Request) {
	var req PatchStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	student, err := h.studentService.Patch(r.Context(), chi.URLParam(r, "studentID"), services.StudentPatch{Status: req.Status})
	if err != nil {
		writeServiceError(w, err, "Student not found", "Failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.studentService.Delete(r.Context(), chi.URLParam(r, "studentID")); err != nil {
		writeServiceError(w, err, "Student not found", "Failed to delete student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
