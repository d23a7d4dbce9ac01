package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/quicktech-sms/portal/internal/services"
	"github.com/quicktech-sms/portal/internal/store"
	"github.com/quicktech-sms/portal/types"
)

const (
	maxJSONBytes       = 1 << 20
	maxMultipartMemory = 8 << 20
	maxImageBytes      = 5 << 20
	formFieldImage     = "profilePicture"
)

type contextKey string

const contextUserKey contextKey = "user"

// ErrorResponse is the error payload the portal client reads.
type ErrorResponse struct {
	Message string `json:"message"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User types.User `json:"user"`
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok || user.ID == "" {
		return types.User{}, errors.New("missing user")
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError maps service and store errors onto status codes.
// notFound names the missing thing; fallback is used for anything
// unexpected.
func writeServiceError(w http.ResponseWriter, err error, notFound, fallback string) {
	var inputErr *services.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrNotStudent):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, types.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "Only students can be promoted to admin")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.New("Invalid request body")
	}
	return nil
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// parseImage returns the optional image of a multipart form.
func parseImage(form *multipart.Form) (*services.Upload, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("Only one image is allowed")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, errors.New("Failed to read image")
	}
	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.New("Profile picture must be an image")
	}
	return &services.Upload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("Failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("Uploaded file too large")
	}
	return data, nil
}
