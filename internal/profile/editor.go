// Package profile edits one user's record: a draft of the editable fields,
// at most one locally picked replacement image and a save that only adopts
// what the API confirms.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/validate"
	"github.com/quicktech-sms/portal/types"
)

// ErrNoImage is returned by SetImage for an empty file.
var ErrNoImage = errors.New("no image data")

// Draft holds the editable fields. Role is carried only so the course rule
// can tell students from admins.
type Draft struct {
	FullName       string       `validate:"notblank"`
	Email          string       `validate:"notblank,email"`
	Phone          string       `validate:"-"`
	CourseOfStudy  string       `validate:"student_required"`
	EnrollmentYear int          `validate:"-"`
	Status         types.Status `validate:"-"`
	Role           types.Role   `validate:"-"`
}

var draftMessages = validate.Messages{
	"FullName":       "Full name cannot be empty.",
	"Email.notblank": "Email cannot be empty.",
	"Email.email":    "Enter a valid email address.",
	"CourseOfStudy":  "Course of study is required for students.",
}

// DraftFrom copies the editable fields of u.
func DraftFrom(u types.User) Draft {
	return Draft{
		FullName:       u.FullName,
		Email:          u.Email,
		Phone:          u.Phone,
		CourseOfStudy:  u.CourseOfStudy,
		EnrollmentYear: u.EnrollmentYear,
		Status:         u.Status,
		Role:           u.Role,
	}
}

// SaveFunc sends a validated draft and optional image for the user id and
// returns the record the API stored. When the API stored the record but a
// later step failed, it returns that record together with the error.
type SaveFunc func(ctx context.Context, id string, d Draft, image *api.Image) (types.User, error)

// Editor is the state of one profile form.
type Editor struct {
	save     SaveFunc
	previews PreviewStore
	logger   *slog.Logger

	mu      sync.Mutex
	subject types.User
	draft   Draft
	image   *api.Image
	preview string
	saving  bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithPreviewStore sets where image previews are kept.
func WithPreviewStore(p PreviewStore) Option {
	return func(e *Editor) { e.previews = p }
}

// WithLogger sets the editor logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// NewEditor opens subject for editing.
func NewEditor(subject types.User, save SaveFunc, opts ...Option) *Editor {
	e := &Editor{
		save:     save,
		previews: DataURLPreviews{},
		logger:   slog.New(slog.DiscardHandler),
		subject:  subject,
		draft:    DraftFrom(subject),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subject returns the last server-confirmed record.
func (e *Editor) Subject() types.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subject
}

// Draft returns the current draft.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft replaces the draft. The role always follows the subject.
func (e *Editor) SetDraft(d Draft) {
	e.mu.Lock()
	d.Role = e.subject.Role
	e.draft = d
	e.mu.Unlock()
}

// Saving reports whether a save is in flight.
func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Validate checks the draft and returns the first failure as a
// *validate.Error.
func (e *Editor) Validate() error {
	return validate.Struct(e.Draft(), draftMessages)
}

// SetImage picks a replacement image and makes a preview of it. A previous
// pending preview is released.
func (e *Editor) SetImage(name string, data []byte) error {
	if len(data) == 0 {
		return ErrNoImage
	}
	ref, err := e.previews.Create(name, data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	old := e.preview
	e.image = &api.Image{Filename: name, ContentType: imageContentType(name, data), Data: data}
	e.preview = ref
	e.mu.Unlock()

	e.release(old)
	return nil
}

// PendingImage reports whether a picked image awaits upload.
func (e *Editor) PendingImage() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.image != nil
}

// DisplayImage is the preview while an image is pending, otherwise the
// subject's stored picture.
func (e *Editor) DisplayImage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preview != "" {
		return e.preview
	}
	return e.subject.ProfilePicture
}

// Save validates the draft and sends it. On success the editor adopts the
// returned record and drops the uploaded preview. On failure nothing
// changes, so the user can retry. If the API stored the record but a later
// step failed, the record is adopted and the error is still returned.
func (e *Editor) Save(ctx context.Context) (types.User, error) {
	e.mu.Lock()
	draft, image, preview, id := e.draft, e.image, e.preview, e.subject.ID
	e.mu.Unlock()

	if err := validate.Struct(draft, draftMessages); err != nil {
		return types.User{}, err
	}

	e.mu.Lock()
	e.saving = true
	e.mu.Unlock()

	user, err := e.save(ctx, id, draft, image)

	e.mu.Lock()
	e.saving = false
	if err != nil && user.ID == "" {
		e.mu.Unlock()
		e.logger.Info("profile save failed", "id", id, "error", err)
		return types.User{}, err
	}
	e.subject = user
	e.draft = DraftFrom(user)
	released := ""
	if e.preview == preview {
		released = e.preview
		e.image = nil
		e.preview = ""
	}
	e.mu.Unlock()

	e.release(released)
	if err != nil {
		e.logger.Warn("profile saved with errors", "id", id, "error", err)
	}
	return user, err
}

// Discard resets the draft to the subject and drops any pending image.
func (e *Editor) Discard() {
	e.mu.Lock()
	old := e.preview
	e.draft = DraftFrom(e.subject)
	e.image = nil
	e.preview = ""
	e.mu.Unlock()

	e.release(old)
}

func (e *Editor) release(ref string) {
	if ref == "" {
		return
	}
	if err := e.previews.Release(ref); err != nil {
		e.logger.Warn("release preview", "error", err)
	}
}
