// Package roster is an admin's working copy of the student list. Deletes
// and status changes are applied locally before the API confirms them and
// rolled back to the exact prior list if it refuses.
package roster

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/optimistic"
	"github.com/quicktech-sms/portal/internal/validate"
	"github.com/quicktech-sms/portal/types"
)

var (
	// ErrUnknownStudent is returned for an id that is not in the cache.
	ErrUnknownStudent = errors.New("student not found")
	// ErrClosed is returned by operations on a closed reconciler.
	ErrClosed = errors.New("roster closed")
)

// Service is the roster side of the API. *api.Client satisfies it.
type Service interface {
	ListStudents(ctx context.Context) ([]types.Student, error)
	CreateStudent(ctx context.Context, req api.CreateStudentRequest) (types.Student, error)
	UpdateStudent(ctx context.Context, id string, form api.StudentForm) (types.Student, error)
	PatchStudent(ctx context.Context, id string, patch api.StudentPatch) (types.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	ChangeRole(ctx context.Context, id string, role types.Role) (types.User, error)
}

// NewStudent is the add-student form.
type NewStudent struct {
	FullName       string       `validate:"notblank"`
	Email          string       `validate:"notblank"`
	Course         string       `validate:"notblank"`
	Password       string       `validate:"notblank"`
	Phone          string       `validate:"-"`
	EnrollmentYear int          `validate:"-"`
	Status         types.Status `validate:"-"`
}

var newStudentMessages = validate.Messages{
	"FullName": "Please fill in all required fields, including password",
	"Email":    "Please fill in all required fields, including password",
	"Course":   "Please fill in all required fields, including password",
	"Password": "Please fill in all required fields, including password",
}

type studentEdit struct {
	FullName string `validate:"notblank"`
	Email    string `validate:"notblank"`
	Course   string `validate:"notblank"`
}

var studentEditMessages = validate.Messages{
	"FullName": "Please fill in all required fields",
	"Email":    "Please fill in all required fields",
	"Course":   "Please fill in all required fields",
}

// Reconciler caches the roster for one admin screen.
type Reconciler struct {
	svc    Service
	logger *slog.Logger
	now    func() time.Time

	students *optimistic.Cell[[]types.Student]

	// mutating serializes mutations so each one snapshots a list that no
	// other in-flight mutation has touched.
	mutating sync.Mutex

	mu      sync.Mutex
	loading bool
	err     error
	closed  bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithClock overrides the clock used for the default enrollment year.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New returns an empty reconciler over svc.
func New(svc Service, opts ...Option) *Reconciler {
	r := &Reconciler{
		svc:      svc,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		students: optimistic.NewCell([]types.Student{}, cloneStudents),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cloneStudents(in []types.Student) []types.Student {
	out := make([]types.Student, len(in))
	copy(out, in)
	return out
}

// Load fetches the full roster. On failure the list is left empty and the
// error is kept for display.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.loading = true
	r.err = nil
	r.mu.Unlock()

	students, err := r.svc.ListStudents(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.loading = false
	if err != nil {
		r.err = err
		r.students.Set([]types.Student{})
		r.logger.Warn("load roster", "error", err)
		return err
	}
	r.students.Set(newestFirst(students))
	return nil
}

// newestFirst orders by creation time when every record has one; otherwise
// the fetch order is kept.
func newestFirst(students []types.Student) []types.Student {
	out := cloneStudents(students)
	for _, s := range out {
		if s.CreatedAt == nil {
			return out
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(*out[j].CreatedAt)
	})
	return out
}

// Students returns a copy of the cached list, including any optimistic
// change still in flight.
func (r *Reconciler) Students() []types.Student {
	return r.students.Get()
}

// Loading reports whether a fetch is in flight.
func (r *Reconciler) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err returns the last load failure, if any.
func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Filtered applies c to the cached list.
func (r *Reconciler) Filtered(c Criteria) []types.Student {
	return Filter(r.students.Get(), c)
}

// Stats summarizes the cached list.
func (r *Reconciler) Stats() Stats {
	return Summarize(r.students.Get())
}

// Courses lists the distinct courses in the cached list.
func (r *Reconciler) Courses() []string {
	return DistinctCourses(r.students.Get())
}

// Get returns the cached record for id.
func (r *Reconciler) Get(id string) (types.Student, bool) {
	students := r.students.Get()
	i := indexOf(students, id)
	if i < 0 {
		return types.Student{}, false
	}
	return students[i], true
}

// Add creates a student and prepends the server's record. Nothing is
// inserted before the API answers since the id is server-assigned.
func (r *Reconciler) Add(ctx context.Context, in NewStudent) (types.Student, error) {
	if err := validate.Struct(in, newStudentMessages); err != nil {
		return types.Student{}, err
	}
	if in.Status == "" {
		in.Status = types.StatusActive
	}
	if in.EnrollmentYear == 0 {
		in.EnrollmentYear = r.now().Year()
	}

	r.mutating.Lock()
	defer r.mutating.Unlock()
	if r.isClosed() {
		return types.Student{}, ErrClosed
	}

	created, err := r.svc.CreateStudent(ctx, api.CreateStudentRequest{
		FullName:       in.FullName,
		Email:          in.Email,
		Password:       in.Password,
		Phone:          in.Phone,
		Course:         in.Course,
		EnrollmentYear: in.EnrollmentYear,
		Status:         in.Status,
	})
	if err != nil {
		r.logger.Info("add student rejected", "email", in.Email, "error", err)
		return types.Student{}, err
	}
	if r.isClosed() {
		return created, nil
	}

	r.students.Update(func(list []types.Student) []types.Student {
		return append([]types.Student{created}, list...)
	})
	return created, nil
}

// Remove deletes id optimistically. If the API refuses, the list is
// restored exactly as it was.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	r.mutating.Lock()
	defer r.mutating.Unlock()
	if r.isClosed() {
		return ErrClosed
	}
	if _, ok := r.Get(id); !ok {
		return ErrUnknownStudent
	}

	err := optimistic.Apply(ctx, r.students,
		func(list []types.Student) []types.Student {
			return slices.DeleteFunc(list, func(s types.Student) bool { return s.ID == id })
		},
		func(ctx context.Context) error { return r.svc.DeleteStudent(ctx, id) },
	)
	if err != nil {
		r.logger.Info("delete student rolled back", "id", id, "error", err)
	}
	return err
}

// SetStatus changes one student's status optimistically, with the same
// rollback as Remove.
func (r *Reconciler) SetStatus(ctx context.Context, id string, status types.Status) error {
	if !status.Valid() {
		return &validate.Error{Field: "Status", Message: "Invalid status"}
	}

	r.mutating.Lock()
	defer r.mutating.Unlock()
	if r.isClosed() {
		return ErrClosed
	}
	if _, ok := r.Get(id); !ok {
		return ErrUnknownStudent
	}

	err := optimistic.Apply(ctx, r.students,
		func(list []types.Student) []types.Student {
			if i := indexOf(list, id); i >= 0 {
				list[i].Status = status
			}
			return list
		},
		func(ctx context.Context) error {
			_, err := r.svc.PatchStudent(ctx, id, api.StudentPatch{Status: &status})
			return err
		},
	)
	if err != nil {
		r.logger.Info("status change rolled back", "id", id, "status", status, "error", err)
	}
	return err
}

// Update saves an admin's edit of one student and replaces the cached
// record with the server's copy.
func (r *Reconciler) Update(ctx context.Context, id string, form api.StudentForm) (types.Student, error) {
	if err := validate.Struct(studentEdit{FullName: form.FullName, Email: form.Email, Course: form.Course}, studentEditMessages); err != nil {
		return types.Student{}, err
	}

	r.mutating.Lock()
	defer r.mutating.Unlock()
	if r.isClosed() {
		return types.Student{}, ErrClosed
	}

	updated, err := r.svc.UpdateStudent(ctx, id, form)
	if err != nil {
		return types.Student{}, err
	}
	if r.isClosed() {
		return updated, nil
	}
	r.students.Update(func(list []types.Student) []types.Student {
		if i := indexOf(list, id); i >= 0 {
			list[i] = updated
		}
		return list
	})
	return updated, nil
}

// Promote makes a student an admin. On success the record leaves the
// roster, which only lists students.
func (r *Reconciler) Promote(ctx context.Context, id string) (types.User, error) {
	r.mutating.Lock()
	defer r.mutating.Unlock()
	if r.isClosed() {
		return types.User{}, ErrClosed
	}

	user, err := r.svc.ChangeRole(ctx, id, types.RoleAdmin)
	if err != nil {
		return types.User{}, err
	}
	if r.isClosed() {
		return user, nil
	}
	r.students.Update(func(list []types.Student) []types.Student {
		return slices.DeleteFunc(list, func(s types.Student) bool { return s.ID == id })
	})
	return user, nil
}

// Close disposes the reconciler. Responses that arrive afterwards are not
// applied to the cache.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Reconciler) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func indexOf(students []types.Student, id string) int {
	return slices.IndexFunc(students, func(s types.Student) bool { return s.ID == id })
}
