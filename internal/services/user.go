package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/quicktech-sms/portal/internal/store"
	"github.com/quicktech-sms/portal/types"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does
	// not match an account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotStudent is returned for roster operations on a non-student.
	ErrNotStudent = errors.New("not a student")
)

// InputError is a request the service refuses before touching storage.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func invalid(message string) error { return &InputError{Message: message} }

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	ListByRole(ctx context.Context, role types.Role) ([]types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
	Delete(ctx context.Context, id string) error
}

// AvatarStore keeps uploaded profile pictures. *storage.Avatars satisfies it.
type AvatarStore interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

// Upload is an image received with a profile or student update.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Option configures the services.
type Option func(*options)

type options struct {
	hashCost int
	logger   *slog.Logger
}

// WithHashCost sets the bcrypt cost for new password hashes.
func WithHashCost(cost int) Option {
	return func(o *options) { o.hashCost = cost }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{hashCost: bcrypt.DefaultCost, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// UserService encapsulates account use-cases: registration, login,
// self-service profile edits and role changes.
type UserService struct {
	repo    UserRepository
	avatars AvatarStore
	options
}

func NewUserService(repo UserRepository, avatars AvatarStore, opts ...Option) *UserService {
	return &UserService{repo: repo, avatars: avatars, options: buildOptions(opts)}
}

// RegisterInput is a self-registration request. New accounts are always
// active students.
type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	Phone          string
	CourseOfStudy  string
	EnrollmentYear int
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return types.User{}, invalid("Email and password are required")
	}

	hash, err := hashPassword(in.Password, s.hashCost)
	if err != nil {
		return types.User{}, err
	}

	account, err := s.repo.Create(ctx, types.Account{
		User: types.User{
			FullName:       strings.TrimSpace(in.FullName),
			Email:          in.Email,
			Role:           types.RoleStudent,
			Phone:          strings.TrimSpace(in.Phone),
			CourseOfStudy:  strings.TrimSpace(in.CourseOfStudy),
			EnrollmentYear: in.EnrollmentYear,
			Status:         types.StatusActive,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return types.User{}, err
	}
	s.logger.Info("account registered", "id", account.ID, "email", account.Email)
	return account.User, nil
}

// Authenticate checks an email/password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return account.User, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	return account.User, nil
}

// ProfileInput is a self-service profile edit. Role and status are not
// editable here.
type ProfileInput struct {
	FullName       string
	Email          string
	Phone          string
	CourseOfStudy  string
	EnrollmentYear int
	Image          *Upload
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (types.User, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Email == "" {
		return types.User{}, invalid("Full name and email are required")
	}
	if account.IsStudent() && strings.TrimSpace(in.CourseOfStudy) == "" {
		return types.User{}, invalid("Course of study is required for students")
	}

	account.FullName = in.FullName
	account.Email = in.Email
	account.Phone = strings.TrimSpace(in.Phone)
	if account.IsStudent() {
		account.CourseOfStudy = strings.TrimSpace(in.CourseOfStudy)
		if in.EnrollmentYear != 0 {
			account.EnrollmentYear = in.EnrollmentYear
		}
	}

	previous, err := attachImage(ctx, s.avatars, &account.User, in.Image)
	if err != nil {
		return types.User{}, err
	}

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		discardImage(ctx, s.avatars, s.logger, account.ProfilePicture, previous)
		return types.User{}, err
	}
	dropImage(ctx, s.avatars, s.logger, previous, updated.ProfilePicture)
	return updated.User, nil
}

// ChangeRole moves a user to role. Only promoting a student to admin is
// allowed.
func (s *UserService) ChangeRole(ctx context.Context, id string, role types.Role) (types.User, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if !role.Valid() {
		return types.User{}, invalid("Invalid role")
	}
	if !types.CanTransition(account.Role, role) {
		return types.User{}, types.ErrInvalidTransition
	}
	if err := account.Promote(); err != nil {
		return types.User{}, err
	}

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return types.User{}, err
	}
	s.logger.Info("role changed", "id", id, "role", updated.Role)
	return updated.User, nil
}

// attachImage uploads img and points u at it, returning the picture it
// replaced.
func attachImage(ctx context.Context, avatars AvatarStore, u *types.User, img *Upload) (string, error) {
	previous := u.ProfilePicture
	if img == nil || len(img.Data) == 0 || avatars == nil {
		return previous, nil
	}
	url, err := avatars.Save(ctx, img.Filename, img.ContentType, img.Data)
	if err != nil {
		return "", err
	}
	u.ProfilePicture = url
	return previous, nil
}

// discardImage removes a freshly uploaded picture after the update that
// would have referenced it failed.
func discardImage(ctx context.Context, avatars AvatarStore, logger *slog.Logger, uploaded, previous string) {
	if avatars == nil || uploaded == previous {
		return
	}
	if err := avatars.Remove(ctx, uploaded); err != nil {
		logger.Warn("remove orphaned avatar", "url", uploaded, "error", err)
	}
}

// dropImage removes a picture that has just been replaced.
func dropImage(ctx context.Context, avatars AvatarStore, logger *slog.Logger, previous, current string) {
	if avatars == nil || previous == "" || previous == current {
		return
	}
	if err := avatars.Remove(ctx, previous); err != nil {
		logger.Warn("remove replaced avatar", "url", previous, "error", err)
	}
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
