package services

import (
	"context"
	"strings"

	"github.com/quicktech-sms/portal/types"
)

// StudentService encapsulates roster use-cases for administrators. Students
// are accounts holding the student role.
type StudentService struct {
	repo    UserRepository
	avatars AvatarStore
	options
}

func NewStudentService(repo UserRepository, avatars AvatarStore, opts ...Option) *StudentService {
	return &StudentService{repo: repo, avatars: avatars, options: buildOptions(opts)}
}

func (s *StudentService) List(ctx context.Context) ([]types.Student, error) {
	accounts, err := s.repo.ListByRole(ctx, types.RoleStudent)
	if err != nil {
		return nil, err
	}
	students := make([]types.Student, 0, len(accounts))
	for _, account := range accounts {
		students = append(students, account.Student())
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id string) (types.Student, error) {
	account, err := s.student(ctx, id)
	if err != nil {
		return types.Student{}, err
	}
	return account.Student(), nil
}

// CreateStudentInput is an admin-created student account.
type CreateStudentInput struct {
	FullName       string
	Email          string
	Password       string
	Phone          string
	Course         string
	EnrollmentYear int
	Status         types.Status
}

func (s *StudentService) Create(ctx context.Context, in CreateStudentInput) (types.Student, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Course = strings.TrimSpace(in.Course)
	if in.FullName == "" || in.Email == "" || in.Course == "" || in.Password == "" {
		return types.Student{}, invalid("Please provide all required fields")
	}
	if in.Status == "" {
		in.Status = types.StatusActive
	}
	if !in.Status.Valid() {
		return types.Student{}, invalid("Invalid status")
	}

	hash, err := hashPassword(in.Password, s.hashCost)
	if err != nil {
		return types.Student{}, err
	}
	account, err := s.repo.Create(ctx, types.Account{
		User: types.User{
			FullName:       in.FullName,
			Email:          in.Email,
			Role:           types.RoleStudent,
			Phone:          strings.TrimSpace(in.Phone),
			CourseOfStudy:  in.Course,
			EnrollmentYear: in.EnrollmentYear,
			Status:         in.Status,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return types.Student{}, err
	}
	s.logger.Info("student created", "id", account.ID, "email", account.Email)
	return account.Student(), nil
}

// StudentInput is a full edit of one student from the detail screen.
type StudentInput struct {
	FullName       string
	Email          string
	Phone          string
	Course         string
	EnrollmentYear int
	Status         types.Status
	Image          *Upload
}

func (s *StudentService) Update(ctx context.Context, id string, in StudentInput) (types.Student, error) {
	account, err := s.student(ctx, id)
	if err != nil {
		return types.Student{}, err
	}

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Course = strings.TrimSpace(in.Course)
	if in.FullName == "" || in.Email == "" || in.Course == "" {
		return types.Student{}, invalid("Please provide all required fields")
	}
	if in.Status != "" && !in.Status.Valid() {
		return types.Student{}, invalid("Invalid status")
	}

	account.FullName = in.FullName
	account.Email = in.Email
	account.Phone = strings.TrimSpace(in.Phone)
	account.CourseOfStudy = in.Course
	if in.EnrollmentYear != 0 {
		account.EnrollmentYear = in.EnrollmentYear
	}
	if in.Status != "" {
		account.Status = in.Status
	}

	previous, err := attachImage(ctx, s.avatars, &account.User, in.Image)
	if err != nil {
		return types.Student{}, err
	}
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		discardImage(ctx, s.avatars, s.logger, account.ProfilePicture, previous)
		return types.Student{}, err
	}
	dropImage(ctx, s.avatars, s.logger, previous, updated.ProfilePicture)
	return updated.Student(), nil
}

// StudentPatch is a partial edit. Nil fields are left untouched.
type StudentPatch struct {
	Status *types.Status
}

func (s *StudentService) Patch(ctx context.Context, id string, patch StudentPatch) (types.Student, error) {
	account, err := s.student(ctx, id)
	if err != nil {
		return types.Student{}, err
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return types.Student{}, invalid("Invalid status")
		}
		account.Status = *patch.Status
	}
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return types.Student{}, err
	}
	return updated.Student(), nil
}

func (s *StudentService) Delete(ctx context.Context, id string) error {
	account, err := s.student(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	dropImage(ctx, s.avatars, s.logger, account.ProfilePicture, "")
	s.logger.Info("student deleted", "id", id)
	return nil
}

func (s *StudentService) student(ctx context.Context, id string) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Account{}, err
	}
	if !account.IsStudent() {
		return types.Account{}, ErrNotStudent
	}
	return account, nil
}
