package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/quicktech-sms/portal/internal/store"
	"github.com/quicktech-sms/portal/types"
)

// SeedAccount is an account created when the authority starts empty.
type SeedAccount struct {
	User     types.User
	Password string
}

// RosterSeedPassword is the password of the seeded roster students.
const RosterSeedPassword = "StudentPassword2024!"

// DefaultSeed is the demo population: one admin, two students with known
// credentials and a handful of roster students.
var DefaultSeed = []SeedAccount{
	{
		User:     types.User{FullName: "Quicktech Admin", Email: "admin@quicktech.com", Phone: "+250 788 123 456", Role: types.RoleAdmin},
		Password: "QuicktechAdmin2024!",
	},
	{
		User: types.User{FullName: "Ingabire Belyse", Email: "belyse@student.edu", Phone: "+250 788 234 567", Role: types.RoleStudent,
			CourseOfStudy: "Computer Science", EnrollmentYear: 2023, Status: types.StatusActive},
		Password: "BelysePassword123!",
	},
	{
		User: types.User{FullName: "Mpore Igor", Email: "igor@student.edu", Phone: "+250 788 345 678", Role: types.RoleStudent,
			CourseOfStudy: "Software Engineering", EnrollmentYear: 2022, Status: types.StatusActive},
		Password: "IgorPassword456!",
	},
	{
		User: types.User{FullName: "John Doe", Email: "john.doe@student.edu", Phone: "+250 734567891", Role: types.RoleStudent,
			CourseOfStudy: "Computer Science", EnrollmentYear: 2023, Status: types.StatusActive},
		Password: RosterSeedPassword,
	},
	{
		User: types.User{FullName: "Jane Smith", Email: "jane.smith@student.edu", Phone: "+250 734567891", Role: types.RoleStudent,
			CourseOfStudy: "Software Engineering", EnrollmentYear: 2022, Status: types.StatusActive},
		Password: RosterSeedPassword,
	},
	{
		User: types.User{FullName: "Mike Johnson", Email: "mike.johnson@student.edu", Phone: "+250 734567891", Role: types.RoleStudent,
			CourseOfStudy: "Data Science", EnrollmentYear: 2021, Status: types.StatusGraduated},
		Password: RosterSeedPassword,
	},
	{
		User: types.User{FullName: "Sarah Wilson", Email: "sarah.wilson@student.edu", Phone: "+250 734567891", Role: types.RoleStudent,
			CourseOfStudy: "Computer Science", EnrollmentYear: 2024, Status: types.StatusActive},
		Password: RosterSeedPassword,
	},
}

// Seed creates accounts that do not exist yet. Existing emails are left
// alone.
func (s *UserService) Seed(ctx context.Context, accounts []SeedAccount) error {
	for _, seed := range accounts {
		hash, err := hashPassword(seed.Password, s.hashCost)
		if err != nil {
			return err
		}
		_, err = s.repo.Create(ctx, types.Account{User: seed.User, PasswordHash: hash})
		if errors.Is(err, store.ErrEmailTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", seed.User.Email, err)
		}
	}
	return nil
}
