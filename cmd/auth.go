/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/quicktech-sms/portal/internal/guard"
	"github.com/quicktech-sms/portal/internal/session"
	"github.com/spf13/cobra"
)

var loginFlags struct {
	email    string
	password string
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the portal",
	Long: `Sign in and remember the session for later commands. Usage:

	portal login --email belyse@student.edu

The password is prompted for when --password is not given.
`,
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		a.session.Initialize()

		password := loginFlags.password
		if password == "" {
			var err error
			if password, err = readSecret("Password"); err != nil {
				return err
			}
		}

		st, err := a.session.Login(cmd.Context(), loginFlags.email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", displayName(*st.User), st.User.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", routeCommands[guard.LandingFor(st.User.Role)])
		return nil
	}),
}

var registerFlags struct {
	email          string
	password       string
	fullName       string
	phone          string
	course         string
	enrollmentYear int
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a student account and sign in",
	Long: `Create a student account. Usage:

	portal register --email new@student.edu --name "New Student" --course "Computer Science"
`,
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		a.session.Initialize()

		password, confirm := registerFlags.password, registerFlags.password
		if password == "" {
			var err error
			if password, err = readSecret("Password"); err != nil {
				return err
			}
			if confirm, err = readSecret("Confirm password"); err != nil {
				return err
			}
		}

		st, err := a.session.Register(cmd.Context(), session.RegisterInput{
			Email:           registerFlags.email,
			Password:        password,
			ConfirmPassword: confirm,
			FullName:        registerFlags.fullName,
			Phone:           registerFlags.phone,
			CourseOfStudy:   registerFlags.course,
			EnrollmentYear:  registerFlags.enrollmentYear,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. Your account is ready.\n", displayName(*st.User))
		return nil
	}),
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		a.session.Initialize()
		a.session.Logout()
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	}),
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		user, err := a.enter("")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", displayName(user), user.Email, user.Role)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVarP(&loginFlags.email, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginFlags.password, "password", "p", "", "account password")

	registerCmd.Flags().StringVarP(&registerFlags.email, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&registerFlags.password, "password", "p", "", "account password, at least 6 characters")
	registerCmd.Flags().StringVar(&registerFlags.fullName, "name", "", "full name")
	registerCmd.Flags().StringVar(&registerFlags.phone, "phone", "", "phone number")
	registerCmd.Flags().StringVar(&registerFlags.course, "course", "", "course of study")
	registerCmd.Flags().IntVar(&registerFlags.enrollmentYear, "year", 0, "enrollment year")
}
