/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/quicktech-sms/portal/internal/guard"
	"github.com/quicktech-sms/portal/internal/roster"
	"github.com/quicktech-sms/portal/types"
	"github.com/spf13/cobra"
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the landing summary for the signed-in user",
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		user, err := a.enter("")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Welcome back, %s\n\n", displayName(user))

		if !user.IsAdmin() {
			printProfile(out, user)
			return nil
		}

		r := roster.New(a.client, roster.WithLogger(a.logger))
		defer r.Close()
		if err := r.Load(cmd.Context()); err != nil {
			return err
		}
		printStats(out, r.Stats())
		return nil
	}),
}

// menuCmd represents the menu command
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "List the screens available to the signed-in user",
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		user, err := a.enter("")
		if err != nil {
			return err
		}
		for _, item := range guard.Menu(user.Role) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", item.Label, routeCommands[item.Route])
		}
		return nil
	}),
}

func displayName(u types.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printProfile(w io.Writer, u types.User) {
	fmt.Fprintf(w, "Name:     %s\n", orDash(u.FullName))
	fmt.Fprintf(w, "Email:    %s\n", u.Email)
	fmt.Fprintf(w, "Role:     %s\n", u.Role)
	fmt.Fprintf(w, "Phone:    %s\n", orDash(u.Phone))
	if u.IsStudent() {
		fmt.Fprintf(w, "Course:   %s\n", orDash(u.CourseOfStudy))
		if u.EnrollmentYear != 0 {
			fmt.Fprintf(w, "Enrolled: %d\n", u.EnrollmentYear)
		}
		fmt.Fprintf(w, "Status:   %s\n", orDash(string(u.Status)))
	}
	fmt.Fprintf(w, "Picture:  %s\n", orDash(u.ProfilePicture))
}

func printStats(w io.Writer, s roster.Stats) {
	fmt.Fprintf(w, "Students:  %d\n", s.Total)
	fmt.Fprintf(w, "Active:    %d\n", s.Active)
	fmt.Fprintf(w, "Graduated: %d\n", s.Graduated)
	fmt.Fprintf(w, "Dropped:   %d\n", s.Dropped)
	fmt.Fprintf(w, "Courses:   %d\n", s.Courses)
}

func init() {
	rootCmd.AddCommand(dashboardCmd, menuCmd)
}
