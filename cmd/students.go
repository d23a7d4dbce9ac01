/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/quicktech-sms/portal/internal/profile"
	"github.com/quicktech-sms/portal/internal/roster"
	"github.com/quicktech-sms/portal/types"
	"github.com/spf13/cobra"
)

// studentsCmd represents the students command
var studentsCmd = &cobra.Command{
	Use:     "students",
	Aliases: []string{"roster"},
	Short:   "Manage the student roster (admins only)",
}

// adminRoster enters the admin-only roster screen and loads the list.
func adminRoster(cmd *cobra.Command, a *app) (*roster.Reconciler, error) {
	if _, err := a.enter(types.RoleAdmin); err != nil {
		return nil, err
	}
	r := roster.New(a.client, roster.WithLogger(a.logger))
	if err := r.Load(cmd.Context()); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func printStudents(w io.Writer, students []types.Student) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCOURSE\tYEAR\tSTATUS")
	for _, s := range students {
		year := "-"
		if s.EnrollmentYear != 0 {
			year = strconv.Itoa(s.EnrollmentYear)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.FullName, s.Email, orDash(s.Course), year, s.Status)
	}
	tw.Flush()
}

var listFlags struct {
	search string
	course string
	status string
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students, optionally filtered",
	Long: `List the roster. Filters combine. Usage:

	portal students list --search john --course "Computer Science" --status Active
`,
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		matches := r.Filtered(roster.Criteria{
			Search: listFlags.search,
			Course: listFlags.course,
			Status: types.Status(listFlags.status),
		})
		if len(matches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No students match")
			return nil
		}
		printStudents(cmd.OutOrStdout(), matches)
		return nil
	}),
}

var studentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one student",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		if _, err := a.enter(types.RoleAdmin); err != nil {
			return err
		}
		s, err := a.client.GetStudent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ID:       %s\n", s.ID)
		printProfile(cmd.OutOrStdout(), s.User())
		return nil
	}),
}

var addFlags struct {
	fullName string
	email    string
	password string
	phone    string
	course   string
	year     int
	status   string
}

var studentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a student",
	Long: `Add a student. Name, email, course and password are required. Usage:

	portal students add --name "Alice" --email alice@student.edu --course Mathematics --password secret
`,
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		created, err := r.Add(cmd.Context(), roster.NewStudent{
			FullName:       addFlags.fullName,
			Email:          addFlags.email,
			Course:         addFlags.course,
			Password:       addFlags.password,
			Phone:          addFlags.phone,
			EnrollmentYear: addFlags.year,
			Status:         types.Status(addFlags.status),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (id %s)\n", created.FullName, created.ID)
		return nil
	}),
}

var studentEdit editFlags

var studentsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a student",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		current, ok := r.Get(args[0])
		if !ok {
			return roster.ErrUnknownStudent
		}
		saved, err := runEdit(cmd, a, &studentEdit, current.User(), profile.StudentSaver(r))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", displayName(saved))
		return nil
	}),
}

var studentsRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a student",
	Args:    cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %s, %d remaining\n", args[0], len(r.Students()))
		return nil
	}),
}

var studentsStatusCmd = &cobra.Command{
	Use:       "status <id> <Active|Graduated|Dropped>",
	Short:     "Change a student's enrollment status",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(types.StatusActive), string(types.StatusGraduated), string(types.StatusDropped)},
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.SetStatus(cmd.Context(), args[0], types.Status(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Student %s is now %s\n", args[0], args[1])
		return nil
	}),
}

var studentsPromoteCmd = &cobra.Command{
	Use:   "promote <id>",
	Short: "Promote a student to admin",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		user, err := r.Promote(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", displayName(user))
		return nil
	}),
}

var studentsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the roster",
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		r, err := adminRoster(cmd, a)
		if err != nil {
			return err
		}
		defer r.Close()

		printStats(cmd.OutOrStdout(), r.Stats())
		for _, c := range r.Courses() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", c)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(studentsCmd)
	studentsCmd.AddCommand(studentsListCmd, studentsShowCmd, studentsAddCmd, studentsEditCmd,
		studentsRemoveCmd, studentsStatusCmd, studentsPromoteCmd, studentsStatsCmd)

	studentsListCmd.Flags().StringVarP(&listFlags.search, "search", "s", "", "match name, email or course")
	studentsListCmd.Flags().StringVar(&listFlags.course, "course", "", "only this course")
	studentsListCmd.Flags().StringVar(&listFlags.status, "status", "", "only this status")

	studentsAddCmd.Flags().StringVar(&addFlags.fullName, "name", "", "full name")
	studentsAddCmd.Flags().StringVar(&addFlags.email, "email", "", "email address")
	studentsAddCmd.Flags().StringVar(&addFlags.password, "password", "", "initial password")
	studentsAddCmd.Flags().StringVar(&addFlags.phone, "phone", "", "phone number")
	studentsAddCmd.Flags().StringVar(&addFlags.course, "course", "", "course of study")
	studentsAddCmd.Flags().IntVar(&addFlags.year, "year", 0, "enrollment year, defaults to this year")
	studentsAddCmd.Flags().StringVar(&addFlags.status, "status", "", "Active, Graduated or Dropped")

	studentEdit.register(studentsEditCmd.Flags(), true)
}
