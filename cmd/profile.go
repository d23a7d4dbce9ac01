/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/quicktech-sms/portal/internal/profile"
	"github.com/quicktech-sms/portal/internal/session"
	"github.com/quicktech-sms/portal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// editFlags are the profile form fields shared by "profile edit" and
// "students edit". Only flags given on the command line change the draft.
type editFlags struct {
	fullName string
	email    string
	phone    string
	course   string
	year     int
	status   string
	image    string
}

func (f *editFlags) register(fs *pflag.FlagSet, withStatus bool) {
	fs.StringVar(&f.fullName, "name", "", "full name")
	fs.StringVar(&f.email, "email", "", "email address")
	fs.StringVar(&f.phone, "phone", "", "phone number")
	fs.StringVar(&f.course, "course", "", "course of study")
	fs.IntVar(&f.year, "year", 0, "enrollment year")
	fs.StringVar(&f.image, "image", "", "path to a replacement profile picture")
	if withStatus {
		fs.StringVar(&f.status, "status", "", "Active, Graduated or Dropped")
	}
}

func (f *editFlags) apply(fs *pflag.FlagSet, d profile.Draft) profile.Draft {
	if fs.Changed("name") {
		d.FullName = f.fullName
	}
	if fs.Changed("email") {
		d.Email = f.email
	}
	if fs.Changed("phone") {
		d.Phone = f.phone
	}
	if fs.Changed("course") {
		d.CourseOfStudy = f.course
	}
	if fs.Changed("year") {
		d.EnrollmentYear = f.year
	}
	if fs.Lookup("status") != nil && fs.Changed("status") {
		d.Status = types.Status(f.status)
	}
	return d
}

// runEdit drives one editor session: apply flags, attach the image, save.
// A failed save leaves nothing behind.
func runEdit(cmd *cobra.Command, a *app, f *editFlags, subject types.User, save profile.SaveFunc) (types.User, error) {
	editor := profile.NewEditor(subject, save,
		profile.WithPreviewStore(profile.NewTempPreviews(a.cfg.Client.PreviewDir)),
		profile.WithLogger(a.logger),
	)
	defer editor.Discard()

	editor.SetDraft(f.apply(cmd.Flags(), editor.Draft()))
	if f.image != "" {
		data, err := os.ReadFile(f.image)
		if err != nil {
			return types.User{}, fmt.Errorf("read image: %w", err)
		}
		if err := editor.SetImage(filepath.Base(f.image), data); err != nil {
			return types.User{}, err
		}
		a.logger.Debug("image preview ready", "preview", editor.DisplayImage())
	}
	return editor.Save(cmd.Context())
}

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View or edit your own profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		user, err := a.enter("")
		if err != nil {
			return err
		}
		fresh, err := a.client.Me(cmd.Context(), user.ID)
		if err != nil {
			return err
		}
		if err := a.session.UpdateUser(session.PatchFromUser(fresh)); err != nil {
			a.logger.Warn("refresh session user", "error", err)
		}
		printProfile(cmd.OutOrStdout(), fresh)
		return nil
	}),
}

var profileEdit editFlags

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit your profile",
	Long: `Edit your profile. Only the given fields change. Usage:

	portal profile edit --phone "+250 788 000 000" --image ./me.png
`,
	RunE: run(func(cmd *cobra.Command, a *app, args []string) error {
		user, err := a.enter("")
		if err != nil {
			return err
		}
		saved, err := runEdit(cmd, a, &profileEdit, user, profile.SelfSaver(a.client, a.session))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
		printProfile(cmd.OutOrStdout(), saved)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileEditCmd)
	profileEdit.register(profileEditCmd.Flags(), false)
}
