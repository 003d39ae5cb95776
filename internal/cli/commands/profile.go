package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/forms"
)

const profileRoute = "/edit-profile"

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	var name string
	var changePassword bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your display name or password",
		Long: `Change your display name or password.

Without flags the current profile is shown.

Examples:
  $ planifika profile --name "Ana Perez"
  $ planifika profile --password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(cmd.Context(), name, changePassword, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().BoolVar(&changePassword, "password", false, "Prompt for a new password")

	return cmd
}

func runProfile(ctx context.Context, name string, changePassword bool, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, profileRoute); err != nil {
		return err
	}

	svc := s.Gate.Service()
	if name == "" && !changePassword {
		user := s.Gate.State().User
		fmt.Fprintf(o.out, "Name:  %s\n", orDash(svc.DisplayName(ctx, user)))
		if user != nil {
			fmt.Fprintf(o.out, "Email: %s\n", orDash(user.Email))
		}
		return nil
	}

	form := forms.ProfileForm{Name: name}
	if changePassword {
		if form.Password, err = o.prompter.Password("New password"); err != nil {
			return err
		}
		if form.ConfirmPassword, err = o.prompter.Password("Confirm password"); err != nil {
			return err
		}
	}

	if err := o.validator.Validate(form); err != nil {
		return err
	}

	result, err := s.Gate.UpdateProfile(ctx, form.Update())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	fmt.Fprintln(o.out, "✓ Profile updated")
	if n := result.Name(form.Update().Name); n != "" {
		fmt.Fprintf(o.out, "  Name: %s\n", n)
	}
	if changePassword {
		fmt.Fprintln(o.out, "  Password changed")
	}
	return nil
}
