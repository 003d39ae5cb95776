package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/cli/userconfig"
	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/logger"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Planifika backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set PLANIFIKA_EMAIL, defaults to the last one used)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PLANIFIKA_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, email, password string, opts ...Option) error {
	o := newRunOptions(opts)

	// Environment variables are useful for CI
	if email == "" {
		email = os.Getenv("PLANIFIKA_EMAIL")
	}
	if password == "" {
		password = os.Getenv("PLANIFIKA_PASSWORD")
	}

	s, err := o.open()
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	if email == "" {
		if email, err = userconfig.LastEmail(s.Server.Alias); err != nil {
			log.Debug().Err(err).Msg("Failed to read the last used email")
		}
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or PLANIFIKA_EMAIL env var)")
	}

	if password == "" {
		password, err = o.prompter.Password("Password")
		if err != nil {
			return err
		}
	}

	if err := o.validator.Validate(forms.LoginForm{Email: email, Password: password}); err != nil {
		return err
	}

	fmt.Fprintf(o.out, "Logging in to %s (%s) as %s...\n", s.Server.Alias, s.Server.APIBaseURL, email)

	res, err := s.Gate.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	log.Debug().Str("email", email).Msg("Signed in")
	if err := userconfig.SetLastEmail(s.Server.Alias, email); err != nil {
		log.Warn().Err(err).Msg("Failed to remember the email")
	}

	fmt.Fprintln(o.out, "✓ Login successful!")
	if res.User != nil {
		fmt.Fprintf(o.out, "  User: %s (%s)\n", orDash(res.User.Name), orDash(res.User.Email))
	}
	if role, ok := s.Gate.Service().Role(ctx); ok {
		fmt.Fprintf(o.out, "  Role: %s\n", role.Label())
	}

	return nil
}
