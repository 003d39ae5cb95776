package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/auth"
	"github.com/drimsoft/planifika-admin/internal/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), WithServer(serverFlag(cmd)))
		},
	}
}

func runWhoami(ctx context.Context, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, session.LandingRoute); err != nil {
		return err
	}

	svc := s.Gate.Service()
	user := s.Gate.State().User
	stored, _ := svc.Role(ctx)
	role := session.EffectiveRole(user, stored)

	fmt.Fprintf(o.out, "Server: %s (%s)\n", s.Server.Alias, s.Server.APIBaseURL)
	if user != nil {
		fmt.Fprintf(o.out, "User:   %s (%s)\n", orDash(svc.DisplayName(ctx, user)), orDash(user.Email))
	}
	fmt.Fprintf(o.out, "Role:   %s\n", orDash(role.Label()))
	if name := svc.RoleName(ctx); name != "" && name != role.Label() {
		fmt.Fprintf(o.out, "        (%s)\n", name)
	}

	if token, ok := svc.Token(ctx); ok {
		if exp, ok := auth.ExpiresAt(token); ok {
			state := "expires"
			if auth.Expired(token, time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(o.out, "Token:  %s %s\n", state, exp.Local().Format(time.RFC1123))
		}
	}

	if menu := session.Menu(role); len(menu) > 0 {
		fmt.Fprintln(o.out, "\nSections:")
		for _, item := range menu {
			fmt.Fprintf(o.out, "  %-18s %s\n", item.Label, item.Description)
		}
	}
	return nil
}
