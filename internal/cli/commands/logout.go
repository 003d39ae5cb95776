package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), WithServer(serverFlag(cmd)))
		},
	}
}

func runLogout(ctx context.Context, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}

	if err := s.Gate.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Logged out of %s\n", s.Server.Alias)
	return nil
}
