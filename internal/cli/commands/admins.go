package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const adminsRoute = "/planifika-admins"

// NewAdminsCmd creates the admins command
func NewAdminsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admins",
		Short: "List the administrators of customer organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmins(cmd.Context(), WithServer(serverFlag(cmd)))
		},
	}
}

func runAdmins(ctx context.Context, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, adminsRoute); err != nil {
		return err
	}

	admins, err := s.Services.Planifika.AdminsWithOrganizations(ctx, s.Services.Organizations)
	if err != nil {
		return err
	}

	if len(admins) == 0 {
		fmt.Fprintln(o.out, "No organization administrators found.")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tORGANIZATION")
	fmt.Fprintln(w, "──\t────\t─────\t────────────")
	for _, a := range admins {
		id := "-"
		if n, ok := a.User.ID(); ok {
			id = fmt.Sprint(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, orDash(a.User.DisplayName()), orDash(a.User.Email()), orDash(a.OrganizationName))
	}
	return w.Flush()
}
