package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/models"
)

const usersRoute = "/users"

// NewUsersCmd creates the users command and its subcommands
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage internal Drimsoft users",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersShowCmd())
	cmd.AddCommand(newUsersCreateCmd())
	cmd.AddCommand(newUsersEditCmd())
	cmd.AddCommand(newUsersDeleteCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List internal users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd.Context(), WithServer(serverFlag(cmd)))
		},
	}
}

func runUsersList(ctx context.Context, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, usersRoute); err != nil {
		return err
	}

	users, err := s.Services.Users.List(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Fprintln(o.out, "No users found.")
		fmt.Fprintln(o.out, "\nCreate one with: planifika users create")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tSTATUS")
	fmt.Fprintln(w, "──\t────\t────\t──────")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.IDUser, orDash(u.Name), orDash(u.Role.Label()), orDash(u.Status.Name))
	}
	return w.Flush()
}

func newUsersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an internal user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runUsersShow(cmd.Context(), id, WithServer(serverFlag(cmd)))
		},
	}
}

func runUsersShow(ctx context.Context, id int64, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d", usersRoute, id)); err != nil {
		return err
	}

	u, err := s.Services.Users.Get(ctx, id)
	if err != nil {
		return err
	}

	printUser(o, u)
	return nil
}

func printUser(o *runOptions, u *models.DrimsoftUser) {
	fmt.Fprintf(o.out, "ID:          %d\n", u.IDUser)
	fmt.Fprintf(o.out, "Name:        %s\n", orDash(u.Name))
	fmt.Fprintf(o.out, "Role:        %s\n", orDash(u.Role.Label()))
	fmt.Fprintf(o.out, "Status:      %s\n", orDash(u.Status.Name))
	fmt.Fprintf(o.out, "Identity ID: %s\n", orDash(u.SupabaseUserID))
}

func newUsersCreateCmd() *cobra.Command {
	var form forms.CreateUserForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an internal user",
		Long: `Create an internal user.

The password is prompted for twice. Role and status are picked interactively
when not given.

Examples:
  $ planifika users create --name "Ana" --email ana@drimsoft.com --role 2 --status 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersCreate(cmd.Context(), form, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().Int64Var(&form.RoleID, "role", 0, "Role id (1 Administrator, 2 Drimsoft Team)")
	cmd.Flags().Int64Var(&form.StatusID, "status", 0, "Status id (1 active, 2 inactive, 3 deleted)")

	return cmd
}

func runUsersCreate(ctx context.Context, form forms.CreateUserForm, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, usersRoute+"/new"); err != nil {
		return err
	}

	if form.RoleID == 0 {
		if form.RoleID, err = pickRole(o, 0); err != nil {
			return err
		}
	}
	if form.StatusID == 0 {
		if form.StatusID, err = pickStatus(o, models.UserStatusActive); err != nil {
			return err
		}
	}
	if form.Password == "" {
		if form.Password, err = o.prompter.Password("Password"); err != nil {
			return err
		}
		if form.ConfirmPassword, err = o.prompter.Password("Confirm password"); err != nil {
			return err
		}
	}

	if err := o.validator.Validate(form); err != nil {
		return err
	}

	u, err := s.Services.Users.Create(ctx, form.Request())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Created user %s (id %d)\n", orDash(u.Name), u.IDUser)
	return nil
}

func newUsersEditCmd() *cobra.Command {
	var form forms.EditUserForm

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the name, role and status of an internal user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runUsersEdit(cmd.Context(), id, form, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "New full name")
	cmd.Flags().Int64Var(&form.RoleID, "role", 0, "Role id (1 Administrator, 2 Drimsoft Team)")
	cmd.Flags().Int64Var(&form.StatusID, "status", 0, "Status id (1 active, 2 inactive, 3 deleted)")

	return cmd
}

func runUsersEdit(ctx context.Context, id int64, form forms.EditUserForm, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d/edit", usersRoute, id)); err != nil {
		return err
	}

	current, err := s.Services.Users.Get(ctx, id)
	if err != nil {
		return err
	}

	// Missing values are picked with the current one preselected
	if form.RoleID == 0 {
		if form.RoleID, err = pickRole(o, current.Role.ID); err != nil {
			return err
		}
	}
	if form.StatusID == 0 {
		if form.StatusID, err = pickStatus(o, current.Status.ID); err != nil {
			return err
		}
	}

	if err := o.validator.Validate(form); err != nil {
		return err
	}

	name, rename := form.Rename(current.Name)
	if !rename && form.RoleID == current.Role.ID && form.StatusID == current.Status.ID {
		fmt.Fprintln(o.out, "Nothing to change.")
		return nil
	}

	if rename {
		renamed, err := s.Services.Users.Update(ctx, id, map[string]any{"name": name})
		if err != nil {
			return fmt.Errorf("failed to rename user: %w", err)
		}
		current.Name = renamed.Name
	}

	u, err := s.Services.Users.ApplyChanges(ctx, *current, form.RoleID, form.StatusID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Updated user %d\n", id)
	printUser(o, u)
	return nil
}

func newUsersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an internal user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runUsersDelete(cmd.Context(), id, yes, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runUsersDelete(ctx context.Context, id int64, yes bool, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, usersRoute); err != nil {
		return err
	}

	if !yes {
		ok, err := o.prompter.Confirm(fmt.Sprintf("Delete user %d", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(o.out, "Aborted.")
			return nil
		}
	}

	if err := s.Services.Users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Deleted user %d\n", id)
	return nil
}

func pickRole(o *runOptions, current int64) (int64, error) {
	roles := models.AvailableRoles()
	labels := make([]string, len(roles))
	cursor := 0
	for i, r := range roles {
		labels[i] = r.Label()
		if r.ID == current {
			cursor = i
		}
	}

	i, err := o.prompter.Select("Role", labels, cursor)
	if err != nil {
		return 0, err
	}
	return roles[i].ID, nil
}

func pickStatus(o *runOptions, current int64) (int64, error) {
	statuses := models.AvailableUserStatuses()
	labels := make([]string, len(statuses))
	cursor := 0
	for i, st := range statuses {
		labels[i] = st.Name
		if st.ID == current {
			cursor = i
		}
	}

	i, err := o.prompter.Select("Status", labels, cursor)
	if err != nil {
		return 0, err
	}
	return statuses[i].ID, nil
}
