package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/logger"
	"github.com/drimsoft/planifika-admin/internal/models"
)

const (
	organizationsRoute = "/organizations"
	defaultPageSize    = 10
)

// NewOrgsCmd creates the orgs command and its subcommands
func NewOrgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "Manage customer organizations",
	}

	cmd.AddCommand(newOrgsListCmd())
	cmd.AddCommand(newOrgsShowCmd())
	cmd.AddCommand(newOrgsCreateCmd())
	cmd.AddCommand(newOrgsUpdateCmd())
	cmd.AddCommand(newOrgsDeleteCmd())

	return cmd
}

func newOrgsListCmd() *cobra.Command {
	var page, size int
	var search string
	var all bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return runOrgsListAll(cmd.Context(), WithServer(serverFlag(cmd)))
			}
			return runOrgsList(cmd.Context(), page, size, search, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List every organization without paging or member counts")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", defaultPageSize, "Page size")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name")

	return cmd
}

func runOrgsList(ctx context.Context, page, size int, search string, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, organizationsRoute); err != nil {
		return err
	}

	if page < 1 {
		page = 1
	}
	result, err := s.Services.Organizations.Page(ctx, page-1, size, strings.TrimSpace(search))
	if err != nil {
		return err
	}

	if len(result.Content) == 0 {
		fmt.Fprintln(o.out, "No organizations found.")
		return nil
	}

	ids := make([]int64, 0, len(result.Content))
	for _, org := range result.Content {
		ids = append(ids, org.ID)
	}
	counts := s.Services.Organizations.MemberCounts(ctx, ids)

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNIT\tNAME\tDOMAIN\tMEMBERS")
	fmt.Fprintln(w, "──\t───\t────\t──────\t───────")
	for _, org := range result.Content {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", org.ID, orDash(org.NIT), orDash(org.Name), orDash(org.Domain), counts[org.ID])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totalPages := result.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	fmt.Fprintf(o.out, "\nPage %d of %d (%d organizations)\n", result.Number+1, totalPages, result.TotalElements)
	return nil
}

func runOrgsListAll(ctx context.Context, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, organizationsRoute); err != nil {
		return err
	}

	orgs, err := s.Services.Organizations.List(ctx)
	if err != nil {
		return err
	}

	if len(orgs) == 0 {
		fmt.Fprintln(o.out, "No organizations found.")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNIT\tNAME\tDOMAIN")
	fmt.Fprintln(w, "──\t───\t────\t──────")
	for _, org := range orgs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", org.ID, orDash(org.NIT), orDash(org.Name), orDash(org.Domain))
	}
	return w.Flush()
}

func newOrgsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an organization and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runOrgsShow(cmd.Context(), id, WithServer(serverFlag(cmd)))
		},
	}
}

func runOrgsShow(ctx context.Context, id int64, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d", organizationsRoute, id)); err != nil {
		return err
	}

	org, err := s.Services.Organizations.Get(ctx, id)
	if err != nil {
		return err
	}
	printOrganization(o, org)

	members, err := s.Services.Organizations.Members(ctx, id)
	if err != nil {
		log := logger.GetLogger()
		log.Debug().Err(err).Int64("organization_id", id).Msg("Failed to load organization members")
	}
	if members == nil {
		members = org.Users
	}
	fmt.Fprintf(o.out, "Members:  %d\n", len(members))
	for _, raw := range members {
		var member models.PlanifikaUser
		if err := json.Unmarshal(raw, &member); err != nil {
			continue
		}
		fmt.Fprintf(o.out, "  - %s %s\n", orDash(member.DisplayName()), orDash(member.Email()))
	}
	return nil
}

func printOrganization(o *runOptions, org *models.Organization) {
	fmt.Fprintf(o.out, "ID:       %d\n", org.ID)
	fmt.Fprintf(o.out, "NIT:      %s\n", orDash(org.NIT))
	fmt.Fprintf(o.out, "Name:     %s\n", orDash(org.Name))
	fmt.Fprintf(o.out, "Address:  %s\n", orDash(org.Address))
	fmt.Fprintf(o.out, "Phone:    %s\n", orDash(org.Phone))
	fmt.Fprintf(o.out, "Domain:   %s\n", orDash(org.Domain))
	fmt.Fprintf(o.out, "Photo:    %s\n", orDash(org.PhotoURL))
}

var organizationFlagNames = []string{"nit", "name", "address", "phone", "photo-url", "domain"}

func organizationFlags(cmd *cobra.Command, form *forms.OrganizationForm) {
	cmd.Flags().StringVar(&form.NIT, "nit", "", "Tax identification number")
	cmd.Flags().StringVar(&form.Name, "name", "", "Organization name")
	cmd.Flags().StringVar(&form.Address, "address", "", "Postal address")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&form.PhotoURL, "photo-url", "", "Logo URL")
	cmd.Flags().StringVar(&form.Domain, "domain", "", "Email domain of the organization")
}

func newOrgsCreateCmd() *cobra.Command {
	var form forms.OrganizationForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsCreate(cmd.Context(), form, WithServer(serverFlag(cmd)))
		},
	}
	organizationFlags(cmd, &form)

	return cmd
}

func runOrgsCreate(ctx context.Context, form forms.OrganizationForm, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, organizationsRoute+"/new"); err != nil {
		return err
	}

	if err := o.validator.Validate(form); err != nil {
		return err
	}

	org, err := s.Services.Organizations.Create(ctx, form.Input())
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Created organization %s (id %d)\n", org.Name, org.ID)
	return nil
}

func newOrgsUpdateCmd() *cobra.Command {
	var form forms.OrganizationForm

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an organization",
		Long: `Update an organization.

Flags that are not given keep their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changed := map[string]bool{}
			for _, name := range organizationFlagNames {
				changed[name] = cmd.Flags().Changed(name)
			}
			return runOrgsUpdate(cmd.Context(), id, form, changed, WithServer(serverFlag(cmd)))
		},
	}
	organizationFlags(cmd, &form)

	return cmd
}

// runOrgsUpdate loads the organization and overlays the flags in changed
// before sending the full record back
func runOrgsUpdate(ctx context.Context, id int64, form forms.OrganizationForm, changed map[string]bool, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d/edit", organizationsRoute, id)); err != nil {
		return err
	}

	current, err := s.Services.Organizations.Get(ctx, id)
	if err != nil {
		return err
	}

	merged := forms.OrganizationForm{
		NIT:      current.NIT,
		Name:     current.Name,
		Address:  current.Address,
		Phone:    current.Phone,
		PhotoURL: current.PhotoURL,
		Domain:   current.Domain,
	}
	overlay := map[string]struct {
		dst   *string
		value string
	}{
		"nit":       {&merged.NIT, form.NIT},
		"name":      {&merged.Name, form.Name},
		"address":   {&merged.Address, form.Address},
		"phone":     {&merged.Phone, form.Phone},
		"photo-url": {&merged.PhotoURL, form.PhotoURL},
		"domain":    {&merged.Domain, form.Domain},
	}
	for name, field := range overlay {
		if changed[name] {
			*field.dst = field.value
		}
	}

	if err := o.validator.Validate(merged); err != nil {
		return err
	}

	org, err := s.Services.Organizations.Update(ctx, id, merged.Input())
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Updated organization %d\n", id)
	printOrganization(o, org)
	return nil
}

func newOrgsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runOrgsDelete(cmd.Context(), id, yes, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runOrgsDelete(ctx context.Context, id int64, yes bool, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, organizationsRoute); err != nil {
		return err
	}

	if !yes {
		ok, err := o.prompter.Confirm(fmt.Sprintf("Delete organization %d", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(o.out, "Aborted.")
			return nil
		}
	}

	if err := s.Services.Organizations.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Deleted organization %d\n", id)
	return nil
}
