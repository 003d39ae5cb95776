package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/logger"
	"github.com/drimsoft/planifika-admin/internal/models"
)

const ticketsRoute = "/tickets"

// NewTicketsCmd creates the tickets command and its subcommands
func NewTicketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Work the support queue",
	}

	cmd.AddCommand(newTicketsListCmd())
	cmd.AddCommand(newTicketsShowCmd())
	cmd.AddCommand(newTicketsCreateCmd())
	cmd.AddCommand(newTicketsAnswerCmd())
	cmd.AddCommand(newTicketsStatusCmd())
	cmd.AddCommand(newTicketsAssignCmd())

	return cmd
}

func newTicketsListCmd() *cobra.Command {
	var page, size int
	var search string
	var filter ticketFilter

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the tickets visible to you",
		Long: `List the tickets visible to you.

Unassigned tickets and tickets assigned to you are shown. With --raised-by,
--assigned-to or --mine the full matching listing is printed without paging.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.active() {
				return runTicketsFiltered(cmd.Context(), filter, search, WithServer(serverFlag(cmd)))
			}
			return runTicketsList(cmd.Context(), page, size, search, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().Int64Var(&filter.RaisedBy, "raised-by", 0, "Only tickets raised by this Planifika user id")
	cmd.Flags().Int64Var(&filter.AssignedTo, "assigned-to", 0, "Only tickets assigned to this internal user id")
	cmd.Flags().BoolVar(&filter.Mine, "mine", false, "Only tickets assigned to you")

	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&size, "size", defaultPageSize, "Page size")
	cmd.Flags().StringVar(&search, "search", "", "Filter by title or description")

	return cmd
}

func runTicketsList(ctx context.Context, page, size int, search string, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, ticketsRoute); err != nil {
		return err
	}

	if page < 1 {
		page = 1
	}
	result, err := s.Services.Tickets.Browse(ctx, client.TicketQuery{
		Page:     page - 1,
		Size:     size,
		Search:   strings.TrimSpace(search),
		ViewerID: s.viewerID(ctx),
	})
	if err != nil {
		return err
	}

	if len(result.Items) == 0 {
		fmt.Fprintln(o.out, "No tickets found.")
		return nil
	}

	summary := models.SummarizeTickets(result.Items)
	fmt.Fprintf(o.out, "%d tickets: %d pending, %d in progress, %d answered\n\n",
		summary.Total, summary.Pending, summary.InProgress, summary.Answered)

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tASSIGNEE")
	fmt.Fprintln(w, "──\t─────\t──────\t────────")
	for _, t := range result.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, orDash(t.Title), ticketStatus(t), orDash(t.DrimsoftUserName))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	totalPages := result.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	fmt.Fprintf(o.out, "\nPage %d of %d\n", result.Page+1, totalPages)
	return nil
}

// ticketFilter selects tickets by who raised or works them
type ticketFilter struct {
	RaisedBy   int64
	AssignedTo int64
	Mine       bool
}

func (f ticketFilter) active() bool {
	return f.RaisedBy != 0 || f.AssignedTo != 0 || f.Mine
}

func runTicketsFiltered(ctx context.Context, filter ticketFilter, search string, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, ticketsRoute); err != nil {
		return err
	}

	var tickets []models.Ticket
	switch {
	case filter.RaisedBy != 0:
		tickets, err = s.Services.Tickets.ListByPlanifikaUser(ctx, filter.RaisedBy)
	case filter.Mine:
		viewer := s.viewerID(ctx)
		if viewer == 0 {
			return fmt.Errorf("your internal user id is unknown, use --assigned-to instead")
		}
		tickets, err = s.Services.Tickets.ListByAssignee(ctx, viewer)
	default:
		tickets, err = s.Services.Tickets.ListByAssignee(ctx, filter.AssignedTo)
	}
	if err != nil {
		return err
	}

	visible := client.FilterVisible(tickets, s.viewerID(ctx))
	var matching []models.Ticket
	for _, t := range visible {
		if t.Matches(search) {
			matching = append(matching, t)
		}
	}

	if len(matching) == 0 {
		fmt.Fprintln(o.out, "No tickets found.")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tASSIGNEE")
	fmt.Fprintln(w, "──\t─────\t──────\t────────")
	for _, t := range matching {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, orDash(t.Title), ticketStatus(t), orDash(t.DrimsoftUserName))
	}
	return w.Flush()
}

func ticketStatus(t models.Ticket) string {
	if t.StatusName != "" {
		return t.StatusName
	}
	for _, st := range models.AvailableTicketStatuses() {
		if st.ID == t.StatusID {
			return st.Name
		}
	}
	return "-"
}

func printTicket(o *runOptions, t *models.Ticket, raisedBy string) {
	fmt.Fprintf(o.out, "Ticket #%d: %s\n", t.ID, orDash(t.Title))
	fmt.Fprintf(o.out, "Status:   %s\n", ticketStatus(*t))
	fmt.Fprintf(o.out, "Raised by: %s\n", raisedBy)
	fmt.Fprintf(o.out, "Assignee: %s\n", orDash(t.DrimsoftUserName))
	fmt.Fprintf(o.out, "\n%s\n", orDash(t.Description))
	if t.Answer != "" {
		fmt.Fprintf(o.out, "\nAnswer:\n%s\n", t.Answer)
	}
}

func newTicketsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a ticket and mark it as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runTicketsShow(cmd.Context(), id, WithServer(serverFlag(cmd)))
		},
	}
}

func runTicketsShow(ctx context.Context, id int64, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d", ticketsRoute, id)); err != nil {
		return err
	}

	t, err := s.Services.Tickets.Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.Services.Tickets.MarkRead(ctx, id, s.viewerID(ctx)); err != nil {
		log := logger.GetLogger()
		log.Debug().Err(err).Int64("ticket_id", id).Msg("Failed to mark ticket as read")
	}

	// The requester's name is a nicety, fall back to the id
	raisedBy := fmt.Sprintf("Planifika user %d", t.PlanifikaUserID)
	if t.PlanifikaUserID != 0 {
		if user, err := s.Services.Planifika.Get(ctx, t.PlanifikaUserID); err == nil && user.DisplayName() != "" {
			raisedBy = fmt.Sprintf("%s (%d)", user.DisplayName(), t.PlanifikaUserID)
		}
	}

	printTicket(o, t, raisedBy)
	return nil
}

func newTicketsCreateCmd() *cobra.Command {
	var form forms.TicketCreateForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a ticket on behalf of a Planifika user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTicketsCreate(cmd.Context(), form, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().Int64Var(&form.PlanifikaUserID, "user", 0, "Planifika user id")
	cmd.Flags().StringVar(&form.Title, "title", "", "Ticket title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Ticket description")

	return cmd
}

func runTicketsCreate(ctx context.Context, form forms.TicketCreateForm, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, ticketsRoute); err != nil {
		return err
	}

	if err := o.validator.Validate(form); err != nil {
		return err
	}

	t, err := s.Services.Tickets.Create(ctx, form.Request())
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Opened ticket #%d\n", t.ID)
	return nil
}

func newTicketsAnswerCmd() *cobra.Command {
	var answer string

	cmd := &cobra.Command{
		Use:   "answer <id>",
		Short: "Answer a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runTicketsAnswer(cmd.Context(), id, answer, WithServer(serverFlag(cmd)))
		},
	}

	cmd.Flags().StringVarP(&answer, "message", "m", "", "Answer text")

	return cmd
}

func runTicketsAnswer(ctx context.Context, id int64, answer string, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d", ticketsRoute, id)); err != nil {
		return err
	}

	if err := o.validator.Validate(forms.TicketAnswerForm{Answer: answer}); err != nil {
		return err
	}

	t, err := s.Services.Tickets.Answer(ctx, id, models.TicketAnswerRequest{
		Answer:         strings.TrimSpace(answer),
		DrimsoftUserID: s.viewerID(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to answer ticket: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Answered ticket #%d (%s)\n", id, ticketStatus(*t))
	return nil
}

func newTicketsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> [status-id]",
		Short: "Move a ticket to another status",
		Long: `Move a ticket to another status.

Without a status id the status is picked interactively.

Statuses: 1 OPEN, 2 IN_PROGRESS, 3 RESOLVED, 4 CLOSED, 5 ANSWERED`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var statusID int64
			if len(args) == 2 {
				if statusID, err = parseID(args[1]); err != nil {
					return err
				}
			}
			return runTicketsStatus(cmd.Context(), id, statusID, WithServer(serverFlag(cmd)))
		},
	}
}

func runTicketsStatus(ctx context.Context, id, statusID int64, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d", ticketsRoute, id)); err != nil {
		return err
	}

	if statusID == 0 {
		statuses := models.AvailableTicketStatuses()
		labels := make([]string, len(statuses))
		for i, st := range statuses {
			labels[i] = st.Name
		}
		i, err := o.prompter.Select("Status", labels, 0)
		if err != nil {
			return err
		}
		statusID = statuses[i].ID
	}

	if err := o.validator.Validate(forms.TicketStatusForm{StatusID: statusID}); err != nil {
		return err
	}

	t, err := s.Services.Tickets.SetStatus(ctx, id, statusID)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Ticket #%d is now %s\n", id, ticketStatus(*t))
	return nil
}

func newTicketsAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> [user-id]",
		Short: "Assign a ticket to an internal user",
		Long: `Assign a ticket to an internal user.

Without a user id the assignee is picked from the internal users.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var userID int64
			if len(args) == 2 {
				if userID, err = parseID(args[1]); err != nil {
					return err
				}
			}
			return runTicketsAssign(cmd.Context(), id, userID, WithServer(serverFlag(cmd)))
		},
	}
}

func runTicketsAssign(ctx context.Context, id, userID int64, opts ...Option) error {
	o := newRunOptions(opts)

	s, err := o.open()
	if err != nil {
		return err
	}
	if err := s.enter(ctx, fmt.Sprintf("%s/%d", ticketsRoute, id)); err != nil {
		return err
	}

	if userID == 0 {
		users, err := s.Services.Users.List(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return fmt.Errorf("no internal users to assign the ticket to")
		}
		labels := make([]string, len(users))
		for i, u := range users {
			labels[i] = fmt.Sprintf("%s (%s)", orDash(u.Name), orDash(u.Role.Label()))
		}
		i, err := o.prompter.Select("Assignee", labels, 0)
		if err != nil {
			return err
		}
		userID = users[i].IDUser
	}

	if err := o.validator.Validate(forms.TicketAssignForm{UserID: userID}); err != nil {
		return err
	}

	t, err := s.Services.Tickets.Assign(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to assign ticket: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Assigned ticket #%d to %s\n", id, orDash(t.DrimsoftUserName))
	return nil
}
