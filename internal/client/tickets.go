package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// TicketsAPI manages support tickets
type TicketsAPI struct {
	c *Client
}

// NewTicketsAPI creates the tickets service over c
func NewTicketsAPI(c *Client) *TicketsAPI {
	return &TicketsAPI{c: c}
}

// TicketQuery selects a page of tickets as seen by one staff member
type TicketQuery struct {
	Page     int
	Size     int
	Search   string
	ViewerID int64 // internal user id of the viewer, 0 if unknown
}

func (t *TicketsAPI) list(ctx context.Context, query url.Values) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := t.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/tickets",
		query:   query,
		auth:    authRequired,
		failure: "Could not load tickets",
	}, &tickets)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// List returns every ticket
func (t *TicketsAPI) List(ctx context.Context) ([]models.Ticket, error) {
	return t.list(ctx, nil)
}

// ListByPlanifikaUser returns the tickets raised by a Planifika user
func (t *TicketsAPI) ListByPlanifikaUser(ctx context.Context, id int64) ([]models.Ticket, error) {
	return t.list(ctx, url.Values{"idplanifikauser": {strconv.FormatInt(id, 10)}})
}

// ListByAssignee returns the tickets assigned to an internal user
func (t *TicketsAPI) ListByAssignee(ctx context.Context, id int64) ([]models.Ticket, error) {
	return t.list(ctx, url.Values{"iddrimsoftuser": {strconv.FormatInt(id, 10)}})
}

// Paged calls the paged listing endpoint
func (t *TicketsAPI) Paged(ctx context.Context, page, size int, search string) (*models.TicketPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	if s := strings.TrimSpace(search); s != "" {
		query.Set("search", s)
	}

	var result models.TicketPage
	err := t.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/tickets/paged",
		query:   query,
		auth:    authRequired,
		failure: "Could not load tickets",
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Size == 0 {
		result.Size = size
	}
	return &result, nil
}

// Browse returns the page of tickets visible to the viewer. When the paged
// endpoint fails for any reason other than an expired session, it falls back
// to the full listing and pages locally.
func (t *TicketsAPI) Browse(ctx context.Context, q TicketQuery) (*models.TicketPage, error) {
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.Page < 0 {
		q.Page = 0
	}

	paged, err := t.Paged(ctx, q.Page, q.Size, q.Search)
	if err == nil {
		paged.Items = searchTickets(FilterVisible(paged.Items, q.ViewerID), q.Search)
		return paged, nil
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotAuthenticated) || ctx.Err() != nil {
		return nil, err
	}

	log.Debug().Err(err).Msg("Paged tickets unavailable, falling back to full listing")

	all, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(searchTickets(FilterVisible(all, q.ViewerID), q.Search), q.Page, q.Size), nil
}

// FilterVisible keeps unassigned tickets and the ones assigned to viewerID
func FilterVisible(tickets []models.Ticket, viewerID int64) []models.Ticket {
	out := make([]models.Ticket, 0, len(tickets))
	for _, tk := range tickets {
		if tk.DrimsoftUserID == 0 || (viewerID != 0 && tk.DrimsoftUserID == viewerID) {
			out = append(out, tk)
		}
	}
	return out
}

func searchTickets(tickets []models.Ticket, search string) []models.Ticket {
	if strings.TrimSpace(search) == "" {
		return tickets
	}
	out := make([]models.Ticket, 0, len(tickets))
	for _, tk := range tickets {
		if tk.Matches(search) {
			out = append(out, tk)
		}
	}
	return out
}

// paginate slices one page out of tickets. The bounds are checked against
// the page count before any multiplication so huge page numbers from a
// query string come back empty instead of overflowing.
func paginate(tickets []models.Ticket, page, size int) *models.TicketPage {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	total := len(tickets)
	pages := total / size
	if total%size != 0 {
		pages++
	}

	items := []models.Ticket{}
	if page < pages {
		start := page * size
		end := total
		if total-start > size {
			end = start + size
		}
		items = tickets[start:end]
	}

	return &models.TicketPage{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: int64(total),
		TotalPages:    pages,
		HasNext:       page < pages-1,
		HasPrevious:   page > 0,
	}
}

// Get returns one ticket
func (t *TicketsAPI) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := t.c.do(ctx, call{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/tickets/%d", id),
		auth:    authRequired,
		failure: "Could not load ticket",
	}, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Create opens a ticket
func (t *TicketsAPI) Create(ctx context.Context, req models.TicketCreateRequest) (*models.Ticket, error) {
	var ticket models.Ticket
	err := t.c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/tickets",
		body:    req,
		auth:    authRequired,
		failure: "Could not create ticket",
	}, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Answer records a staff answer on a ticket
func (t *TicketsAPI) Answer(ctx context.Context, id int64, req models.TicketAnswerRequest) (*models.Ticket, error) {
	return t.patch(ctx, fmt.Sprintf("/tickets/%d/answer", id), req, "Could not answer ticket")
}

// SetStatus moves a ticket to another status
func (t *TicketsAPI) SetStatus(ctx context.Context, id, statusID int64) (*models.Ticket, error) {
	return t.patch(ctx, fmt.Sprintf("/tickets/%d/status/%d", id, statusID), nil, "Could not update ticket status")
}

// Assign hands a ticket to an internal user
func (t *TicketsAPI) Assign(ctx context.Context, id, userID int64) (*models.Ticket, error) {
	return t.patch(ctx, fmt.Sprintf("/tickets/%d/assign/%d", id, userID), nil, "Could not assign ticket")
}

// MarkRead marks a ticket as read, optionally on behalf of userID
func (t *TicketsAPI) MarkRead(ctx context.Context, id, userID int64) (*models.Ticket, error) {
	body := map[string]any{}
	if userID != 0 {
		body["iddrimsoftuser"] = userID
	}
	return t.patch(ctx, fmt.Sprintf("/tickets/%d/read", id), body, "Could not mark ticket as read")
}

func (t *TicketsAPI) patch(ctx context.Context, path string, body any, failure string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := t.c.do(ctx, call{
		method:  http.MethodPatch,
		path:    path,
		body:    body,
		auth:    authRequired,
		failure: failure,
	}, &ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
