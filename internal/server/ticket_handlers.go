package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/models"
)

// TicketsView is one page of the tickets visible to the signed-in user
type TicketsView struct {
	Layout   LayoutView            `json:"layout"`
	Search   string                `json:"search"`
	Page     *models.TicketPage    `json:"page"`
	Summary  models.TicketSummary  `json:"summary"`
	Statuses []models.TicketStatus `json:"statuses"`
}

// viewerID is the internal idUser of the signed-in user, 0 if unknown. The
// session only carries the identity provider id, so it is looked up in the
// users list.
func (s *Server) viewerID(c *gin.Context, rs *requestSession) int64 {
	user := rs.gate.State().User
	if user == nil {
		return 0
	}
	id, err := rs.services.Users.ResolveInternalID(c.Request.Context(), user.ID)
	if err != nil {
		s.logger.Debug().Err(err).Str("user_id", user.ID).Msg("Could not resolve internal user id")
		return 0
	}
	return id
}

func (s *Server) listTickets(c *gin.Context) {
	rs := s.current(c)
	search := strings.TrimSpace(c.Query("search"))

	page, err := rs.services.Tickets.Browse(c.Request.Context(), client.TicketQuery{
		Page:     queryInt(c, "page", 0),
		Size:     pageSize(c),
		Search:   search,
		ViewerID: s.viewerID(c, rs),
	})
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}
	if page.Items == nil {
		page.Items = []models.Ticket{}
	}

	c.JSON(http.StatusOK, TicketsView{
		Layout:   s.layout(c, rs),
		Search:   search,
		Page:     page,
		Summary:  models.SummarizeTickets(page.Items),
		Statuses: models.AvailableTicketStatuses(),
	})
}

func (s *Server) getTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs := s.current(c)

	ticket, err := rs.services.Tickets.Get(c.Request.Context(), id)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (s *Server) createTicket(c *gin.Context) {
	var form forms.TicketCreateForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	ticket, err := rs.services.Tickets.Create(c.Request.Context(), form.Request())
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	s.logger.Info().Int64("ticket_id", ticket.ID).Int64("planifika_user_id", form.PlanifikaUserID).Msg("Ticket created")
	c.JSON(http.StatusCreated, ticket)
}

func (s *Server) answerTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var form forms.TicketAnswerForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	ticket, err := rs.services.Tickets.Answer(c.Request.Context(), id, models.TicketAnswerRequest{
		Answer:         strings.TrimSpace(form.Answer),
		DrimsoftUserID: s.viewerID(c, rs),
	})
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (s *Server) setTicketStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var form forms.TicketStatusForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	ticket, err := rs.services.Tickets.SetStatus(c.Request.Context(), id, form.StatusID)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (s *Server) assignTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var form forms.TicketAssignForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	ticket, err := rs.services.Tickets.Assign(c.Request.Context(), id, form.UserID)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (s *Server) markTicketRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs := s.current(c)

	ticket, err := rs.services.Tickets.MarkRead(c.Request.Context(), id, s.viewerID(c, rs))
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}
