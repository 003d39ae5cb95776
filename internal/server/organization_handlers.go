package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// OrganizationsView is one page of the organization listing
type OrganizationsView struct {
	Layout       LayoutView               `json:"layout"`
	Search       string                   `json:"search"`
	Page         *models.OrganizationPage `json:"page"`
	MemberCounts map[int64]int            `json:"memberCounts"`
}

func (s *Server) listOrganizations(c *gin.Context) {
	rs := s.current(c)
	ctx := c.Request.Context()
	search := strings.TrimSpace(c.Query("search"))

	page, err := rs.services.Organizations.Page(ctx, queryInt(c, "page", 0), pageSize(c), search)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	ids := make([]int64, 0, len(page.Content))
	for _, org := range page.Content {
		ids = append(ids, org.ID)
	}

	c.JSON(http.StatusOK, OrganizationsView{
		Layout:       s.layout(c, rs),
		Search:       search,
		Page:         page,
		MemberCounts: rs.services.Organizations.MemberCounts(ctx, ids),
	})
}

func (s *Server) getOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs := s.current(c)
	ctx := c.Request.Context()

	org, err := rs.services.Organizations.Get(ctx, id)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	members, err := rs.services.Organizations.Members(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("organization_id", id).Msg("Failed to load organization members")
	}
	if members == nil {
		members = org.Users
	}

	c.JSON(http.StatusOK, gin.H{
		"organization": org,
		"members":      members,
	})
}

func (s *Server) createOrganization(c *gin.Context) {
	var form forms.OrganizationForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	org, err := rs.services.Organizations.Create(c.Request.Context(), form.Input())
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	s.logger.Info().Int64("organization_id", org.ID).Str("name", org.Name).Msg("Organization created")
	c.JSON(http.StatusCreated, org)
}

func (s *Server) updateOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var form forms.OrganizationForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	org, err := rs.services.Organizations.Update(c.Request.Context(), id, form.Input())
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (s *Server) deleteOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs := s.current(c)

	if err := rs.services.Organizations.Delete(c.Request.Context(), id); err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	s.logger.Info().Int64("organization_id", id).Msg("Organization deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
}
