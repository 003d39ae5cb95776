package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/models"
)

// DashboardView is the landing page. Stats and charts fail independently;
// a failed part is reported in its error field and the rest still renders.
type DashboardView struct {
	Layout      LayoutView                   `json:"layout"`
	Stats       *models.Stats                `json:"stats"`
	StatsError  string                       `json:"statsError,omitempty"`
	Charts      map[string]*models.ChartData `json:"charts"`
	ChartErrors map[string]string            `json:"chartErrors,omitempty"`
}

func (s *Server) dashboard(c *gin.Context) {
	rs := s.current(c)
	ctx := c.Request.Context()

	view := DashboardView{
		Layout: s.layout(c, rs),
		Charts: make(map[string]*models.ChartData),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := rs.services.Stats.Stats(gctx)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to load dashboard stats")
			view.StatsError = client.Message(err)
			return nil
		}
		view.Stats = stats
		return nil
	})
	for _, name := range models.Charts() {
		g.Go(func() error {
			chart, err := rs.services.Stats.Chart(gctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn().Err(err).Str("chart", name).Msg("Failed to load chart")
				if view.ChartErrors == nil {
					view.ChartErrors = make(map[string]string)
				}
				view.ChartErrors[name] = client.Message(err)
				return nil
			}
			view.Charts[name] = chart
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, view)
}

func (s *Server) getChart(c *gin.Context) {
	rs := s.current(c)

	chart, err := rs.services.Stats.Chart(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

func (s *Server) listPlanifikaAdmins(c *gin.Context) {
	rs := s.current(c)

	admins, err := rs.services.Planifika.AdminsWithOrganizations(c.Request.Context(), rs.services.Organizations)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}
	if admins == nil {
		admins = []client.PlanifikaAdmin{}
	}

	c.JSON(http.StatusOK, gin.H{
		"layout": s.layout(c, rs),
		"admins": admins,
	})
}
