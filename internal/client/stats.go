package client

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// StatsAPI reads dashboard metrics and chart definitions
type StatsAPI struct {
	c *Client
}

// NewStatsAPI creates the stats service over c
func NewStatsAPI(c *Client) *StatsAPI {
	return &StatsAPI{c: c}
}

// Stats returns the aggregate metrics
func (s *StatsAPI) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	err := s.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/api/stats",
		auth:    authOptional,
		failure: "Could not load stats",
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Chart returns one named chart
func (s *StatsAPI) Chart(ctx context.Context, name string) (*models.ChartData, error) {
	if !slices.Contains(models.Charts(), name) {
		return nil, &APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("Unknown chart %q", name), Kind: ErrNotFound}
	}

	var chart models.ChartData
	err := s.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/api/charts/" + name,
		auth:    authOptional,
		failure: "Could not load chart " + name,
	}, &chart)
	if err != nil {
		return nil, err
	}
	return &chart, nil
}
