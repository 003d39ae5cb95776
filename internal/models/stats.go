package models

import "encoding/json"

// Stats are the aggregate metrics shown on the dashboard landing page
type Stats struct {
	TotalUsersPlanifika int64   `json:"total_users_planifika"`
	TotalUsersDrimsoft  int64   `json:"total_users_drimsoft"`
	TotalProjects       int64   `json:"total_projects"`
	TotalTasks          int64   `json:"total_tasks"`
	TotalTickets        int64   `json:"total_tickets"`
	TotalSubscriptions  int64   `json:"total_subscriptions"`
	TotalRevenue        float64 `json:"total_revenue"`
}

// ChartData is a chart definition passed through to the renderer untouched
type ChartData struct {
	Data   []json.RawMessage `json:"data"`
	Layout json.RawMessage   `json:"layout"`
}

// Chart names served by the stats API
const (
	ChartProjectsStatus          = "projects-status"
	ChartTasksStatus             = "tasks-status"
	ChartTicketsStatus           = "tickets-status"
	ChartMethodologyDistribution = "methodology-distribution"
	ChartRevenueTimeline         = "revenue-timeline"
	ChartSubscriptionsStatus     = "subscriptions-status"
)

// Charts lists every chart the dashboard renders, in display order
func Charts() []string {
	return []string{
		ChartProjectsStatus,
		ChartTasksStatus,
		ChartTicketsStatus,
		ChartMethodologyDistribution,
		ChartRevenueTimeline,
		ChartSubscriptionsStatus,
	}
}
