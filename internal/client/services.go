package client

import (
	"github.com/drimsoft/planifika-admin/internal/config"
)

// Services bundles every backend service the dashboard uses
type Services struct {
	Auth          *AuthAPI
	Users         *UsersAPI
	Organizations *OrganizationsAPI
	Tickets       *TicketsAPI
	Planifika     *PlanifikaAPI
	Stats         *StatsAPI
}

// NewServices builds the services for cfg. tokens supplies the staff
// session token.
func NewServices(cfg config.BackendConfig, tokens TokenSource) *Services {
	common := []Option{WithTimeout(cfg.Timeout)}
	withTokens := append([]Option{WithTokenSource(tokens)}, common...)
	tunnelled := append([]Option{WithHeader(NgrokSkipHeader, "true")}, withTokens...)

	core := New(cfg.APIBaseURL, withTokens...)
	planifika := New(cfg.PlanifikaUsersURL, append(ServiceKeyOptions(cfg.PlanifikaServiceRoleKey), common...)...)

	return &Services{
		Auth:          NewAuthAPI(core),
		Users:         NewUsersAPI(core),
		Organizations: NewOrganizationsAPI(New(cfg.OrganizationsURL, tunnelled...)),
		Tickets:       NewTicketsAPI(New(cfg.TicketsURL, tunnelled...)),
		Planifika:     NewPlanifikaAPI(planifika),
		Stats:         NewStatsAPI(New(cfg.StatsURL, common...)),
	}
}
