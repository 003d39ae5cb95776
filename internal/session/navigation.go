package session

import "github.com/drimsoft/planifika-admin/internal/models"

// MenuItem is one entry of the navigation menu
type MenuItem struct {
	Label       string `json:"label"`
	Route       string `json:"route"`
	Description string `json:"description"`
}

var (
	menuDashboard     = MenuItem{Label: "Dashboard", Route: "/dashboard", Description: "Main panel"}
	menuOrganizations = MenuItem{Label: "Organizations", Route: "/organizations", Description: "Manage organizations"}
	menuUsers         = MenuItem{Label: "Users", Route: "/users", Description: "Manage users"}
	menuTickets       = MenuItem{Label: "Tickets", Route: "/tickets", Description: "Support requests"}
	menuAdmins        = MenuItem{Label: "Planifika Admins", Route: "/planifika-admins", Description: "Organization administrators"}
)

// EffectiveRole picks the role shown for a session: the cached user's own
// role when it has one, otherwise the stored role
func EffectiveRole(user *models.UserRecord, stored *models.Role) *models.Role {
	if user != nil && user.Role != nil {
		return user.Role
	}
	return stored
}

// Menu returns the navigation entries available to role. Unknown roles get
// no entries.
func Menu(role *models.Role) []MenuItem {
	if role == nil {
		return nil
	}
	switch role.ID {
	case models.RoleAdministrator:
		return []MenuItem{menuDashboard, menuOrganizations, menuUsers, menuTickets, menuAdmins}
	case models.RoleSupportTeam:
		return []MenuItem{menuDashboard, menuOrganizations, menuTickets, menuAdmins}
	}
	return nil
}
