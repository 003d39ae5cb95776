package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/models"
)

// UsersView lists the internal users with the catalogues the edit form
// offers
type UsersView struct {
	Layout   LayoutView            `json:"layout"`
	Users    []models.DrimsoftUser `json:"users"`
	Roles    []models.Role         `json:"roles"`
	Statuses []models.UserStatus   `json:"statuses"`
}

func (s *Server) listUsers(c *gin.Context) {
	rs := s.current(c)

	users, err := rs.services.Users.List(c.Request.Context())
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}
	if users == nil {
		users = []models.DrimsoftUser{}
	}

	c.JSON(http.StatusOK, UsersView{
		Layout:   s.layout(c, rs),
		Users:    users,
		Roles:    models.AvailableRoles(),
		Statuses: models.AvailableUserStatuses(),
	})
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs := s.current(c)

	user, err := rs.services.Users.Get(c.Request.Context(), id)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) createUser(c *gin.Context) {
	var form forms.CreateUserForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)

	user, err := rs.services.Users.Create(c.Request.Context(), form.Request())
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	s.logger.Info().Int64("user_id", user.IDUser).Msg("User created")
	c.JSON(http.StatusCreated, user)
}

// updateUser changes role and status, calling only the endpoints whose
// value changed
func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var form forms.EditUserForm
	if !s.bind(c, &form) {
		return
	}
	rs := s.current(c)
	ctx := c.Request.Context()

	current, err := rs.services.Users.Get(ctx, id)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	if name, ok := form.Rename(current.Name); ok {
		renamed, err := rs.services.Users.Update(ctx, id, map[string]any{"name": name})
		if err != nil {
			s.respondWithServiceError(c, err)
			return
		}
		current.Name = renamed.Name
	}

	updated, err := rs.services.Users.ApplyChanges(ctx, *current, form.RoleID, form.StatusID)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rs := s.current(c)

	if err := rs.services.Users.Delete(c.Request.Context(), id); err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	s.logger.Info().Int64("user_id", id).Msg("User deleted")
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
