package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drimsoft/planifika-admin/internal/auth"
	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/models"
	"github.com/drimsoft/planifika-admin/internal/session"
)

// LayoutView is the chrome every protected page renders: who is signed in
// and the menu their role may see
type LayoutView struct {
	Route           string             `json:"route"`
	User            *models.UserRecord `json:"user"`
	Role            *models.Role       `json:"role"`
	RoleName        string             `json:"roleName"`
	IsAdministrator bool               `json:"isAdministrator"`
	IsSupportTeam   bool               `json:"isSupportTeam"`
	Menu            []session.MenuItem `json:"menu"`
}

// SessionView describes the session of the caller
type SessionView struct {
	session.State
	Layout    LayoutView `json:"layout"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Redirect string             `json:"redirect"`
	User     *models.UserRecord `json:"user"`
	Role     *models.Role       `json:"role"`
	UserName string             `json:"userName"`
}

// ProfileView prefills the edit-profile form
type ProfileView struct {
	Layout LayoutView `json:"layout"`
	Name   string     `json:"name"`
}

func (s *Server) layout(c *gin.Context, rs *requestSession) LayoutView {
	ctx := c.Request.Context()
	svc := rs.gate.Service()
	st := rs.gate.State()
	stored, _ := svc.Role(ctx)
	role := session.EffectiveRole(st.User, stored)

	menu := session.Menu(role)
	if menu == nil {
		menu = []session.MenuItem{}
	}

	return LayoutView{
		Route:           rs.route,
		User:            st.User,
		Role:            role,
		RoleName:        role.Label(),
		IsAdministrator: svc.IsAdministrator(ctx),
		IsSupportTeam:   svc.IsSupportTeam(ctx),
		Menu:            menu,
	}
}

// current returns the request session. The gate and session middlewares
// guarantee it exists for every handler below.
func (s *Server) current(c *gin.Context) *requestSession {
	rs, _ := getRequestSession(c)
	return rs
}

func (s *Server) home(c *gin.Context) {
	redirect(c, session.LandingRoute)
}

func (s *Server) getSession(c *gin.Context) {
	rs := s.current(c)
	ctx := c.Request.Context()

	rs.gate.Check(ctx)

	view := SessionView{
		State:  rs.gate.State(),
		Layout: s.layout(c, rs),
	}
	if token, ok := rs.gate.Service().Token(ctx); ok {
		if exp, ok := auth.ExpiresAt(token); ok {
			view.ExpiresAt = &exp
		}
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) loginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"route":  session.LoginRoute,
		"fields": []string{"email", "password"},
	})
}

func (s *Server) login(c *gin.Context) {
	var form forms.LoginForm
	if !s.bind(c, &form) {
		return
	}

	rs := s.current(c)
	res, err := rs.gate.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	s.logger.Info().Str("email", form.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Redirect: rs.nav.Current(),
		User:     res.User,
		Role:     res.Role,
		UserName: res.UserName,
	})
}

func (s *Server) logout(c *gin.Context) {
	rs := s.current(c)
	if err := rs.gate.Logout(c.Request.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirect": rs.nav.Current()})
}

func (s *Server) editProfilePage(c *gin.Context) {
	rs := s.current(c)
	st := rs.gate.State()

	c.JSON(http.StatusOK, ProfileView{
		Layout: s.layout(c, rs),
		Name:   rs.gate.Service().DisplayName(c.Request.Context(), st.User),
	})
}

func (s *Server) updateProfile(c *gin.Context) {
	var form forms.ProfileForm
	if !s.bind(c, &form) {
		return
	}

	rs := s.current(c)
	update := form.Update()
	result, err := rs.gate.UpdateProfile(c.Request.Context(), update)
	if err != nil {
		s.respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"name":    result.Name(update.Name),
		"user":    rs.gate.State().User,
	})
}
