package server

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/session"
)

const (
	requestIDHeader   = "X-Request-ID"
	requestIDKey      = "request_id"
	requestSessionKey = "session"
)

func setRequestSession(c *gin.Context, rs *requestSession) {
	c.Set(requestSessionKey, rs)
}

// getRequestSession returns the session opened by sessionMiddleware
func getRequestSession(c *gin.Context) (*requestSession, bool) {
	v, exists := c.Get(requestSessionKey)
	if !exists {
		return nil, false
	}

	rs, ok := v.(*requestSession)
	return rs, ok
}

// requestIDMiddleware tags every request with a ULID, reusing the caller's
// id when one is sent
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = ulid.MustNew(ulid.Now(), rand.Reader).String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// sessionMiddleware opens the browser session of the request
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rs, err := s.sessions.open(c)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to open session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			c.Abort()
			return
		}
		setRequestSession(c, rs)
		c.Next()
	}
}

// gateMiddleware runs the session check and redirects when the gate moved
// the request off its route
func (s *Server) gateMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rs, ok := getRequestSession(c)
		if !ok {
			respondWithError(c, s.logger, http.StatusInternalServerError, errors.New("no session"), "Internal server error")
			return
		}

		rs.gate.Check(c.Request.Context())

		if target := rs.nav.Current(); target != rs.route {
			redirect(c, target)
			return
		}
		c.Next()
	}
}

// redirect sends the browser to route. Form submissions are answered with
// 303 so the follow-up request is a GET.
func redirect(c *gin.Context, route string) {
	status := http.StatusFound
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	c.Redirect(status, route)
	c.Abort()
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// respondWithServiceError answers with the status and message matching a
// service or validation error
func (s *Server) respondWithServiceError(c *gin.Context, err error) {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": verr.Fields,
		})
		c.Abort()
		return
	}

	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Int("status", status).Msg("Backend request failed")
		c.JSON(status, gin.H{"error": client.Message(err)})
		c.Abort()
		return
	}
	respondWithError(c, s.logger, status, err, client.Message(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, client.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, client.ErrInvalidCredentials),
		errors.Is(err, client.ErrUnauthorized),
		errors.Is(err, client.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, client.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// bind decodes the request body into form and validates it. It answers the
// request and returns false on failure.
func (s *Server) bind(c *gin.Context, form any) bool {
	if err := c.ShouldBind(form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		c.Abort()
		return false
	}
	if err := s.validator.Validate(form); err != nil {
		s.respondWithServiceError(c, err)
		return false
	}
	return true
}

// pathID parses the :id path parameter
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		c.Abort()
		return 0, false
	}
	return id, true
}

// queryInt reads a non-negative integer query parameter
func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// pageSize reads the size query parameter, capped at maxPageSize
func pageSize(c *gin.Context) int {
	size := queryInt(c, "size", defaultPageSize)
	if size == 0 {
		return defaultPageSize
	}
	return min(size, maxPageSize)
}
