package server

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/config"
	"github.com/drimsoft/planifika-admin/internal/session"
	"github.com/drimsoft/planifika-admin/internal/tokenstore"
)

const (
	sessionCookieName = "planifika_session"
	// sessionIDKey holds the Redis session id when values live server side
	sessionIDKey = "sid"
)

// requestSession is everything a handler needs to act for one browser
// session during one request
type requestSession struct {
	route    string
	nav      *session.RouteNavigator
	gate     *session.Gate
	services *client.Services
}

// sessionManager opens the session of each request. Values live in the
// encrypted cookie itself or, with Redis, under a random id kept in the
// cookie.
type sessionManager struct {
	cookies *sessions.CookieStore
	redis   redis.Cmdable
	ttl     time.Duration
	backend config.BackendConfig
	logger  zerolog.Logger
}

func newSessionManager(cfg *config.Config, rdb redis.Cmdable, zlog zerolog.Logger) (*sessionManager, error) {
	hashKey, blockKey, err := deriveCookieKeys(cfg.Session.Secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Session.CookieSecure,
		SameSite: parseSameSite(cfg.Session.SameSite),
	}
	store.MaxAge(int(cfg.Session.TTL.Seconds()))

	return &sessionManager{
		cookies: store,
		redis:   rdb,
		ttl:     cfg.Session.TTL,
		backend: cfg.Backend,
		logger:  zlog,
	}, nil
}

// deriveCookieKeys expands the session secret into independent signing and
// encryption keys
func deriveCookieKeys(secret string) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("planifika-admin session cookie"))

	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive cookie keys: %w", err)
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, fmt.Errorf("failed to derive cookie keys: %w", err)
	}
	return hashKey, blockKey, nil
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// open loads the session of the request and builds its gate, positioned at
// the request path
func (m *sessionManager) open(c *gin.Context) (*requestSession, error) {
	sess, err := m.cookies.Get(c.Request, sessionCookieName)
	if err != nil {
		// Tampered, expired or signed with an older secret: start over
		m.logger.Debug().Err(err).Msg("Discarding unreadable session cookie")
	}

	var (
		backend tokenstore.Backend
		opts    []tokenstore.Option
	)
	if m.redis == nil {
		// Browsers drop cookies over 4096 bytes, so only the fields the
		// dashboard reads are kept
		backend = tokenstore.NewCookieBackend(sess, c.Request, c.Writer)
		opts = append(opts, tokenstore.WithCompactUser())
	} else {
		sid, _ := sess.Values[sessionIDKey].(string)
		if sid == "" {
			id, err := ulid.New(ulid.Now(), rand.Reader)
			if err != nil {
				return nil, fmt.Errorf("failed to generate session id: %w", err)
			}
			sid = id.String()
			sess.Values[sessionIDKey] = sid
			if err := sess.Save(c.Request, c.Writer); err != nil {
				return nil, fmt.Errorf("failed to issue session cookie: %w", err)
			}
		}
		backend = tokenstore.NewRedisBackend(m.redis, sid, m.ttl)
	}

	store := tokenstore.New(backend, opts...)
	services := client.NewServices(m.backend, store)
	route := session.NormalizePath(c.Request.URL.Path)
	nav := session.NewRouteNavigator(route)
	gate := session.NewGate(session.NewService(services.Auth, store), nav)

	requestID := c.GetString(requestIDKey)
	gate.Subscribe(func(st session.State) {
		m.logger.Debug().
			Str("request_id", requestID).
			Bool("authenticated", st.IsAuthenticated).
			Bool("loading", st.IsLoading).
			Msg("Session state changed")
	})

	return &requestSession{
		route:    route,
		nav:      nav,
		gate:     gate,
		services: services,
	}, nil
}
