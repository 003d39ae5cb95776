package tokenstore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

// CookieBackend keeps values in a gorilla session, normally a signed and
// encrypted browser cookie. Every write re-issues the cookie on w, so writes
// must happen before the response body is sent.
type CookieBackend struct {
	session *sessions.Session
	r       *http.Request
	w       http.ResponseWriter
}

// NewCookieBackend binds a session to the request/response pair it was
// loaded from
func NewCookieBackend(session *sessions.Session, r *http.Request, w http.ResponseWriter) *CookieBackend {
	return &CookieBackend{session: session, r: r, w: w}
}

func (c *CookieBackend) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.session.Values[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("session value %s has unexpected type %T", key, v)
	}
	return s, true, nil
}

func (c *CookieBackend) Set(_ context.Context, values map[string]string) error {
	for k, v := range values {
		c.session.Values[k] = v
	}
	return c.save()
}

func (c *CookieBackend) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.session.Values, k)
	}
	return c.save()
}

func (c *CookieBackend) save() error {
	if err := c.session.Save(c.r, c.w); err != nil {
		return fmt.Errorf("failed to persist session cookie: %w", err)
	}
	return nil
}
