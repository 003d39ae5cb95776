package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/models"
)

// ErrSessionSuperseded is returned by a login that finished after a logout or
// another login changed the session
var ErrSessionSuperseded = errors.New("session changed while the request was in flight")

// State is a snapshot of the Gate
type State struct {
	IsAuthenticated bool               `json:"isAuthenticated"`
	IsLoading       bool               `json:"isLoading"`
	User            *models.UserRecord `json:"user"`
}

// Gate tracks whether the session is authenticated, holds the cached user
// and keeps the navigator off routes the session may not see.
//
// Every operation captures the session epoch and token it started with and
// applies its result only if neither changed. Logout and a successful login
// advance the epoch and cancel in-flight requests.
type Gate struct {
	svc *Service
	nav Navigator

	// writeMu serializes store writes so a logout can never interleave with
	// the persistence of an older result. Held across I/O; mu never is.
	writeMu sync.Mutex

	mu       sync.Mutex
	state    State
	token    string
	epoch    uint64
	checks   int
	nextOp   uint64
	inflight map[uint64]context.CancelFunc
	nextSub  int
	subs     map[int]func(State)
}

// NewGate creates a Gate. It reports loading until the first Check, Login
// or Logout settles the session, so no redirect is taken before then.
func NewGate(svc *Service, nav Navigator) *Gate {
	return &Gate{
		svc:      svc,
		nav:      nav,
		state:    State{IsLoading: true},
		inflight: make(map[uint64]context.CancelFunc),
		subs:     make(map[int]func(State)),
	}
}

// State returns a snapshot of the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Service returns the session service behind the Gate
func (g *Gate) Service() *Service {
	return g.svc
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned function unsubscribes.
func (g *Gate) Subscribe(fn func(State)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Gate) snapshotLocked() State {
	s := g.state
	s.User = g.state.User.Clone()
	return s
}

// publishLocked returns the snapshot and subscribers to notify once mu is
// released
func (g *Gate) publishLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	return g.snapshotLocked(), subs
}

func notify(s State, subs []func(State)) {
	for _, fn := range subs {
		fn(s)
	}
}

// track derives a cancellable context registered as in flight
func (g *Gate) track(ctx context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	id := g.nextOp
	g.nextOp++
	g.inflight[id] = cancel
	g.mu.Unlock()

	return ctx, id, func() {
		g.mu.Lock()
		delete(g.inflight, id)
		g.mu.Unlock()
		cancel()
	}
}

// advanceLocked starts a new session epoch and cancels every in-flight
// operation except keep
func (g *Gate) advanceLocked(keep uint64, hasKeep bool) {
	g.epoch++
	for id, cancel := range g.inflight {
		if hasKeep && id == keep {
			continue
		}
		cancel()
		delete(g.inflight, id)
	}
}

// Check re-reads the session and, with a token, refreshes the user from the
// backend. Backend failures are logged and absorbed: the session stays
// authenticated and the cached user is kept. Redirects are decided against
// the navigator's route at the end of the check.
func (g *Gate) Check(ctx context.Context) {
	ctx, _, done := g.track(ctx)
	defer done()

	g.mu.Lock()
	epoch := g.epoch
	g.checks++
	g.state.IsLoading = true
	st, subs := g.publishLocked()
	g.mu.Unlock()
	notify(st, subs)

	token, hasToken := g.svc.Token(ctx)
	var stored *models.UserRecord
	if hasToken {
		stored, _ = g.svc.StoredUser(ctx)
	}

	g.mu.Lock()
	if g.epoch == epoch {
		g.state.IsAuthenticated = hasToken
		g.token = token
		if !hasToken {
			g.state.User = nil
		} else if g.state.User == nil && stored != nil {
			g.state.User = stored
		}
	}
	st, subs = g.publishLocked()
	g.mu.Unlock()
	notify(st, subs)

	if hasToken {
		g.refreshUser(ctx, epoch, token)
	}

	g.mu.Lock()
	g.checks--
	g.state.IsLoading = g.checks > 0
	st, subs = g.publishLocked()
	g.mu.Unlock()
	notify(st, subs)

	g.Redirect()
}

func (g *Gate) refreshUser(ctx context.Context, epoch uint64, token string) {
	profile, err := g.svc.FetchCurrentUser(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("Session check could not load the current user")
		return
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if !g.current(epoch, token) {
		return
	}
	if err := g.svc.RememberProfile(ctx, profile); err != nil {
		log.Warn().Err(err).Msg("Failed to store profile hints")
	}

	g.mu.Lock()
	if g.epoch != epoch || g.token != token {
		g.mu.Unlock()
		return
	}
	// Keep the cached record unless the identity changed
	if g.state.User == nil || g.state.User.ID != profile.User.ID {
		g.state.User = profile.User.Clone()
	}
	st, subs := g.publishLocked()
	g.mu.Unlock()
	notify(st, subs)
}

func (g *Gate) current(epoch uint64, token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch == epoch && g.token == token
}

// Redirect applies the route rule to the navigator's current route and
// returns the route it moved to, or "" if it stayed put
func (g *Gate) Redirect() string {
	st := g.State()
	route := g.nav.Current()
	target := Decide(st, route)
	if target == "" || target == NormalizePath(route) {
		return ""
	}
	g.nav.Replace(target)
	return target
}

// Login authenticates, persists the session, replaces the cached user and
// navigates to the landing route. On failure the state is left untouched
// and the error is returned as is.
func (g *Gate) Login(ctx context.Context, email, password string) (*client.LoginResult, error) {
	g.mu.Lock()
	epoch := g.epoch
	g.mu.Unlock()

	ctx, id, done := g.track(ctx)
	defer done()

	res, err := g.svc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	g.writeMu.Lock()
	if !g.sameEpoch(epoch) {
		g.writeMu.Unlock()
		return nil, ErrSessionSuperseded
	}
	if err := g.svc.Persist(ctx, res); err != nil {
		g.writeMu.Unlock()
		return nil, err
	}

	g.mu.Lock()
	g.advanceLocked(id, true)
	g.token = res.Token
	g.state.IsAuthenticated = true
	g.state.IsLoading = g.checks > 0
	g.state.User = res.User.Clone()
	st, subs := g.publishLocked()
	g.mu.Unlock()
	g.writeMu.Unlock()

	notify(st, subs)
	g.nav.Replace(LandingRoute)
	return res, nil
}

func (g *Gate) sameEpoch(epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch == epoch
}

// Logout clears the stored session, resets the state and navigates to the
// login route. Calling it without a session is fine.
func (g *Gate) Logout(ctx context.Context) error {
	g.writeMu.Lock()

	g.mu.Lock()
	g.advanceLocked(0, false)
	g.token = ""
	g.state.IsAuthenticated = false
	g.state.IsLoading = g.checks > 0
	g.state.User = nil
	st, subs := g.publishLocked()
	g.mu.Unlock()

	err := g.svc.Logout(ctx)
	g.writeMu.Unlock()

	notify(st, subs)
	g.nav.Replace(LoginRoute)
	return err
}

// UpdateProfile sends a profile change and merges the new display name into
// the cached user. With nothing cached the returned record is adopted. The
// password is never cached. A response that arrives after the session
// changed is returned but not applied.
func (g *Gate) UpdateProfile(ctx context.Context, update client.ProfileUpdate) (ProfileUpdate, error) {
	g.mu.Lock()
	epoch := g.epoch
	g.mu.Unlock()

	token, ok := g.svc.Token(ctx)
	if !ok {
		return ProfileUpdate{}, client.ErrNotAuthenticated
	}

	ctx, _, done := g.track(ctx)
	defer done()

	result, err := g.svc.UpdateProfile(ctx, token, update)
	if err != nil {
		return ProfileUpdate{}, err
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	g.mu.Lock()
	if g.epoch != epoch || (g.token != "" && g.token != token) {
		g.mu.Unlock()
		return result, nil
	}
	merged := result.MergeInto(g.state.User)
	g.mu.Unlock()

	if merged != nil {
		if err := g.svc.RememberUser(ctx, merged); err != nil {
			log.Warn().Err(err).Msg("Failed to store updated profile")
		}
	}

	g.mu.Lock()
	g.state.User = merged
	st, subs := g.publishLocked()
	g.mu.Unlock()
	notify(st, subs)

	return result, nil
}
