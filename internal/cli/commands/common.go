package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drimsoft/planifika-admin/internal/cli/config"
	"github.com/drimsoft/planifika-admin/internal/cli/serverselect"
	"github.com/drimsoft/planifika-admin/internal/client"
	appconfig "github.com/drimsoft/planifika-admin/internal/config"
	"github.com/drimsoft/planifika-admin/internal/forms"
	"github.com/drimsoft/planifika-admin/internal/logger"
	"github.com/drimsoft/planifika-admin/internal/session"
	"github.com/drimsoft/planifika-admin/internal/tokenstore"
)

// Session is what every command works with: the resolved server, its backend
// services and the single auth gate of the CLI process
type Session struct {
	Server   *config.Server
	Services *client.Services
	Gate     *session.Gate
	Nav      *session.RouteNavigator

	// viewer caches the internal id resolved for viewerIdentity
	viewer         int64
	viewerIdentity string
}

// NewSession wires a session for server over the given token backend
func NewSession(server *config.Server, backend appconfig.BackendConfig, tokens tokenstore.Backend) *Session {
	store := tokenstore.New(tokens)
	services := client.NewServices(backend, store)
	nav := session.NewRouteNavigator(session.LoginRoute)

	return &Session{
		Server:   server,
		Services: services,
		Gate:     session.NewGate(session.NewService(services.Auth, store), nav),
		Nav:      nav,
	}
}

// openSession loads planifika.yaml, resolves the server and opens the session
// stored for it
func openSession(serverAlias string) (*Session, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'planifika init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if server.APIBaseURL == "" {
		return nil, fmt.Errorf("api_url is empty for server %q. Please edit %s", server.Alias, config.ConfigFileName)
	}

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	backend := server.Backend(timeout)

	path, err := tokenstore.DefaultSessionPath(server.Alias)
	if err != nil {
		return nil, err
	}

	return NewSession(server, backend, tokenstore.NewCLIBackend(path, backend.APIBaseURL)), nil
}

// enter moves the session to route and runs the auth check. It fails when
// the gate sends the session back to the login route.
func (s *Session) enter(ctx context.Context, route string) error {
	s.Nav.Replace(route)
	s.Gate.Check(ctx)

	if s.Nav.Current() == session.LoginRoute && session.NormalizePath(route) != session.LoginRoute {
		return fmt.Errorf("%w. Please run 'planifika login' first", client.ErrNotAuthenticated)
	}
	return nil
}

// viewerID is the internal idUser of the signed-in user, 0 if unknown. The
// session only knows the identity provider id, so the users list is
// searched once per identity.
func (s *Session) viewerID(ctx context.Context) int64 {
	user := s.Gate.State().User
	if user == nil {
		return 0
	}
	if s.viewerIdentity == user.ID {
		return s.viewer
	}

	id, err := s.Services.Users.ResolveInternalID(ctx, user.ID)
	if err != nil {
		log := logger.GetLogger()
		log.Debug().Err(err).Str("user_id", user.ID).Msg("Could not resolve internal user id")
		return 0
	}
	s.viewer, s.viewerIdentity = id, user.ID
	return id
}

type runOptions struct {
	serverAlias string
	session     *Session
	out         io.Writer
	prompter    Prompter
	validator   *forms.Validator
}

// Option configures how a command runs. Tests use it to inject a session,
// capture output and answer prompts.
type Option func(*runOptions)

// WithServer selects the configured server by alias or URL
func WithServer(alias string) Option {
	return func(o *runOptions) { o.serverAlias = alias }
}

// WithSession uses an already opened session
func WithSession(s *Session) Option {
	return func(o *runOptions) { o.session = s }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(o *runOptions) { o.out = w }
}

// WithPrompter answers interactive prompts
func WithPrompter(p Prompter) Option {
	return func(o *runOptions) { o.prompter = p }
}

func newRunOptions(opts []Option) *runOptions {
	o := &runOptions{
		out:       os.Stdout,
		prompter:  terminalPrompter{},
		validator: forms.New(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *runOptions) open() (*Session, error) {
	if o.session != nil {
		return o.session, nil
	}
	s, err := openSession(o.serverAlias)
	if err != nil {
		return nil, err
	}
	o.session = s
	return s, nil
}

// serverFlag returns the --server persistent flag of the root command
func serverFlag(cmd *cobra.Command) string {
	if f := cmd.Flag("server"); f != nil {
		return f.Value.String()
	}
	return ""
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
