package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quicktech-sms/portal/config"
	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/guard"
	"github.com/quicktech-sms/portal/internal/session"
	"github.com/quicktech-sms/portal/internal/telemetry"
	"github.com/quicktech-sms/portal/types"
	"github.com/spf13/cobra"
)

// app is the client side of the portal, wired for one command run.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *api.Client
	session  *session.Store
	shutdown telemetry.Shutdown
}

func newApp(cmd *cobra.Command) *app {
	cfg := config.LoadConfig()
	if rootFlags.apiURL != "" {
		cfg.Client.APIBaseURL = rootFlags.apiURL
	}
	if rootFlags.sessionFile != "" {
		cfg.Client.SessionFile = rootFlags.sessionFile
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}

	logger := newCommandLogger(cfg.LogLevel).With("command", cmd.CommandPath())
	shutdown := telemetry.Setup(cmd.Context(), cfg.Telemetry, "portal-cli", logger)

	client := api.New(cfg.Client.APIBaseURL,
		api.WithTimeout(cfg.Client.RequestTimeout),
		api.WithLogger(logger),
	)
	store := session.New(client, session.NewFileStorage(cfg.Client.SessionFile), session.WithLogger(logger))
	client.SetTokenSource(store)
	client.OnUnauthorized(store.Invalidate)

	return &app{cfg: cfg, logger: logger, client: client, session: store, shutdown: shutdown}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.shutdown(ctx)
}

// RedirectError is how a guarded command reports that the screen would
// have redirected elsewhere.
type RedirectError struct {
	Target guard.Route
	Reason string
}

func (e *RedirectError) Error() string {
	if next, ok := routeCommands[e.Target]; ok {
		return fmt.Sprintf("%s; try `%s`", e.Reason, next)
	}
	return fmt.Sprintf("%s; go to %s", e.Reason, e.Target)
}

var routeCommands = map[guard.Route]string{
	guard.RouteLogin:     "portal login",
	guard.RouteRegister:  "portal register",
	guard.RouteDashboard: "portal dashboard",
	guard.RouteProfile:   "portal profile show",
	guard.RouteStudents:  "portal students list",
}

// enter restores the session and runs the route guard for a screen that
// needs role, or any signed-in user when role is empty.
func (a *app) enter(role types.Role) (types.User, error) {
	g := guard.New(guard.NavigatorFunc(func(to guard.Route) { a.logger.Debug("redirect", "to", to) }),
		guard.RequireRole(role),
		guard.RedirectTo(guard.RouteLogin),
	)

	st := a.session.Initialize()
	d := g.Evaluate(st)
	switch d.Outcome {
	case guard.Allow:
		return *st.User, nil
	case guard.RedirectAnonymous:
		return types.User{}, &RedirectError{Target: d.Target, Reason: "not signed in"}
	default:
		return types.User{}, &RedirectError{Target: d.Target, Reason: fmt.Sprintf("not available to %s accounts", st.User.Role)}
	}
}

// run wraps a command body with app setup and teardown.
func run(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd)
		defer a.close()
		return fn(cmd, a, args)
	}
}
