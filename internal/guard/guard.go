// Package guard gates screens by session presence and role.
package guard

import (
	"fmt"
	"sync"

	"github.com/quicktech-sms/portal/internal/session"
	"github.com/quicktech-sms/portal/types"
)

// Outcome is what a protected screen should do.
type Outcome int

const (
	// Pending means the session is still loading: show a neutral state and
	// make no redirect decision.
	Pending Outcome = iota
	// Allow means the screen may render.
	Allow
	// RedirectAnonymous means nobody is signed in.
	RedirectAnonymous
	// RedirectLanding means the user lacks the required role.
	RedirectLanding
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectAnonymous:
		return "redirect-anonymous"
	case RedirectLanding:
		return "redirect-landing"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Decision is the guard verdict for one state.
type Decision struct {
	Outcome Outcome
	Target  Route
}

// Renders reports whether protected content may be shown.
func (d Decision) Renders() bool {
	return d.Outcome == Allow
}

// Decide maps a session state and optional required role to a decision.
// An empty requiredRole admits any signed-in user.
func Decide(st session.State, requiredRole types.Role, anonymous Route) Decision {
	if st.Loading {
		return Decision{Outcome: Pending}
	}
	if st.User == nil {
		return Decision{Outcome: RedirectAnonymous, Target: anonymous}
	}
	if requiredRole != "" && st.User.Role != requiredRole {
		return Decision{Outcome: RedirectLanding, Target: LandingFor(st.User.Role)}
	}
	return Decision{Outcome: Allow}
}

// Navigator performs a redirect.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(to Route)

func (f NavigatorFunc) Navigate(to Route) { f(to) }

// Guard wraps one protected screen. It redirects once per transition into a
// disallowed state rather than on every evaluation.
type Guard struct {
	nav          Navigator
	requiredRole types.Role
	anonymous    Route

	mu         sync.Mutex
	redirected *Decision
	last       Decision
	state      *session.State
}

// Option configures a Guard.
type Option func(*Guard)

// RequireRole restricts the screen to role.
func RequireRole(role types.Role) Option {
	return func(g *Guard) { g.requiredRole = role }
}

// RedirectTo overrides the anonymous landing route.
func RedirectTo(route Route) Option {
	return func(g *Guard) { g.anonymous = route }
}

// New returns a guard that redirects through nav.
func New(nav Navigator, opts ...Option) *Guard {
	g := &Guard{nav: nav, anonymous: RouteHome}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRequiredRole changes the role requirement and re-decides against the
// last evaluated state, redirecting if that state is now disallowed.
func (g *Guard) SetRequiredRole(role types.Role) {
	g.mu.Lock()
	g.requiredRole = role
	if g.state == nil {
		g.mu.Unlock()
		return
	}
	d, fire := g.decideLocked(*g.state)
	g.mu.Unlock()

	g.navigate(d, fire)
}

// Evaluate decides for st and fires the redirect if this is a new
// disallowed decision.
func (g *Guard) Evaluate(st session.State) Decision {
	g.mu.Lock()
	g.state = &st
	d, fire := g.decideLocked(st)
	g.mu.Unlock()

	g.navigate(d, fire)
	return d
}

func (g *Guard) decideLocked(st session.State) (Decision, bool) {
	d := Decide(st, g.requiredRole, g.anonymous)
	g.last = d

	fire := false
	switch d.Outcome {
	case RedirectAnonymous, RedirectLanding:
		if g.redirected == nil || *g.redirected != d {
			g.redirected = &d
			fire = true
		}
	case Allow:
		g.redirected = nil
	}
	return d, fire
}

func (g *Guard) navigate(d Decision, fire bool) {
	if fire && g.nav != nil {
		g.nav.Navigate(d.Target)
	}
}

// Last returns the most recent decision.
func (g *Guard) Last() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Watch evaluates the store's current state and re-evaluates on every
// change. The returned function stops watching.
func (g *Guard) Watch(store *session.Store) func() {
	unsubscribe := store.Subscribe(func(st session.State) { g.Evaluate(st) })
	g.Evaluate(store.State())
	return unsubscribe
}
