// Package session holds who is signed in: the current user and bearer token,
// mirrored to durable storage so a restart does not force a new login.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/validate"
	"github.com/quicktech-sms/portal/types"
)

// Phase is the session lifecycle: init until storage has been read, then
// active or cleared.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseActive
	PhaseCleared
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseActive:
		return "active"
	case PhaseCleared:
		return "cleared"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State is a snapshot of the session. User and Token are both set or both
// empty.
type State struct {
	User    *types.User
	Token   string
	Loading bool
	Phase   Phase
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.User != nil && s.Token != ""
}

// Authenticator is the authority that checks credentials and creates
// accounts. *api.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (types.User, error)
}

// Credentials are the transient inputs of a login. They are never stored.
type Credentials struct {
	Email    string `validate:"notblank"`
	Password string `validate:"required"`
}

var credentialMessages = validate.Messages{
	"Email":    "Email is required",
	"Password": "Password is required",
}

// RegisterInput is the register form.
type RegisterInput struct {
	Email           string `validate:"notblank,email"`
	Password        string `validate:"min=6"`
	ConfirmPassword string `validate:"eqfield=Password"`
	FullName        string `validate:"-"`
	Phone           string `validate:"-"`
	CourseOfStudy   string `validate:"-"`
	EnrollmentYear  int    `validate:"-"`
}

var registerMessages = validate.Messages{
	"Email.notblank":  "Email is required",
	"Email.email":     "Enter a valid email address",
	"Password":        "Password must be at least 6 characters",
	"ConfirmPassword": "Passwords do not match",
}

// Store is the single source of truth for the signed-in identity. It is an
// explicit object handed to whoever needs it.
type Store struct {
	auth    Authenticator
	storage Storage
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used to check persisted token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store in the init phase. Call Initialize before use.
func New(auth Authenticator, storage Storage, opts ...Option) *Store {
	s := &Store{
		auth:    auth,
		storage: storage,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		state:   State{Loading: true, Phase: PhaseInit},
		subs:    map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores a persisted session. It makes no network call: a
// persisted token is trusted until an API call rejects it, except a JWT whose
// exp claim has already passed, which is dropped here. Loading becomes false
// exactly once, whatever storage holds.
func (s *Store) Initialize() State {
	s.mu.Lock()
	if s.state.Phase != PhaseInit {
		st := s.snapshot()
		s.mu.Unlock()
		return st
	}

	user, token := s.restore()
	if user != nil {
		s.state = State{User: user, Token: token, Phase: PhaseActive}
	} else {
		s.state = State{Phase: PhaseCleared}
	}
	st := s.snapshot()
	s.mu.Unlock()

	s.notify(st)
	return st
}

// restore reads the persisted pair. A half-written or stale pair is removed
// so storage never holds a token without its user.
func (s *Store) restore() (*types.User, string) {
	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		s.logger.Warn("read persisted token", "error", err)
		return nil, ""
	}
	rawUser, hasUser, err := s.storage.Get(UserKey)
	if err != nil {
		s.logger.Warn("read persisted user", "error", err)
		return nil, ""
	}
	if !hasToken && !hasUser {
		return nil, ""
	}

	discard := func(reason string) (*types.User, string) {
		s.logger.Info("discarding persisted session", "reason", reason)
		if err := s.storage.Remove(TokenKey, UserKey); err != nil {
			s.logger.Warn("remove persisted session", "error", err)
		}
		return nil, ""
	}

	if token == "" || rawUser == "" {
		return discard("incomplete")
	}
	var user types.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == "" {
		return discard("unreadable user")
	}
	if tokenExpired(token, s.now()) {
		return discard("token expired")
	}
	return &user, token
}

// Login checks credentials with the authenticator and, on success, replaces
// the session. On failure the session is unchanged and the error text is the
// reason to show the user.
func (s *Store) Login(ctx context.Context, email, password string) (State, error) {
	if err := validate.Struct(Credentials{Email: email, Password: password}, credentialMessages); err != nil {
		return s.State(), err
	}

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("login rejected", "email", email, "error", err)
		return s.State(), err
	}
	return s.establish(resp.User, resp.Token)
}

// Register creates a student account and signs it in.
func (s *Store) Register(ctx context.Context, in RegisterInput) (State, error) {
	if err := validate.Struct(in, registerMessages); err != nil {
		return s.State(), err
	}

	if _, err := s.auth.Register(ctx, api.RegisterRequest{
		Email:          in.Email,
		Password:       in.Password,
		FullName:       in.FullName,
		Phone:          in.Phone,
		CourseOfStudy:  in.CourseOfStudy,
		EnrollmentYear: in.EnrollmentYear,
	}); err != nil {
		s.logger.Info("register rejected", "email", in.Email, "error", err)
		return s.State(), err
	}

	resp, err := s.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		return s.State(), err
	}
	return s.establish(resp.User, resp.Token)
}

func (s *Store) establish(user types.User, token string) (State, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return s.State(), fmt.Errorf("encode session user: %w", err)
	}

	s.mu.Lock()
	if err := s.storage.SetItems(map[string]string{TokenKey: token, UserKey: string(raw)}); err != nil {
		st := s.snapshot()
		s.mu.Unlock()
		s.logger.Error("persist session", "error", err)
		return st, fmt.Errorf("save session: %w", err)
	}
	s.state = State{User: &user, Token: token, Phase: PhaseActive}
	st := s.snapshot()
	s.mu.Unlock()

	s.logger.Info("session established", "user_id", user.ID, "role", user.Role)
	s.notify(st)
	return st, nil
}

// Logout clears the session in memory and storage. It never fails: storage
// errors are logged, and an absent session is always a safe end state.
func (s *Store) Logout() {
	s.clear("logout")
}

// Invalidate drops the session after the API rejected its token.
func (s *Store) Invalidate(reason error) {
	s.mu.Lock()
	active := s.state.User != nil
	s.mu.Unlock()
	if !active {
		return
	}
	s.logger.Warn("session invalidated", "reason", reason)
	s.clear("unauthorized")
}

func (s *Store) clear(cause string) {
	s.mu.Lock()
	if err := s.storage.Remove(TokenKey, UserKey); err != nil {
		s.logger.Warn("remove persisted session", "cause", cause, "error", err)
	}
	s.state = State{Phase: PhaseCleared}
	st := s.snapshot()
	s.mu.Unlock()

	s.notify(st)
}

// UpdateUser merges p into the signed-in user and re-persists it. It is a
// no-op when nobody is signed in. The token is unchanged.
func (s *Store) UpdateUser(p Patch) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return nil
	}

	updated := p.Apply(*s.state.User)
	raw, err := json.Marshal(updated)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := s.storage.SetItems(map[string]string{UserKey: string(raw)}); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save session: %w", err)
	}
	s.state.User = &updated
	st := s.snapshot()
	s.mu.Unlock()

	s.notify(st)
	return nil
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Token returns the current bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.mu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// snapshot copies the state; callers hold s.mu.
func (s *Store) snapshot() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}
