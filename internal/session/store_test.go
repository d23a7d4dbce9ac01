package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/validate"
	"github.com/quicktech-sms/portal/types"
)

// fakeAuthority keeps an in-memory user set and mimics the API's messages.
type fakeAuthority struct {
	users     map[string]types.User
	passwords map[string]string
	loginFn   func(ctx context.Context, email, password string) (api.AuthResponse, error)
	calls     int
}

func newFakeAuthority() *fakeAuthority {
	f := &fakeAuthority{users: map[string]types.User{}, passwords: map[string]string{}}
	f.users["admin@quicktech.com"] = types.User{ID: "1", FullName: "Quicktech Admin", Email: "admin@quicktech.com", Role: types.RoleAdmin}
	f.passwords["admin@quicktech.com"] = "QuicktechAdmin2024!"
	f.users["belyse@student.edu"] = types.User{ID: "2", FullName: "Ingabire Belyse", Email: "belyse@student.edu", Role: types.RoleStudent, CourseOfStudy: "Computer Science", EnrollmentYear: 2023, Status: types.StatusActive}
	f.passwords["belyse@student.edu"] = "BelysePassword123!"
	return f
}

func (f *fakeAuthority) Login(ctx context.Context, email, password string) (api.AuthResponse, error) {
	f.calls++
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	user, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return api.AuthResponse{}, &api.Error{StatusCode: 401, Message: "Invalid email or password"}
	}
	return api.AuthResponse{User: user, Token: "mock-jwt-token-" + user.ID}, nil
}

func (f *fakeAuthority) Register(ctx context.Context, req api.RegisterRequest) (types.User, error) {
	f.calls++
	if _, ok := f.users[req.Email]; ok {
		return types.User{}, &api.Error{StatusCode: 409, Message: "Email already exists"}
	}
	user := types.User{
		ID:            strconv.Itoa(len(f.users) + 1),
		FullName:      req.FullName,
		Email:         req.Email,
		Role:          types.RoleStudent,
		CourseOfStudy: req.CourseOfStudy,
		Status:        types.StatusActive,
	}
	f.users[req.Email] = user
	f.passwords[req.Email] = req.Password
	return user, nil
}

func newInitializedStore(t *testing.T, auth Authenticator, storage Storage) *Store {
	t.Helper()
	store := New(auth, storage)
	if st := store.Initialize(); st.Loading {
		t.Fatalf("expected loading to resolve")
	}
	return store
}

func TestInitializeWithEmptyStorage(t *testing.T) {
	store := New(newFakeAuthority(), NewMemoryStorage())
	if st := store.State(); !st.Loading || st.Phase != PhaseInit {
		t.Fatalf("expected init state before Initialize, got %+v", st)
	}

	st := store.Initialize()
	if st.Loading {
		t.Fatalf("expected loading false")
	}
	if st.User != nil || st.Token != "" {
		t.Fatalf("expected no session, got %+v", st)
	}
	if st.Phase != PhaseCleared {
		t.Fatalf("expected cleared phase, got %s", st.Phase)
	}
}

func TestInitializeResolvesOnce(t *testing.T) {
	store := New(newFakeAuthority(), NewMemoryStorage())
	notified := 0
	store.Subscribe(func(State) { notified++ })

	store.Initialize()
	store.Initialize()
	if notified != 1 {
		t.Fatalf("expected a single loading transition, got %d", notified)
	}
}

func TestInitializeRestoresPersistedPair(t *testing.T) {
	storage := NewMemoryStorage()
	raw, _ := json.Marshal(types.User{ID: "2", Email: "belyse@student.edu", Role: types.RoleStudent})
	_ = storage.SetItems(map[string]string{TokenKey: "opaque-token", UserKey: string(raw)})

	auth := newFakeAuthority()
	store := newInitializedStore(t, auth, storage)
	st := store.State()
	if !st.Authenticated() || st.Token != "opaque-token" || st.User.ID != "2" {
		t.Fatalf("expected restored session, got %+v", st)
	}
	if auth.calls != 0 {
		t.Fatalf("initialize must not call the authority")
	}
}

func TestInitializeDropsIncompletePair(t *testing.T) {
	storage := NewMemoryStorage()
	_ = storage.SetItems(map[string]string{TokenKey: "orphan"})

	store := newInitializedStore(t, newFakeAuthority(), storage)
	if store.State().Authenticated() {
		t.Fatalf("token without user must not establish a session")
	}
	if storage.Len() != 0 {
		t.Fatalf("expected orphaned token removed, %d items left", storage.Len())
	}
}

func TestInitializeDropsExpiredJWT(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "2",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	storage := NewMemoryStorage()
	raw, _ := json.Marshal(types.User{ID: "2", Role: types.RoleStudent})
	_ = storage.SetItems(map[string]string{TokenKey: expired, UserKey: string(raw)})

	store := New(newFakeAuthority(), storage, WithClock(func() time.Time { return now }))
	if st := store.Initialize(); st.Authenticated() {
		t.Fatalf("expired token must not restore a session")
	}
	if storage.Len() != 0 {
		t.Fatalf("expected expired session removed from storage")
	}
}

func TestLoginThenLogout(t *testing.T) {
	storage := NewMemoryStorage()
	store := newInitializedStore(t, newFakeAuthority(), storage)

	st, err := store.Login(context.Background(), "admin@quicktech.com", "QuicktechAdmin2024!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !st.Authenticated() || st.User.Role != types.RoleAdmin || st.Phase != PhaseActive {
		t.Fatalf("unexpected state after login: %+v", st)
	}
	if token, ok, _ := storage.Get(TokenKey); !ok || token != "mock-jwt-token-1" {
		t.Fatalf("expected token persisted, got %q", token)
	}

	store.Logout()
	st = store.State()
	if st.User != nil || st.Token != "" {
		t.Fatalf("expected empty session after logout, got %+v", st)
	}
	if storage.Len() != 0 {
		t.Fatalf("expected storage cleared after logout")
	}
}

func TestLoginFailureLeavesSessionUnchanged(t *testing.T) {
	storage := NewMemoryStorage()
	store := newInitializedStore(t, newFakeAuthority(), storage)
	if _, err := store.Login(context.Background(), "belyse@student.edu", "BelysePassword123!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	st, err := store.Login(context.Background(), "admin@quicktech.com", "wrong")
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.User == nil || st.User.ID != "2" || st.Token != "mock-jwt-token-2" {
		t.Fatalf("expected previous session kept, got %+v", st)
	}
}

func TestLoginValidatesBeforeCallingAuthority(t *testing.T) {
	auth := newFakeAuthority()
	store := newInitializedStore(t, auth, NewMemoryStorage())

	_, err := store.Login(context.Background(), " ", "secret")
	if msg, ok := validate.Message(err); !ok || msg != "Email is required" {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.calls != 0 {
		t.Fatalf("validation failures must not reach the authority")
	}
}

func TestLoginTransportFailureReturnsReason(t *testing.T) {
	auth := newFakeAuthority()
	auth.loginFn = func(context.Context, string, string) (api.AuthResponse, error) {
		return api.AuthResponse{}, &api.Error{Message: "Login failed. Please try again.", Err: errors.New("dial tcp: refused")}
	}
	store := newInitializedStore(t, auth, NewMemoryStorage())

	st, err := store.Login(context.Background(), "admin@quicktech.com", "x")
	if err == nil || err.Error() != "Login failed. Please try again." {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Authenticated() {
		t.Fatalf("failed login must not establish a session")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := newFakeAuthority()
	store := newInitializedStore(t, auth, NewMemoryStorage())
	before := len(auth.users)

	_, err := store.Register(context.Background(), RegisterInput{
		Email:           "belyse@student.edu",
		Password:        "another1",
		ConfirmPassword: "another1",
	})
	if err == nil || err.Error() != "Email already exists" {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(auth.users) != before {
		t.Fatalf("user set size changed from %d to %d", before, len(auth.users))
	}
	if store.State().Authenticated() {
		t.Fatalf("failed registration must not establish a session")
	}
}

func TestRegisterEstablishesStudentSession(t *testing.T) {
	storage := NewMemoryStorage()
	store := newInitializedStore(t, newFakeAuthority(), storage)

	st, err := store.Register(context.Background(), RegisterInput{
		FullName:        "Mpore Igor",
		Email:           "igor@student.edu",
		Password:        "IgorPassword456!",
		ConfirmPassword: "IgorPassword456!",
		CourseOfStudy:   "Software Engineering",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !st.Authenticated() || st.User.Role != types.RoleStudent || st.User.Status != types.StatusActive {
		t.Fatalf("unexpected session: %+v", st)
	}
	if storage.Len() != 2 {
		t.Fatalf("expected token and user persisted, got %d items", storage.Len())
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name  string
		input RegisterInput
		want  string
	}{
		{"missing email", RegisterInput{Password: "secret1", ConfirmPassword: "secret1"}, "Email is required"},
		{"malformed email", RegisterInput{Email: "nope", Password: "secret1", ConfirmPassword: "secret1"}, "Enter a valid email address"},
		{"short password", RegisterInput{Email: "a@b.co", Password: "abc", ConfirmPassword: "abc"}, "Password must be at least 6 characters"},
		{"mismatch", RegisterInput{Email: "a@b.co", Password: "secret1", ConfirmPassword: "secret2"}, "Passwords do not match"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := newFakeAuthority()
			store := newInitializedStore(t, auth, NewMemoryStorage())
			_, err := store.Register(context.Background(), tc.input)
			if msg, _ := validate.Message(err); msg != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
			if auth.calls != 0 {
				t.Fatalf("validation failures must not reach the authority")
			}
		})
	}
}

func TestUpdateUserWithoutSessionIsNoop(t *testing.T) {
	storage := NewMemoryStorage()
	store := newInitializedStore(t, newFakeAuthority(), storage)

	name := "Nobody"
	if err := store.UpdateUser(Patch{FullName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.State().User != nil || storage.Len() != 0 {
		t.Fatalf("expected no session and no storage writes")
	}
}

func TestUpdateUserMergesAndPersists(t *testing.T) {
	storage := NewMemoryStorage()
	store := newInitializedStore(t, newFakeAuthority(), storage)
	if _, err := store.Login(context.Background(), "belyse@student.edu", "BelysePassword123!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	phone := "+250 788 000 000"
	cleared := ""
	if err := store.UpdateUser(Patch{Phone: &phone, CourseOfStudy: &cleared}); err != nil {
		t.Fatalf("update: %v", err)
	}

	st := store.State()
	if st.User.Phone != phone || st.User.CourseOfStudy != "" {
		t.Fatalf("patch not applied: %+v", st.User)
	}
	if st.User.FullName != "Ingabire Belyse" || st.User.EnrollmentYear != 2023 {
		t.Fatalf("omitted fields must keep prior values: %+v", st.User)
	}
	if st.Token != "mock-jwt-token-2" {
		t.Fatalf("token must not change, got %q", st.Token)
	}

	raw, _, _ := storage.Get(UserKey)
	var persisted types.User
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode persisted user: %v", err)
	}
	if persisted.Phone != phone {
		t.Fatalf("expected persisted phone %q, got %q", phone, persisted.Phone)
	}
}

func TestStateReturnsCopy(t *testing.T) {
	store := newInitializedStore(t, newFakeAuthority(), NewMemoryStorage())
	if _, err := store.Login(context.Background(), "admin@quicktech.com", "QuicktechAdmin2024!"); err != nil {
		t.Fatalf("login: %v", err)
	}
	st := store.State()
	st.User.FullName = "mutated"
	if store.State().User.FullName == "mutated" {
		t.Fatalf("State must not expose internal user")
	}
}

func TestInvalidateClearsActiveSession(t *testing.T) {
	storage := NewMemoryStorage()
	store := newInitializedStore(t, newFakeAuthority(), storage)
	if _, err := store.Login(context.Background(), "admin@quicktech.com", "QuicktechAdmin2024!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var last State
	store.Subscribe(func(st State) { last = st })
	store.Invalidate(&api.Error{StatusCode: 401, Message: "token expired"})

	if store.State().Authenticated() || storage.Len() != 0 {
		t.Fatalf("expected session cleared")
	}
	if last.Phase != PhaseCleared {
		t.Fatalf("expected subscribers to see the cleared state, got %s", last.Phase)
	}
}
