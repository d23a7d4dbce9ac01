//go:build e2e

package e2e

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quicktech-sms/portal/config"
	"github.com/quicktech-sms/portal/internal/api"
	"github.com/quicktech-sms/portal/internal/guard"
	"github.com/quicktech-sms/portal/internal/profile"
	"github.com/quicktech-sms/portal/internal/roster"
	"github.com/quicktech-sms/portal/internal/server"
	"github.com/quicktech-sms/portal/internal/services"
	"github.com/quicktech-sms/portal/internal/session"
	"github.com/quicktech-sms/portal/types"
	"golang.org/x/crypto/bcrypt"
)

var baseURL string

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ts := httptest.NewUnstartedServer(nil)
	baseURL = "http://" + ts.Listener.Addr().String()

	srv, err := server.New(ctx, config.AuthorityConfig{
		JWTSecret: "e2e-secret",
		PublicURL: baseURL,
	}, server.WithServiceOptions(services.WithHashCost(bcrypt.MinCost)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build authority: %v\n", err)
		os.Exit(1)
	}
	ts.Config.Handler = srv.Handler()
	ts.Start()

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "authority not healthy: %v\n", err)
		ts.Close()
		os.Exit(1)
	}

	code := m.Run()

	ts.Close()
	os.Exit(code)
}

// newSession wires a client and a file-backed store the way the CLI does.
func newSession(t *testing.T, path string) (*api.Client, *session.Store) {
	t.Helper()
	client := api.New(baseURL, api.WithTimeout(5*time.Second))
	store := session.New(client, session.NewFileStorage(path))
	client.SetTokenSource(store)
	client.OnUnauthorized(store.Invalidate)
	store.Initialize()
	return client, store
}

func TestStudentJourney(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	email := fmt.Sprintf("student_%d@student.edu", time.Now().UnixNano())

	client, store := newSession(t, path)
	st, err := store.Register(ctx, session.RegisterInput{
		Email:           email,
		Password:        "secret12",
		ConfirmPassword: "secret12",
		FullName:        "E2E Student",
		CourseOfStudy:   "Computer Science",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !st.Authenticated() || st.User.Role != types.RoleStudent {
		t.Fatalf("unexpected state after register: %+v", st)
	}

	g := guard.New(nil, guard.RequireRole(types.RoleAdmin), guard.RedirectTo(guard.RouteLogin))
	if d := g.Evaluate(store.State()); d.Outcome != guard.RedirectLanding || d.Target != guard.RouteDashboard {
		t.Fatalf("students must be sent to the dashboard, got %+v", d)
	}
	if _, err := client.ListStudents(ctx); !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("expected forbidden roster, got %v", err)
	}
	if !store.State().Authenticated() {
		t.Fatalf("403 must not end the session")
	}

	editor := profile.NewEditor(*store.State().User, profile.SelfSaver(client, store))
	d := editor.Draft()
	d.Phone = "+250 788 123 456"
	editor.SetDraft(d)
	if err := editor.SetImage("me.png", []byte("\x89PNG\r\n\x1a\nimage")); err != nil {
		t.Fatalf("set image: %v", err)
	}
	saved, err := editor.Save(ctx)
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if saved.Phone != "+250 788 123 456" || saved.ProfilePicture == "" {
		t.Fatalf("unexpected saved profile %+v", saved)
	}
	if store.State().User.ProfilePicture != saved.ProfilePicture {
		t.Fatalf("session must carry the stored picture")
	}

	resp, err := http.Get(saved.ProfilePicture)
	if err != nil {
		t.Fatalf("fetch avatar: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("avatar status %d", resp.StatusCode)
	}

	_, restored := newSession(t, path)
	if got := restored.State(); !got.Authenticated() || got.User.Phone != saved.Phone {
		t.Fatalf("session must survive a restart, got %+v", got)
	}
	restored.Logout()
	if _, again := newSession(t, path); again.State().Authenticated() {
		t.Fatalf("logout must clear durable storage")
	}
}

func TestAdminRosterJourney(t *testing.T) {
	ctx := context.Background()
	client, store := newSession(t, filepath.Join(t.TempDir(), "session.json"))
	if _, err := store.Login(ctx, "admin@quicktech.com", "QuicktechAdmin2024!"); err != nil {
		t.Fatalf("login: %v", err)
	}

	r := roster.New(client)
	defer r.Close()
	if err := r.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := len(r.Students())
	if before < 6 {
		t.Fatalf("expected the seeded roster, got %d", before)
	}

	created, err := r.Add(ctx, roster.NewStudent{
		FullName: "Roster Journey",
		Email:    fmt.Sprintf("journey_%d@student.edu", time.Now().UnixNano()),
		Course:   "Mathematics",
		Password: "pw123456",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := r.Students(); len(got) != before+1 || got[0].ID != created.ID {
		t.Fatalf("new student must lead the list")
	}

	if err := r.SetStatus(ctx, created.ID, types.StatusGraduated); err != nil {
		t.Fatalf("set status: %v", err)
	}
	fetched, err := client.GetStudent(ctx, created.ID)
	if err != nil || fetched.Status != types.StatusGraduated {
		t.Fatalf("status not stored: %v %+v", err, fetched)
	}

	if err := client.DeleteStudent(ctx, created.ID); err != nil {
		t.Fatalf("delete behind the cache: %v", err)
	}
	snapshot := r.Students()
	if err := r.Remove(ctx, created.ID); !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected not found from the API, got %v", err)
	}
	if got := r.Students(); len(got) != len(snapshot) {
		t.Fatalf("failed delete must roll back, have %d want %d", len(got), len(snapshot))
	}

	target := r.Filtered(roster.Criteria{Search: "igor@student.edu"})
	if len(target) != 1 {
		t.Fatalf("expected one match for igor, got %d", len(target))
	}
	promoted, err := r.Promote(ctx, target[0].ID)
	if err != nil || !promoted.IsAdmin() {
		t.Fatalf("promote: %v %+v", err, promoted)
	}
	if _, ok := r.Get(target[0].ID); ok {
		t.Fatalf("promoted account must leave the roster")
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	storage := session.NewFileStorage(path)
	if err := storage.SetItems(map[string]string{
		session.TokenKey: "not-a-real-token",
		session.UserKey:  `{"id":"1","email":"admin@quicktech.com","role":"admin"}`,
	}); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	client, store := newSession(t, path)
	if !store.State().Authenticated() {
		t.Fatalf("an unexpired token is trusted until the API rejects it")
	}
	if _, err := client.ListStudents(ctx); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if store.State().User != nil {
		t.Fatalf("401 must invalidate the session")
	}
	if _, ok, _ := storage.Get(session.TokenKey); ok {
		t.Fatalf("token must be removed from storage")
	}
}

func waitForHealth(ctx context.Context, url string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
