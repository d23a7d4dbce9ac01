package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/quicktech-sms/portal/internal/guard"
	"github.com/quicktech-sms/portal/internal/profile"
	"github.com/quicktech-sms/portal/types"
	"github.com/spf13/pflag"
)

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, "info").Info("hello", "k", "v")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON when not a terminal, got %q", buf.String())
	}
	if line["msg"] != "hello" || line["k"] != "v" {
		t.Fatalf("unexpected record %v", line)
	}

	buf.Reset()
	newLogger(&buf, true, "info").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text output on a terminal, got %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, true, "warn").Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info must be dropped at warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEditFlagsApplyOnlyChanged(t *testing.T) {
	var f editFlags
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	f.register(fs, true)
	if err := fs.Parse([]string{"--phone", "", "--status", "Graduated"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	d := f.apply(fs, profile.Draft{FullName: "Jane Smith", Phone: "555", CourseOfStudy: "Biology", Status: types.StatusActive})
	if d.FullName != "Jane Smith" || d.CourseOfStudy != "Biology" {
		t.Fatalf("unchanged fields must be kept, got %+v", d)
	}
	if d.Phone != "" || d.Status != types.StatusGraduated {
		t.Fatalf("changed fields must apply, got %+v", d)
	}
}

func TestEditFlagsWithoutStatus(t *testing.T) {
	var f editFlags
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	f.register(fs, false)
	if err := fs.Parse([]string{"--status", "Dropped"}); err == nil {
		t.Fatalf("profile edit must not accept --status")
	}
}

func TestRedirectErrorNamesCommand(t *testing.T) {
	err := &RedirectError{Target: guard.RouteLogin, Reason: "not signed in"}
	if got := err.Error(); got != "not signed in; try `portal login`" {
		t.Fatalf("unexpected message %q", got)
	}
	err = &RedirectError{Target: guard.StudentRoute("7"), Reason: "x"}
	if got := err.Error(); got != "x; go to /students/7" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestEveryMenuRouteHasCommand(t *testing.T) {
	for _, role := range []types.Role{types.RoleAdmin, types.RoleStudent} {
		for _, item := range guard.Menu(role) {
			if _, ok := routeCommands[item.Route]; !ok {
				t.Fatalf("menu route %s has no command", item.Route)
			}
		}
	}
}
