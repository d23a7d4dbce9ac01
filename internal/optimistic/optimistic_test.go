package optimistic

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func newListCell(values ...string) *Cell[[]string] {
	return NewCell(values, func(v []string) []string { return slices.Clone(v) })
}

func TestApplyCommits(t *testing.T) {
	cell := newListCell("a", "b", "c")

	var during []string
	err := Apply(context.Background(), cell,
		func(v []string) []string { return slices.DeleteFunc(v, func(s string) bool { return s == "b" }) },
		func(context.Context) error {
			during = cell.Get()
			return nil
		},
	)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !slices.Equal(during, []string{"a", "c"}) {
		t.Fatalf("mutation must be visible while commit runs, saw %v", during)
	}
	if got := cell.Get(); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestApplyRollsBackExactSnapshot(t *testing.T) {
	cell := newListCell("a", "b", "c")
	errCommit := errors.New("rejected")

	err := Apply(context.Background(), cell,
		func(v []string) []string {
			v[0] = "mutated"
			return v[1:]
		},
		func(context.Context) error { return errCommit },
	)
	if !errors.Is(err, errCommit) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if got := cell.Get(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected original value restored, got %v", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	cell := newListCell("a")
	v := cell.Get()
	v[0] = "z"
	if cell.Get()[0] != "a" {
		t.Fatalf("Get must not alias the stored value")
	}
}

func TestApplyKeepsNewerWriteOnRollback(t *testing.T) {
	cell := newListCell("a", "b", "c")

	err := Apply(context.Background(), cell,
		func(v []string) []string { return v[1:] },
		func(context.Context) error {
			cell.Set([]string{"fresh"})
			return errors.New("rejected")
		},
	)
	if err == nil {
		t.Fatalf("expected commit error")
	}
	if got := cell.Get(); !slices.Equal(got, []string{"fresh"}) {
		t.Fatalf("a write made during commit must survive the rollback, got %v", got)
	}
}
