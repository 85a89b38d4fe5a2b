package store

import (
	"context"
	"errors"
	"testing"
	"time"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

// runStoreContract exercises the behavior every backend shares.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		_, err := s.Get(ctx, "6f1c1f43-0000-4000-8000-000000000000")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(unknown) err = %v, want ErrNotFound", err)
		}
		if !dferrors.Is(err, dferrors.ErrCodeNotFound) {
			t.Errorf("Get(unknown) code = %s", dferrors.GetCode(err))
		}
	})

	t.Run("put get update", func(t *testing.T) {
		r := NewRecord("crypt", 100, time.Hour)
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, r.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != StatusRunning || got.Progress.Total != 100 || got.GeneratorID != "crypt" {
			t.Errorf("Get = %+v", got)
		}

		r.Status = StatusCompleted
		r.Progress.Completed = 100
		r.Results = &simulation.Results{RunCount: 100, SuccessRate: 1}
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, _ = s.Get(ctx, r.ID)
		if got.Status != StatusCompleted || got.Results == nil || got.Results.RunCount != 100 {
			t.Errorf("updated record = %+v", got)
		}

		if err := s.Delete(ctx, r.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, r.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get after Delete err = %v", err)
		}
		if err := s.Delete(ctx, r.ID); err != nil {
			t.Errorf("second Delete: %v", err)
		}
	})

	t.Run("list and cleanup", func(t *testing.T) {
		older := NewRecord("crypt", 1, time.Hour)
		older.CreatedAt = older.CreatedAt.Add(-time.Minute)
		newer := NewRecord("crypt", 1, time.Hour)
		other := NewRecord("caves", 1, time.Hour)
		expired := NewRecord("crypt", 1, time.Hour)
		expired.ExpiresAt = time.Now().Add(-time.Second)
		for _, r := range []*Record{older, newer, other, expired} {
			if err := s.Put(ctx, r); err != nil {
				t.Fatalf("Put: %v", err)
			}
		}

		got, err := s.List(ctx, ListOptions{GeneratorID: "crypt"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 || got[0].ID != newer.ID || got[1].ID != older.ID {
			t.Errorf("List(crypt) = %v, want [newer older]", ids(got))
		}
		if got, _ := s.List(ctx, ListOptions{Limit: 1}); len(got) != 1 {
			t.Errorf("List(limit 1) returned %d records", len(got))
		}
		if _, err := s.Get(ctx, expired.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(expired) err = %v, want ErrNotFound", err)
		}

		n, err := s.Cleanup(ctx)
		if err != nil {
			t.Fatalf("Cleanup: %v", err)
		}
		if n != 1 {
			t.Errorf("Cleanup removed %d, want 1", n)
		}
	})
}

func ids(rs []*Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	runStoreContract(t, s)

	if _, err := s.Get(context.Background(), "../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(path traversal) err = %v, want ErrNotFound", err)
	}
	if err := s.Put(context.Background(), &Record{ID: "not-a-uuid"}); err == nil {
		t.Error("Put with invalid id should fail")
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := NewRecord("", 10, 0)
	s.Put(ctx, r)

	r.Status = StatusFailed
	got, _ := s.Get(ctx, r.ID)
	if got.Status != StatusRunning {
		t.Errorf("stored status = %s, want running (callers must Put to update)", got.Status)
	}
	if time.Until(got.ExpiresAt) < DefaultTTL-time.Minute {
		t.Errorf("zero ttl should default to %v, expires %v", DefaultTTL, got.ExpiresAt)
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		s    Status
		want bool
	}{
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusCancelled, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.s.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.s, got, tt.want)
		}
	}
}
