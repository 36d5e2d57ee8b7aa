package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	accerrors "github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/errors"
)

var testCreds = domain.Credentials{APIID: 1, APIHash: "hash", Phone: "+70000000000"}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestRegistry(t *testing.T) (*Registry, *fakeClock) {
	t.Helper()
	loc := domain.ReportZone(3)
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, loc)}
	r := New(loc, zerolog.Nop(), WithClock(clock.Now))
	if err := r.AddAccount("alpha", testCreds); err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	return r, clock
}

func TestRegistry_AddAccount_Duplicate(t *testing.T) {
	r, _ := newTestRegistry(t)

	err := r.AddAccount("alpha", testCreds)
	if !domain.IsKind(err, domain.KindDuplicateAccount) {
		t.Fatalf("AddAccount() error = %v, want duplicate_account", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistry_AddAccount_Validation(t *testing.T) {
	r := New(time.UTC, zerolog.Nop())

	tests := []struct {
		name    string
		account string
		creds   domain.Credentials
		want    error
	}{
		{"empty name", "", testCreds, accerrors.ErrEmptyName},
		{"bad name", "a b", testCreds, accerrors.ErrInvalidName},
		{"no phone", "beta", domain.Credentials{APIID: 1, APIHash: "h"}, accerrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.AddAccount(tt.account, tt.creds); !errors.Is(err, tt.want) {
				t.Errorf("AddAccount() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistry_UnknownAccount(t *testing.T) {
	r, _ := newTestRegistry(t)

	checks := map[string]error{
		"assign":   r.AssignDestination("ghost", domain.Destination{ChatID: 1}),
		"unassign": r.UnassignDestination("ghost"),
		"remove":   r.RemoveAccount(context.Background(), "ghost"),
		"auth":     r.SetAuthState("ghost", domain.AuthAuthorized),
	}
	_, err := r.RecordNewDialog("ghost", 1)
	checks["record"] = err

	for name, err := range checks {
		if !domain.IsKind(err, domain.KindUnknownAccount) {
			t.Errorf("%s: error = %v, want unknown_account", name, err)
		}
	}
}

func TestRegistry_Destination(t *testing.T) {
	r, _ := newTestRegistry(t)

	if dest, err := r.Destination("alpha"); err != nil || dest != nil {
		t.Fatalf("Destination() = %v, %v; want nil, nil", dest, err)
	}

	if err := r.AssignDestination("alpha", domain.Destination{ChatID: -100, ThreadID: 7}); err != nil {
		t.Fatalf("AssignDestination() error = %v", err)
	}
	dest, _ := r.Destination("alpha")
	if dest == nil || dest.ChatID != -100 || dest.ThreadID != 7 {
		t.Fatalf("Destination() = %+v", dest)
	}

	dest.ChatID = 5
	again, _ := r.Destination("alpha")
	if again.ChatID != -100 {
		t.Error("Destination() must return a copy")
	}

	if err := r.AssignDestination("alpha", domain.Destination{}); !errors.Is(err, accerrors.ErrInvalidDestination) {
		t.Errorf("AssignDestination(zero) error = %v", err)
	}

	if err := r.UnassignDestination("alpha"); err != nil {
		t.Fatalf("UnassignDestination() error = %v", err)
	}
	if dest, _ := r.Destination("alpha"); dest != nil {
		t.Error("destination should be cleared")
	}
}

func TestRegistry_RecordNewDialog_Idempotent(t *testing.T) {
	r, _ := newTestRegistry(t)

	inserted, err := r.RecordNewDialog("alpha", 42)
	if err != nil || !inserted {
		t.Fatalf("first RecordNewDialog() = %v, %v", inserted, err)
	}
	inserted, _ = r.RecordNewDialog("alpha", 42)
	if inserted {
		t.Error("second RecordNewDialog() should report existing conversation")
	}

	if count, _ := r.TodayCount("alpha"); count != 1 {
		t.Errorf("TodayCount() = %d, want 1", count)
	}
}

func TestRegistry_RecordNewDialog_Concurrent(t *testing.T) {
	r, _ := newTestRegistry(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := r.RecordNewDialog("alpha", 99)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Errorf("inserted %d times, want exactly 1", inserted)
	}
	if count, _ := r.TodayCount("alpha"); count != 1 {
		t.Errorf("TodayCount() = %d, want 1", count)
	}
}

func TestRegistry_SeedDialogs(t *testing.T) {
	r, _ := newTestRegistry(t)

	seeded, err := r.SeedDialogs("alpha", []int64{1, 2, 2, 3})
	if err != nil || !seeded {
		t.Fatalf("SeedDialogs() = %v, %v", seeded, err)
	}
	if ok, _ := r.IsInitialized("alpha"); !ok {
		t.Error("account should be initialized after seeding")
	}
	if count, _ := r.TodayCount("alpha"); count != 0 {
		t.Errorf("seeding must not count new dialogs, got %d", count)
	}
	acc, _ := r.Account("alpha")
	if acc.DialogCount != 3 {
		t.Errorf("DialogCount = %d, want 3", acc.DialogCount)
	}

	seeded, _ = r.SeedDialogs("alpha", []int64{4})
	if seeded {
		t.Error("second SeedDialogs() should be a no-op")
	}
	if known, _ := r.HasDialog("alpha", 4); known {
		t.Error("no-op seeding must not add conversations")
	}
	if inserted, _ := r.RecordNewDialog("alpha", 2); inserted {
		t.Error("seeded conversation must not be reported as new")
	}
}

func TestRegistry_RollOver(t *testing.T) {
	r, clock := newTestRegistry(t)
	loc := domain.ReportZone(3)

	_, _ = r.RecordNewDialog("alpha", 1)
	_, _ = r.RecordNewDialog("alpha", 2)

	clock.Set(time.Date(2024, 5, 2, 1, 0, 0, 0, loc))
	_, _ = r.RecordNewDialog("alpha", 3)

	clock.Set(time.Date(2024, 5, 2, 4, 0, 0, 0, loc))
	r.RollOver()

	stats, _ := r.DailyStats("alpha")
	if len(stats) != 1 || stats[0].Day != "2024-05-02" || stats[0].Count != 1 {
		t.Fatalf("DailyStats() = %+v, want only today with carried count", stats)
	}
	for _, id := range []int64{1, 2, 3} {
		if known, _ := r.HasDialog("alpha", id); !known {
			t.Errorf("rollover must keep conversation %d", id)
		}
	}
}

func TestRegistry_RollOver_EmptyDay(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.RollOver()

	stats, _ := r.DailyStats("alpha")
	if len(stats) != 1 || stats[0].Count != 0 {
		t.Errorf("DailyStats() = %+v, want single zero entry", stats)
	}
}

func TestRegistry_RemoveAccount_Hooks(t *testing.T) {
	r, _ := newTestRegistry(t)

	var calls []string
	r.OnDetach(func(_ context.Context, name string) error {
		if _, err := r.Account(name); err != nil {
			t.Error("account must still exist while detaching")
		}
		calls = append(calls, "detach")
		return nil
	})
	r.OnPurge(func(name string) {
		if _, err := r.Account(name); err == nil {
			t.Error("account must be gone when purging")
		}
		calls = append(calls, "purge")
	})

	if err := r.RemoveAccount(context.Background(), "alpha"); err != nil {
		t.Fatalf("RemoveAccount() error = %v", err)
	}
	if len(calls) != 2 || calls[0] != "detach" || calls[1] != "purge" {
		t.Errorf("hook calls = %v", calls)
	}
	if r.Count() != 0 {
		t.Error("account should be removed")
	}
}

func TestRegistry_RemoveAccount_DetachFailureKeepsAccount(t *testing.T) {
	r, _ := newTestRegistry(t)
	_ = r.AssignDestination("alpha", domain.Destination{ChatID: 10})

	purged := false
	r.OnDetach(func(context.Context, string) error {
		return context.DeadlineExceeded
	})
	r.OnPurge(func(string) { purged = true })

	err := r.RemoveAccount(context.Background(), "alpha")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RemoveAccount() error = %v, want deadline exceeded", err)
	}
	if !domain.IsKind(err, domain.KindTransport) {
		t.Errorf("error kind = %s, want transport", domain.KindOf(err))
	}
	if purged {
		t.Error("purge must not run when detach fails")
	}
	acc, err := r.Account("alpha")
	if err != nil {
		t.Fatalf("account should be kept: %v", err)
	}
	if acc.Destination == nil {
		t.Error("account state should be untouched")
	}
}

func TestRegistry_SnapshotRestore(t *testing.T) {
	r, _ := newTestRegistry(t)
	_ = r.AssignDestination("alpha", domain.Destination{ChatID: 10})
	_, _ = r.SeedDialogs("alpha", []int64{5, 6})
	_, _ = r.RecordNewDialog("alpha", 7)
	_ = r.SetAuthState("alpha", domain.AuthCodePending)

	snap := r.Snapshot()

	restored := New(domain.ReportZone(3), zerolog.Nop())
	restored.Restore(snap)

	acc, err := restored.Account("alpha")
	if err != nil {
		t.Fatalf("Account() error = %v", err)
	}
	if acc.AuthState != domain.AuthUnauthorized {
		t.Errorf("pending state should restore as unauthorized, got %s", acc.AuthState)
	}
	if !acc.Initialized || acc.DialogCount != 3 || acc.Destination == nil {
		t.Errorf("restored account = %+v", acc)
	}
	if got := restored.Snapshot()[0].Dialogs; len(got) != 3 || got[2] != 7 {
		t.Errorf("dialog order = %v", got)
	}
}

func TestAdminSet(t *testing.T) {
	s := NewAdminSet(100, zerolog.Nop())

	if !s.IsAdmin(100) || !s.IsMain(100) {
		t.Error("main admin must always be admin")
	}
	if s.IsAdmin(200) {
		t.Error("unknown user must not be admin")
	}

	added, err := s.Add(200)
	if err != nil || !added {
		t.Fatalf("Add() = %v, %v", added, err)
	}
	if added, _ := s.Add(200); added {
		t.Error("repeated Add() should report existing admin")
	}
	if added, _ := s.Add(100); added {
		t.Error("main admin cannot be added")
	}
	if _, err := s.Add(-1); !errors.Is(err, accerrors.ErrInvalidAdminID) {
		t.Errorf("Add(-1) error = %v", err)
	}

	if got := s.List(); len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Errorf("List() = %v", got)
	}
	if got := s.Snapshot(); len(got) != 1 || got[0] != 200 {
		t.Errorf("Snapshot() = %v", got)
	}

	s.Restore([]int64{100, 300})
	if s.IsAdmin(200) || !s.IsAdmin(300) {
		t.Error("Restore() should replace runtime admins")
	}
}

func TestRegistry_DayCount(t *testing.T) {
	r, clock := newTestRegistry(t)

	if _, err := r.RecordNewDialog("alpha", 1); err != nil {
		t.Fatalf("RecordNewDialog() error = %v", err)
	}
	clock.Set(clock.Now().Add(24 * time.Hour))
	if _, err := r.RecordNewDialog("alpha", 2); err != nil {
		t.Fatalf("RecordNewDialog() error = %v", err)
	}

	if got, _ := r.DayCount("alpha", "2024-05-01"); got != 1 {
		t.Errorf("DayCount(2024-05-01) = %d, want 1", got)
	}
	if got, _ := r.DayCount("alpha", "2024-04-30"); got != 0 {
		t.Errorf("DayCount(2024-04-30) = %d, want 0", got)
	}
	if _, err := r.DayCount("ghost", "2024-05-01"); !domain.IsKind(err, domain.KindUnknownAccount) {
		t.Errorf("DayCount(ghost) error = %v, want unknown_account", err)
	}
}
