package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

func TestPendingStore_PutReplaces(t *testing.T) {
	s := NewPendingStore(time.Minute, time.Minute, zerolog.Nop())

	first := &PendingAuth{Account: "alpha", CodeHash: "a"}
	if prev := s.Put(first); prev != nil {
		t.Fatalf("Put() returned %v for empty store", prev)
	}
	if prev := s.Put(&PendingAuth{Account: "alpha", CodeHash: "b"}); prev != first {
		t.Error("Put() should return the replaced sign-in")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestPendingStore_Expiry(t *testing.T) {
	s := NewPendingStore(time.Minute, time.Minute, zerolog.Nop())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Put(&PendingAuth{Account: "alpha", Stage: domain.AuthCodePending})

	if _, err := s.Get("alpha"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if names := s.Expired(); len(names) != 0 {
		t.Errorf("Expired() = %v before TTL", names)
	}

	s.now = func() time.Time { return base.Add(time.Minute) }

	if _, err := s.Get("alpha"); !errors.Is(err, ErrPendingExpired) {
		t.Errorf("Get() error = %v, want ErrPendingExpired", err)
	}
	if names := s.Expired(); len(names) != 1 || names[0] != "alpha" {
		t.Errorf("Expired() = %v", names)
	}
	if p := s.TakeExpired("alpha"); p == nil {
		t.Error("TakeExpired() should remove the expired sign-in")
	}
	if _, err := s.Get("alpha"); !errors.Is(err, ErrNoPendingAuth) {
		t.Errorf("Get() error = %v, want ErrNoPendingAuth", err)
	}
}

func TestPendingStore_TakeExpiredKeepsFresh(t *testing.T) {
	s := NewPendingStore(time.Minute, time.Minute, zerolog.Nop())

	s.Put(&PendingAuth{Account: "alpha"})

	if p := s.TakeExpired("alpha"); p != nil {
		t.Error("fresh sign-in must not be taken")
	}
	if s.Count() != 1 {
		t.Error("fresh sign-in must stay in the store")
	}
}

func TestPendingStore_StopIdempotent(t *testing.T) {
	s := NewPendingStore(time.Minute, time.Millisecond, zerolog.Nop())
	s.Start(func(string) {})

	s.Stop()
	s.Stop()
}
