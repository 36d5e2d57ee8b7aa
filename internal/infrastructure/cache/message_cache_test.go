package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache() (*MessageCache, *testClock) {
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMessageCache(DefaultRetention, zerolog.Nop())
	c.now = clock.Now
	return c, clock
}

func msg(channelID int64, id int, text string) domain.CachedMessage {
	return domain.CachedMessage{
		Key:            domain.MessageKey{ChannelID: channelID, ID: id},
		ConversationID: 10,
		Text:           text,
	}
}

func TestMessageCache_PutGet(t *testing.T) {
	c, _ := newTestCache()

	c.Put("alpha", msg(0, 1, "hello"))

	got, ok := c.Get("alpha", domain.MessageKey{ID: 1})
	if !ok || got.Text != "hello" {
		t.Fatalf("Get() = %+v, %v", got, ok)
	}

	if _, ok := c.Get("alpha", domain.MessageKey{ChannelID: 5, ID: 1}); ok {
		t.Error("keys in different channels must not collide")
	}
}

func TestMessageCache_Put_Replaces(t *testing.T) {
	c, _ := newTestCache()

	c.Put("alpha", msg(0, 1, "first"))
	c.Put("alpha", msg(0, 1, "edited"))

	got, _ := c.Get("alpha", domain.MessageKey{ID: 1})
	if got.Text != "edited" {
		t.Errorf("Text = %q, want edited", got.Text)
	}
	if c.Len("alpha") != 1 {
		t.Errorf("Len() = %d, want 1", c.Len("alpha"))
	}
}

func TestMessageCache_AccountIsolation(t *testing.T) {
	c, _ := newTestCache()

	c.Put("alpha", msg(0, 1, "a"))
	c.Put("beta", msg(0, 1, "b"))

	a, _ := c.Get("alpha", domain.MessageKey{ID: 1})
	b, _ := c.Get("beta", domain.MessageKey{ID: 1})
	if a.Text != "a" || b.Text != "b" {
		t.Errorf("got %q and %q", a.Text, b.Text)
	}

	c.DropAccount("alpha")
	if _, ok := c.Get("alpha", domain.MessageKey{ID: 1}); ok {
		t.Error("dropped account should have no entries")
	}
	if _, ok := c.Get("beta", domain.MessageKey{ID: 1}); !ok {
		t.Error("other accounts must not be affected")
	}
}

func TestMessageCache_Retention(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		reachable bool
	}{
		{"one hour", time.Hour, true},
		{"six days", 6 * 24 * time.Hour, true},
		{"just before seven days", DefaultRetention - time.Second, true},
		{"seven days", DefaultRetention, false},
		{"past seven days", DefaultRetention + time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock := newTestCache()
			c.Put("alpha", msg(0, 1, "x"))

			clock.Advance(tt.age)

			if _, ok := c.Get("alpha", domain.MessageKey{ID: 1}); ok != tt.reachable {
				t.Errorf("Get() reachable = %v, want %v", ok, tt.reachable)
			}
		})
	}
}

func TestMessageCache_EvictOlderThan(t *testing.T) {
	c, clock := newTestCache()

	c.Put("alpha", msg(0, 1, "old"))
	clock.Advance(3 * 24 * time.Hour)
	c.Put("alpha", msg(0, 2, "fresh"))
	clock.Advance(5 * 24 * time.Hour)

	evicted := c.EvictOlderThan("alpha", DefaultRetention)
	if evicted != 1 {
		t.Errorf("EvictOlderThan() = %d, want 1", evicted)
	}
	if c.Len("alpha") != 1 {
		t.Errorf("Len() = %d, want 1", c.Len("alpha"))
	}
	if _, ok := c.Get("alpha", domain.MessageKey{ID: 2}); !ok {
		t.Error("fresh entry must survive eviction")
	}
}

func TestMessageCache_Sweep(t *testing.T) {
	c, clock := newTestCache()

	c.Put("alpha", msg(0, 1, "a"))
	c.Put("beta", msg(0, 1, "b"))
	clock.Advance(DefaultRetention)
	c.Put("beta", msg(0, 2, "b2"))

	evicted, remaining := c.Sweep()
	if evicted != 2 || remaining != 1 {
		t.Errorf("Sweep() = %d, %d; want 2, 1", evicted, remaining)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestMessageCache_Remove(t *testing.T) {
	c, _ := newTestCache()

	c.Put("alpha", msg(0, 1, "a"))
	c.Put("alpha", msg(0, 2, "b"))

	c.Remove("alpha", domain.MessageKey{ID: 1}, domain.MessageKey{ID: 3})
	c.Remove("ghost", domain.MessageKey{ID: 1})

	if _, ok := c.Get("alpha", domain.MessageKey{ID: 1}); ok {
		t.Error("removed entry should be absent")
	}
	if c.Len("alpha") != 1 {
		t.Errorf("Len() = %d, want 1", c.Len("alpha"))
	}
}
