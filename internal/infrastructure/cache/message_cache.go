package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// DefaultRetention is how long a message stays recoverable after it was cached
const DefaultRetention = 7 * 24 * time.Hour

// MessageCache keeps recent messages per account so deleted ones can be reconstructed.
// Entries are kept in insertion order, which lets age eviction stop at the first fresh entry.
type MessageCache struct {
	data      map[string]*accountMessages
	mu        sync.RWMutex
	retention time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// accountMessages holds cached messages for a single account
type accountMessages struct {
	order *list.List                          // Oldest at back
	index map[domain.MessageKey]*list.Element // Fast lookup by key
}

type entry struct {
	msg      domain.CachedMessage
	storedAt time.Time
}

// Option configures a MessageCache
type Option func(*MessageCache)

// WithClock overrides the time source used for entry ages
func WithClock(now func() time.Time) Option {
	return func(c *MessageCache) {
		c.now = now
	}
}

// NewMessageCache creates a new MessageCache instance
func NewMessageCache(retention time.Duration, logger zerolog.Logger, opts ...Option) *MessageCache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	c := &MessageCache{
		data:      make(map[string]*accountMessages),
		retention: retention,
		now:       time.Now,
		logger:    logger.With().Str("component", "message_cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Retention returns the configured retention period
func (c *MessageCache) Retention() time.Duration {
	return c.retention
}

// Put stores a message, replacing any previous entry with the same key
func (c *MessageCache) Put(account string, msg domain.CachedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	am, exists := c.data[account]
	if !exists {
		am = &accountMessages{
			order: list.New(),
			index: make(map[domain.MessageKey]*list.Element),
		}
		c.data[account] = am
	}

	if elem, found := am.index[msg.Key]; found {
		am.order.Remove(elem)
	}
	am.index[msg.Key] = am.order.PushFront(&entry{msg: msg, storedAt: c.now()})
}

// Get returns a cached message. Entries past retention are treated as absent.
func (c *MessageCache) Get(account string, key domain.MessageKey) (domain.CachedMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	am, exists := c.data[account]
	if !exists {
		return domain.CachedMessage{}, false
	}
	elem, found := am.index[key]
	if !found {
		return domain.CachedMessage{}, false
	}

	e := elem.Value.(*entry)
	if c.now().Sub(e.storedAt) >= c.retention {
		return domain.CachedMessage{}, false
	}
	return e.msg, true
}

// Remove deletes entries by key
func (c *MessageCache) Remove(account string, keys ...domain.MessageKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	am, exists := c.data[account]
	if !exists {
		return
	}

	for _, key := range keys {
		if elem, found := am.index[key]; found {
			am.order.Remove(elem)
			delete(am.index, key)
		}
	}
}

// EvictOlderThan removes entries of one account cached at least age ago and returns how many were removed
func (c *MessageCache) EvictOlderThan(account string, age time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	am, exists := c.data[account]
	if !exists {
		return 0
	}
	return c.evict(am, c.now().Add(-age))
}

// Sweep evicts entries past retention for every account
func (c *MessageCache) Sweep() (evicted, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.retention)
	for account, am := range c.data {
		evicted += c.evict(am, cutoff)
		if am.order.Len() == 0 {
			delete(c.data, account)
			continue
		}
		remaining += am.order.Len()
	}

	if evicted > 0 {
		c.logger.Debug().
			Int("evicted", evicted).
			Int("remaining", remaining).
			Msg("expired messages evicted")
	}
	return evicted, remaining
}

// evict must be called with mu held
func (c *MessageCache) evict(am *accountMessages, cutoff time.Time) int {
	evicted := 0
	for elem := am.order.Back(); elem != nil; elem = am.order.Back() {
		e := elem.Value.(*entry)
		if e.storedAt.After(cutoff) {
			break
		}
		am.order.Remove(elem)
		delete(am.index, e.msg.Key)
		evicted++
	}
	return evicted
}

// DropAccount removes all entries of an account
func (c *MessageCache) DropAccount(account string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, account)
}

// Len returns the number of cached messages of an account
func (c *MessageCache) Len(account string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	am, exists := c.data[account]
	if !exists {
		return 0
	}
	return am.order.Len()
}

// Size returns the number of cached messages across all accounts
func (c *MessageCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, am := range c.data {
		total += am.order.Len()
	}
	return total
}
