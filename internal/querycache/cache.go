// Package querycache keeps each user's task list in memory between change
// notifications. Entries expire after a TTL and are evicted least recently
// used once the size bound is reached; change events invalidate them early.
package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
)

// Recorder receives cache hit and miss notifications.
type Recorder interface {
	CacheHit()
	CacheMiss()
}

type noopRecorder struct{}

func (noopRecorder) CacheHit()  {}
func (noopRecorder) CacheMiss() {}

// Cache is a per-user cache of task lists.
// It implements events.EventHandler.
//
// Every invalidation advances a generation. A list read from the store is
// only stored with Fill when no invalidation for its owner happened since the
// read began, so a slow read never resurrects a stale list.
type Cache struct {
	lru      *expirable.LRU[uuid.UUID, []*domain.Task]
	recorder Recorder
	logger   *slog.Logger

	mu    sync.Mutex
	clock uint64
	epoch uint64
	gens  map[uuid.UUID]uint64
}

// Ensure Cache implements events.EventHandler.
var _ events.EventHandler = (*Cache)(nil)

// New creates a Cache holding at most size user lists for ttl each.
// A nil recorder disables hit/miss accounting.
func New(size int, ttl time.Duration, recorder Recorder, logger *slog.Logger) *Cache {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Cache{
		lru:      expirable.NewLRU[uuid.UUID, []*domain.Task](size, nil, ttl),
		recorder: recorder,
		logger:   logger.With("component", "query_cache"),
		gens:     make(map[uuid.UUID]uint64),
	}
}

// Get returns the cached task list for userID.
func (c *Cache) Get(userID uuid.UUID) ([]*domain.Task, bool) {
	tasks, ok := c.lru.Get(userID)
	if !ok {
		c.recorder.CacheMiss()
		return nil, false
	}
	c.recorder.CacheHit()
	return tasks, true
}

// Set stores a copy of tasks as the list for userID.
func (c *Cache) Set(userID uuid.UUID, tasks []*domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(userID, tasks)
}

// Generation returns the invalidation generation for userID. Take it before
// reading the store and hand it to Fill.
func (c *Cache) Generation(userID uuid.UUID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(userID)
}

// Fill stores tasks as the list for userID unless the list was invalidated
// after generation was taken. It reports whether the list was stored.
func (c *Cache) Fill(userID uuid.UUID, generation uint64, tasks []*domain.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(userID) != generation {
		c.logger.Debug("discarded stale task list", "user_id", userID)
		return false
	}
	c.add(userID, tasks)
	return true
}

// Invalidate drops the list for userID.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock++
	c.gens[userID] = c.clock
	if c.lru.Remove(userID) {
		c.logger.Debug("invalidated task list", "user_id", userID)
	}
}

// InvalidateAll drops every cached list.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock++
	c.epoch = c.clock
	clear(c.gens)
	c.lru.Purge()
	c.logger.Debug("invalidated all task lists")
}

func (c *Cache) generation(userID uuid.UUID) uint64 {
	return max(c.gens[userID], c.epoch)
}

func (c *Cache) add(userID uuid.UUID, tasks []*domain.Task) {
	stored := make([]*domain.Task, len(tasks))
	copy(stored, tasks)
	c.lru.Add(userID, stored)
}

// Len returns the number of cached lists.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// HandleEvent invalidates the owner's list, or every list when the event
// carries no owner.
func (c *Cache) HandleEvent(_ context.Context, event *events.ChangeEvent) error {
	if event.HasOwner() {
		c.Invalidate(event.UserID)
		return nil
	}
	c.InvalidateAll()
	return nil
}
