package weekview

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"weekplan/internal/planning"
	"weekplan/internal/stats"
)

// View is the memoized result for one week.
type View struct {
	Week          string          `json:"week"`
	Version       uint64          `json:"version"`
	FilteredTasks []planning.Task `json:"filteredTasks"`
	PPC           stats.PPCResult `json:"ppc"`
}

// Cache memoizes week views by ISO week key. Invalidation always clears every
// entry; there is no per-key eviction.
type Cache struct {
	entries *gocache.Cache
	ttl     time.Duration
}

// NewCache creates a cache. A ttl <= 0 keeps entries until Invalidate.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{entries: gocache.New(gocache.NoExpiration, 0), ttl: gocache.NoExpiration}
	}
	return &Cache{entries: gocache.New(ttl, 2*ttl), ttl: ttl}
}

// Get returns the memoized view for a week key.
func (c *Cache) Get(key string) (View, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return View{}, false
	}
	view, ok := v.(View)
	return view, ok
}

// Put stores a view under its week key.
func (c *Cache) Put(key string, v View) {
	c.entries.Set(key, v, c.ttl)
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	n := c.entries.ItemCount()
	c.entries.Flush()
	if n > 0 {
		log.Debug().Int("entries", n).Msg("Week cache invalidated")
	}
}

// Len returns the number of memoized weeks.
func (c *Cache) Len() int {
	return c.entries.ItemCount()
}
