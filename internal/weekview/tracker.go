package weekview

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"weekplan/internal/planning"
	"weekplan/internal/stats"
)

// SaveFunc performs a store round-trip and returns the canonical collection.
type SaveFunc func(ctx context.Context) ([]planning.Task, error)

// Tracker owns the task collection of the active site and the week cache
// derived from it.
//
// Invalidation contract: the cache is cleared in full whenever the collection
// is replaced (SetTasks, Commit) or the active site changes (SetSite). Within
// one collection version, week views are served from the cache.
type Tracker struct {
	mu      sync.Mutex
	siteID  string
	tasks   []planning.Task
	version uint64
	cache   *Cache
}

// NewTracker creates a tracker. A nil cache gets a non-expiring one.
func NewTracker(cache *Cache) *Tracker {
	if cache == nil {
		cache = NewCache(0)
	}
	return &Tracker{cache: cache}
}

// SetSite switches the active site. Switching drops the collection and the cache.
func (t *Tracker) SetSite(siteID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.siteID == siteID {
		return false
	}
	t.siteID = siteID
	t.tasks = nil
	t.version++
	t.cache.Invalidate()
	log.Debug().Str("site", siteID).Msg("Active site changed")
	return true
}

// Site returns the active site id.
func (t *Tracker) Site() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.siteID
}

// SetTasks replaces the collection and invalidates every cached week.
func (t *Tracker) SetTasks(tasks []planning.Task) {
	snapshot := slices.Clone(tasks)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks = snapshot
	t.version++
	t.cache.Invalidate()
}

// Tasks returns a copy of the current collection.
func (t *Tracker) Tasks() []planning.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.tasks)
}

// Task looks up a task by id.
func (t *Tracker) Task(id string) (planning.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, task := range t.tasks {
		if task.ID == id {
			return task.Clone(), true
		}
	}
	return planning.Task{}, false
}

// Version identifies the current collection; it changes on every replacement.
func (t *Tracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// CacheLen reports how many weeks are memoized.
func (t *Tracker) CacheLen() int {
	return t.cache.Len()
}

// View returns the filtered tasks and PPC of the week containing week.
// Only the default ordering is memoized; other sorts re-order a copy of it.
func (t *Tracker) View(week time.Time, sort SortKey) View {
	key := planning.WeekKey(week)

	t.mu.Lock()
	tasks, version := t.tasks, t.version
	cached, hit := t.cache.Get(key)
	t.mu.Unlock()

	var v View
	if hit && cached.Version == version {
		log.Debug().Str("week", key).Msg("Week cache hit")
		v = cached
	} else {
		log.Debug().Str("week", key).Uint64("version", version).Msg("Week cache miss, recomputing")
		filtered := FilterByWeek(tasks, week)
		v = View{
			Week:          key,
			Version:       version,
			FilteredTasks: filtered,
			PPC:           stats.Aggregate(filtered),
		}
		t.mu.Lock()
		// A collection replaced mid-computation must not be shadowed by this result.
		if t.version == version {
			t.cache.Put(key, v)
		}
		t.mu.Unlock()
	}

	if sort != SortDefault {
		sorted := slices.Clone(v.FilteredTasks)
		SortTasks(sorted, sort)
		v.FilteredTasks = sorted
	}
	return v
}

// Commit runs a store round-trip and installs the returned collection. A failed
// save leaves both the collection and the cache untouched.
func (t *Tracker) Commit(ctx context.Context, save SaveFunc) error {
	tasks, err := save(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Save failed, keeping cached week views")
		return err
	}
	t.SetTasks(tasks)
	return nil
}
