package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
	"weekplan/internal/stats"
	"weekplan/internal/store"
	"weekplan/internal/weekview"
)

var (
	// ErrUnknownSite is returned when the requested site is not in the store.
	ErrUnknownSite = errors.New("unknown site")
	// ErrNoActiveSite is returned by operations that need Activate first.
	ErrNoActiveSite = errors.New("no active site")
	// ErrUnknownTask is returned when a task id is not in the active collection.
	ErrUnknownTask = errors.New("unknown task")
)

// Options tunes a Service.
type Options struct {
	CriticalDays     int
	MaxCalendarWeeks int
	CacheTTL         time.Duration
}

// CalendarView is the site calendar with its activities and per-week summaries.
type CalendarView struct {
	Site        planning.Site                  `json:"site"`
	Weeks       []calendar.WeekBucket          `json:"weeks"`
	Activities  map[string][]calendar.Activity `json:"activities"`
	Summaries   []calendar.WeekSummary         `json:"summaries"`
	CurrentWeek int                            `json:"currentWeek"`
}

// Service binds a record store to the week tracker and the calendar mapper
// for one active site at a time.
type Service struct {
	store     store.Store
	opts      Options
	tracker   *weekview.Tracker
	scheduler *weekview.Scheduler
	mapper    calendar.Mapper

	mu         sync.RWMutex
	site       planning.Site
	activities []calendar.Activity
}

// NewService creates a service over st.
func NewService(st store.Store, opts Options) *Service {
	if opts.CriticalDays <= 0 {
		opts.CriticalDays = calendar.DefaultCriticalDays
	}
	if opts.MaxCalendarWeeks <= 0 {
		opts.MaxCalendarWeeks = calendar.DefaultMaxWeeks
	}
	tracker := weekview.NewTracker(weekview.NewCache(opts.CacheTTL))
	return &Service{
		store:     st,
		opts:      opts,
		tracker:   tracker,
		scheduler: weekview.NewScheduler(tracker),
	}
}

// Tracker exposes the week tracker, e.g. for the store watcher.
func (s *Service) Tracker() *weekview.Tracker {
	return s.tracker
}

// Scheduler exposes the background week recomputation.
func (s *Service) Scheduler() *weekview.Scheduler {
	return s.scheduler
}

// Site returns the active site.
func (s *Service) Site() planning.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site
}

// Activate loads siteID and makes it the active site. The site, its tasks and
// its activities are read concurrently.
func (s *Service) Activate(ctx context.Context, siteID string) error {
	var (
		site  planning.Site
		recs  []planning.Record
		acts  []calendar.Activity
		group errgroup.Group
	)
	group.Go(func() error {
		var err error
		site, err = s.store.Site(ctx, siteID)
		return err
	})
	group.Go(func() error {
		var err error
		recs, err = s.store.Tasks(ctx, siteID)
		return err
	})
	group.Go(func() error {
		var err error
		acts, err = s.store.Activities(ctx, siteID)
		return err
	})
	if err := group.Wait(); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownSite, siteID)
		}
		return fmt.Errorf("failed to load site %s: %w", siteID, err)
	}

	s.mu.Lock()
	s.site = site
	s.activities = acts
	s.mu.Unlock()

	s.tracker.SetSite(siteID)
	s.tracker.SetTasks(planning.ToDomainAll(recs))
	log.Info().Str("site", siteID).Int("tasks", len(recs)).Int("activities", len(acts)).Msg("Site activated")
	return nil
}

// LoadTasks reads the active site's tasks from the store.
func (s *Service) LoadTasks(ctx context.Context) ([]planning.Task, error) {
	siteID := s.tracker.Site()
	if siteID == "" {
		return nil, ErrNoActiveSite
	}
	recs, err := s.store.Tasks(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return planning.ToDomainAll(recs), nil
}

// Reload re-reads the active site from the store.
func (s *Service) Reload(ctx context.Context) error {
	siteID := s.tracker.Site()
	if siteID == "" {
		return ErrNoActiveSite
	}
	if r, ok := s.store.(store.Reloader); ok {
		r.Reload(siteID)
	}
	site, err := s.store.Site(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to reload site: %w", err)
	}
	acts, err := s.store.Activities(ctx, siteID)
	if err != nil {
		return fmt.Errorf("failed to reload activities: %w", err)
	}
	s.mu.Lock()
	s.site = site
	s.activities = acts
	s.mu.Unlock()

	return s.tracker.Commit(ctx, s.LoadTasks)
}

// WeekView returns the tasks and PPC of the week containing week.
func (s *Service) WeekView(week time.Time, sort weekview.SortKey) weekview.View {
	return s.tracker.View(week, sort)
}

// Trend computes weekly PPC over the weeks weeks ending with until.
func (s *Service) Trend(weeks int, until time.Time) stats.TrendSummary {
	return stats.CalculatePPCTrend(s.tracker.Tasks(), stats.LastWeeks(weeks, until))
}

// Activities returns the active site's activities.
func (s *Service) Activities() []calendar.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.activities)
}

// Tasks returns the active collection.
func (s *Service) Tasks() []planning.Task {
	return s.tracker.Tasks()
}

// ToggleDay advances the status of one planned day.
func (s *Service) ToggleDay(ctx context.Context, taskID string, day planning.Weekday) (planning.Task, error) {
	return s.update(ctx, taskID, func(t *planning.Task) error {
		_, err := t.ToggleDay(day)
		return err
	})
}

// SetDayStatus writes an explicit status for one planned day.
func (s *Service) SetDayStatus(ctx context.Context, taskID string, day planning.Weekday, status planning.DayStatus) (planning.Task, error) {
	return s.update(ctx, taskID, func(t *planning.Task) error {
		return t.SetDayStatus(day, status)
	})
}

// SetCause records why a task was not done.
func (s *Service) SetCause(ctx context.Context, taskID, cause string) (planning.Task, error) {
	return s.update(ctx, taskID, func(t *planning.Task) error {
		t.SetCause(cause)
		return nil
	})
}

// SetCompleted sets the task's completion flag.
func (s *Service) SetCompleted(ctx context.Context, taskID string, done bool) (planning.Task, error) {
	return s.update(ctx, taskID, func(t *planning.Task) error {
		t.SetCompleted(done)
		return nil
	})
}

// CreateTask stores a new task in the active site.
func (s *Service) CreateTask(ctx context.Context, task planning.Task) (planning.Task, error) {
	siteID := s.tracker.Site()
	if siteID == "" {
		return planning.Task{}, ErrNoActiveSite
	}
	task.SiteID = siteID

	var created planning.Task
	err := s.tracker.Commit(ctx, func(ctx context.Context) ([]planning.Task, error) {
		rec, err := s.store.CreateTask(ctx, planning.ToRecord(task))
		if err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
		created = planning.ToDomain(rec)
		return append(s.tracker.Tasks(), created), nil
	})
	return created, err
}

// CopyToNextWeek duplicates a task into the following week.
func (s *Service) CopyToNextWeek(ctx context.Context, taskID string) (planning.Task, error) {
	src, ok := s.tracker.Task(taskID)
	if !ok {
		return planning.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return s.CreateTask(ctx, planning.CopyToNextWeek(src))
}

// DeleteTask removes a task from the store and the collection.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if _, ok := s.tracker.Task(taskID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return s.tracker.Commit(ctx, func(ctx context.Context) ([]planning.Task, error) {
		if err := s.store.DeleteTask(ctx, taskID); err != nil {
			return nil, fmt.Errorf("failed to delete task %s: %w", taskID, err)
		}
		return slices.DeleteFunc(s.tracker.Tasks(), func(t planning.Task) bool {
			return t.ID == taskID
		}), nil
	})
}

// update applies fn to a copy of the task, saves it and installs the canonical
// record the store returns. Nothing changes in memory if the save fails.
func (s *Service) update(ctx context.Context, taskID string, fn func(*planning.Task) error) (planning.Task, error) {
	task, ok := s.tracker.Task(taskID)
	if !ok {
		return planning.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if err := fn(&task); err != nil {
		return planning.Task{}, err
	}

	var saved planning.Task
	err := s.tracker.Commit(ctx, func(ctx context.Context) ([]planning.Task, error) {
		rec, err := s.store.UpdateTask(ctx, planning.ToPersisted(task))
		if err != nil {
			return nil, fmt.Errorf("failed to save task %s: %w", taskID, err)
		}
		saved = planning.ToDomain(rec)
		tasks := s.tracker.Tasks()
		for i := range tasks {
			if tasks[i].ID == taskID {
				tasks[i] = saved
			}
		}
		return tasks, nil
	})
	if err != nil {
		return saved, err
	}
	// Recompute the edited week off the caller's path so the next read is a cache hit.
	s.scheduler.Request(context.WithoutCancel(ctx), saved.WeekStartDate, weekview.SortDefault)
	return saved, nil
}

// Calendar builds the weekly calendar of the active site with its activities
// mapped to weeks and summarized as of today.
func (s *Service) Calendar(today time.Time) (CalendarView, error) {
	s.mu.RLock()
	site, acts := s.site, s.activities
	s.mu.RUnlock()
	if site.ID == "" {
		return CalendarView{}, ErrNoActiveSite
	}

	var start, end time.Time
	if site.StartDate != nil {
		start = *site.StartDate
	}
	if site.EndDate != nil {
		end = *site.EndDate
	}
	weeks := calendar.Generator{MaxWeeks: s.opts.MaxCalendarWeeks}.GenerateWeeks(start, end)
	mapping := s.mapper.Map(weeks, acts)

	return CalendarView{
		Site:        site,
		Weeks:       weeks,
		Activities:  mapping,
		Summaries:   calendar.SummarizeWeeks(weeks, mapping, today),
		CurrentWeek: calendar.WeekOf(weeks, today),
	}, nil
}

// Urgency classifies the active site's deadline. ok is false when the site has
// no end date and is not completed.
func (s *Service) Urgency(today time.Time) (calendar.UrgencyInfo, bool) {
	site := s.Site()
	return calendar.Classify(today, site.EndDate, site.Completed, s.opts.CriticalDays)
}

// Audit lists tasks whose completion flag disagrees with their daily statuses.
func (s *Service) Audit() []planning.CompletionMismatch {
	return planning.AuditCompletion(s.tracker.Tasks())
}
