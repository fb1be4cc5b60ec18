package weekview

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"weekplan/internal/planning"
)

// Scheduler recomputes week views off the caller's path. Requests are
// last-request-wins: a result whose request has been superseded is discarded.
type Scheduler struct {
	tracker *Tracker
	compute func(week time.Time, sort SortKey) View
	group   singleflight.Group

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	latest  View
	hasView bool
	updates chan View

	inflight sync.WaitGroup
}

// NewScheduler creates a scheduler computing views through tracker.
func NewScheduler(tracker *Tracker) *Scheduler {
	return &Scheduler{
		tracker: tracker,
		compute: tracker.View,
		updates: make(chan View, 1),
	}
}

// Request schedules the view of week. It returns immediately.
func (s *Scheduler) Request(ctx context.Context, week time.Time, sort SortKey) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		// Let the triggering input finish before the heavier aggregate runs.
		runtime.Gosched()
		if reqCtx.Err() != nil {
			log.Debug().Uint64("seq", seq).Msg("Week recomputation superseded before start")
			return
		}

		key := fmt.Sprintf("%d|%s|%s", s.tracker.Version(), planning.WeekKey(week), sort)
		res, _, _ := s.group.Do(key, func() (interface{}, error) {
			return s.compute(week, sort), nil
		})
		s.deliver(seq, res.(View))
	}()
}

func (s *Scheduler) deliver(seq uint64, v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		log.Debug().Uint64("seq", seq).Str("week", v.Week).Msg("Discarding stale week view")
		return
	}
	s.latest = v
	s.hasView = true

	// Keep only the newest pending update.
	select {
	case <-s.updates:
	default:
	}
	s.updates <- v
}

// Updates delivers each accepted view. Only the newest pending one is kept.
func (s *Scheduler) Updates() <-chan View {
	return s.updates
}

// Latest returns the most recently accepted view.
func (s *Scheduler) Latest() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasView
}

// Wait blocks until every scheduled computation has finished or been dropped.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}
