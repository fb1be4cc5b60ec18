package weekview

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// RefreshFunc re-reads the active site from the record store.
type RefreshFunc func(ctx context.Context) error

const watchDebounce = 150 * time.Millisecond

// Watch calls refresh whenever the file reported by target changes under dir.
// target is asked again for every event, so the watch follows the active site;
// an empty target ignores all events. It blocks until ctx is done.
//
// The directory is watched because stores replace their files by rename.
func Watch(ctx context.Context, dir string, target func() string, refresh RefreshFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir = filepath.Clean(dir)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Msg("Watching record store for changes")

	var (
		pending <-chan time.Time
		changed string
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			current := target()
			if current == "" || filepath.Clean(ev.Name) != filepath.Clean(current) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				changed = current
				pending = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("dir", dir).Msg("Watcher error")
		case <-pending:
			pending = nil
			if target() != changed {
				log.Debug().Str("path", changed).Msg("Active site switched before reload, skipping")
				continue
			}
			if err := refresh(ctx); err != nil {
				log.Warn().Err(err).Str("path", changed).Msg("Reload after change failed, keeping cached views")
				continue
			}
			log.Info().Str("path", changed).Msg("Record store changed, site reloaded")
		}
	}
}
