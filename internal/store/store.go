// Package store holds the record-store collaborators the planning engine
// loads from and saves to.
package store

import (
	"context"
	"errors"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
)

// ErrNotFound is returned when a site, task or activity does not exist.
var ErrNotFound = errors.New("not found")

// Store is the record store seen by the engine. Writes return the canonical
// record so callers can re-normalize it.
type Store interface {
	Site(ctx context.Context, siteID string) (planning.Site, error)
	PutSite(ctx context.Context, site planning.Site) error

	Tasks(ctx context.Context, siteID string) ([]planning.Record, error)
	CreateTask(ctx context.Context, rec planning.Record) (planning.Record, error)
	UpdateTask(ctx context.Context, patch planning.Patch) (planning.Record, error)
	DeleteTask(ctx context.Context, taskID string) error

	Activities(ctx context.Context, siteID string) ([]calendar.Activity, error)
	PutActivity(ctx context.Context, act calendar.Activity) error

	Close() error
}

// Reloader is implemented by stores that cache a site in memory and can drop
// it so the next read sees outside edits.
type Reloader interface {
	Reload(siteID string)
}
