package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
)

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if missing) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			data_inicio TEXT,
			data_termino TEXT,
			completed INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sector TEXT NOT NULL DEFAULT '',
			discipline TEXT NOT NULL DEFAULT '',
			team TEXT NOT NULL DEFAULT '',
			responsible TEXT NOT NULL DEFAULT '',
			executor TEXT NOT NULL DEFAULT '',
			week_start TEXT NOT NULL DEFAULT '',
			mon TEXT, tue TEXT, wed TEXT, thu TEXT, fri TEXT, sat TEXT, sun TEXT,
			completion REAL NOT NULL DEFAULT 0,
			cause TEXT,
			sort_order INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_site ON tasks(site_id);

		CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			data_inicio TEXT,
			data_termino TEXT,
			reference_week TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			restrictions TEXT NOT NULL DEFAULT '[]'
		);
		CREATE INDEX IF NOT EXISTS idx_activities_site ON activities(site_id);
	`)
	return err
}

func (s *SQLiteStore) Site(ctx context.Context, siteID string) (planning.Site, error) {
	var site planning.Site
	var start, end sql.NullString
	var completed int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, data_inicio, data_termino, completed
		FROM sites WHERE id = ?`, siteID,
	).Scan(&site.ID, &site.Name, &start, &end, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return planning.Site{}, fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}
	if err != nil {
		return planning.Site{}, err
	}
	site.StartDate = parseNullDate(start)
	site.EndDate = parseNullDate(end)
	site.Completed = completed != 0
	return site, nil
}

func (s *SQLiteStore) PutSite(ctx context.Context, site planning.Site) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (id, name, data_inicio, data_termino, completed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data_inicio = excluded.data_inicio,
			data_termino = excluded.data_termino,
			completed = excluded.completed`,
		site.ID, site.Name, formatNullDate(site.StartDate), formatNullDate(site.EndDate), boolInt(site.Completed),
	)
	return err
}

const taskColumns = `id, site_id, description, sector, discipline, team, responsible, executor,
	week_start, mon, tue, wed, thu, fri, sat, sun, completion, cause, sort_order`

func scanRecord(row interface{ Scan(...any) error }) (planning.Record, error) {
	var r planning.Record
	var days [7]sql.NullString
	var cause sql.NullString
	err := row.Scan(
		&r.ID, &r.SiteID, &r.Description, &r.Sector, &r.Discipline, &r.Team, &r.Responsible, &r.Executor,
		&r.WeekStart, &days[0], &days[1], &days[2], &days[3], &days[4], &days[5], &days[6],
		&r.Completion, &cause, &r.Order,
	)
	if err != nil {
		return planning.Record{}, err
	}
	for i, d := range planning.Weekdays {
		if days[i].Valid {
			// Raw labels pass through untouched; ToDomain decides what they mean.
			v := days[i].String
			switch d {
			case planning.Mon:
				r.Mon = &v
			case planning.Tue:
				r.Tue = &v
			case planning.Wed:
				r.Wed = &v
			case planning.Thu:
				r.Thu = &v
			case planning.Fri:
				r.Fri = &v
			case planning.Sat:
				r.Sat = &v
			case planning.Sun:
				r.Sun = &v
			}
		}
	}
	if cause.Valid {
		r.Cause = &cause.String
	}
	return r, nil
}

func (s *SQLiteStore) Tasks(ctx context.Context, siteID string) ([]planning.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE site_id = ? ORDER BY week_start, sort_order, id`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []planning.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) task(ctx context.Context, id string) (planning.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return planning.Record{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return r, err
}

func (s *SQLiteStore) CreateTask(ctx context.Context, rec planning.Record) (planning.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	d := rec.DayFields
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SiteID, rec.Description, rec.Sector, rec.Discipline, rec.Team, rec.Responsible, rec.Executor,
		rec.WeekStart, d.Mon, d.Tue, d.Wed, d.Thu, d.Fri, d.Sat, d.Sun, rec.Completion, rec.Cause, rec.Order,
	)
	if err != nil {
		return planning.Record{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return s.task(ctx, rec.ID)
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, patch planning.Patch) (planning.Record, error) {
	d := patch.Days
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			mon = ?, tue = ?, wed = ?, thu = ?, fri = ?, sat = ?, sun = ?,
			completion = ?, cause = ?
		WHERE id = ?`,
		d.Mon, d.Tue, d.Wed, d.Thu, d.Fri, d.Sat, d.Sun, patch.Completion, patch.Cause, patch.ID,
	)
	if err != nil {
		return planning.Record{}, fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return planning.Record{}, fmt.Errorf("task %s: %w", patch.ID, ErrNotFound)
	}
	return s.task(ctx, patch.ID)
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Activities(ctx context.Context, siteID string) ([]calendar.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, name, data_inicio, data_termino, reference_week, completed, restrictions
		FROM activities WHERE site_id = ? ORDER BY data_inicio, id`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calendar.Activity
	for rows.Next() {
		var a calendar.Activity
		var start, end sql.NullString
		var completed int
		var restrictions string
		if err := rows.Scan(&a.ID, &a.SiteID, &a.Name, &start, &end, &a.ReferenceWeek, &completed, &restrictions); err != nil {
			return nil, err
		}
		a.Start = parseNullDate(start)
		a.End = parseNullDate(end)
		a.Completed = completed != 0
		if err := json.Unmarshal([]byte(restrictions), &a.Restrictions); err != nil {
			log.Warn().Err(err).Str("site", siteID).Str("activity", a.ID).Msg("Dropping invalid restrictions in store")
			a.Restrictions = nil
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PutActivity(ctx context.Context, act calendar.Activity) error {
	if act.ID == "" {
		act.ID = uuid.NewString()
	}
	restrictions, err := json.Marshal(act.Restrictions)
	if err != nil {
		return err
	}
	if act.Restrictions == nil {
		restrictions = []byte("[]")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activities (id, site_id, name, data_inicio, data_termino, reference_week, completed, restrictions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			site_id = excluded.site_id,
			name = excluded.name,
			data_inicio = excluded.data_inicio,
			data_termino = excluded.data_termino,
			reference_week = excluded.reference_week,
			completed = excluded.completed,
			restrictions = excluded.restrictions`,
		act.ID, act.SiteID, act.Name, formatNullDate(act.Start), formatNullDate(act.End), act.ReferenceWeek,
		boolInt(act.Completed), string(restrictions),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func parseNullDate(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, ok := planning.ParseDate(v.String)
	if !ok {
		return nil
	}
	return &t
}

func formatNullDate(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
