package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
)

type lineKind string

const (
	kindSite     lineKind = "site"
	kindTask     lineKind = "task"
	kindActivity lineKind = "activity"
)

// line is one JSONL entry of a site snapshot.
type line struct {
	Kind lineKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type partition struct {
	site       *planning.Site
	tasks      []planning.Record
	activities []calendar.Activity
}

// FileStore keeps one JSONL snapshot per site under a directory. Partitions are
// loaded on first access and rewritten atomically after every mutation.
type FileStore struct {
	dir string

	mu     sync.RWMutex
	sites  map[string]*partition
	taskOf map[string]string // task id -> site id
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		sites:  make(map[string]*partition),
		taskOf: make(map[string]string),
	}, nil
}

// Dir returns the directory holding the site snapshots.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the snapshot file of a site.
func (s *FileStore) Path(siteID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.jsonl", siteID))
}

func (s *FileStore) Site(ctx context.Context, siteID string) (planning.Site, error) {
	p, err := s.partition(siteID)
	if err != nil {
		return planning.Site{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p.site == nil {
		return planning.Site{}, fmt.Errorf("site %s: %w", siteID, ErrNotFound)
	}
	return *p.site, nil
}

func (s *FileStore) PutSite(ctx context.Context, site planning.Site) error {
	p, err := s.partition(site.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.site = &site
	return s.save(site.ID, p)
}

func (s *FileStore) Tasks(ctx context.Context, siteID string) ([]planning.Record, error) {
	p, err := s.partition(siteID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(p.tasks), nil
}

func (s *FileStore) CreateTask(ctx context.Context, rec planning.Record) (planning.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	p, err := s.partition(rec.SiteID)
	if err != nil {
		return planning.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.taskOf[rec.ID]; exists {
		return planning.Record{}, fmt.Errorf("task %s already exists", rec.ID)
	}
	p.tasks = append(p.tasks, rec)
	s.taskOf[rec.ID] = rec.SiteID
	if err := s.save(rec.SiteID, p); err != nil {
		return planning.Record{}, err
	}
	return rec, nil
}

func (s *FileStore) UpdateTask(ctx context.Context, patch planning.Patch) (planning.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	siteID, ok := s.taskOf[patch.ID]
	if !ok {
		return planning.Record{}, fmt.Errorf("task %s: %w", patch.ID, ErrNotFound)
	}
	p := s.sites[siteID]
	idx := slices.IndexFunc(p.tasks, func(r planning.Record) bool { return r.ID == patch.ID })
	if idx < 0 {
		return planning.Record{}, fmt.Errorf("task %s: %w", patch.ID, ErrNotFound)
	}

	previous := p.tasks[idx]
	p.tasks[idx] = patch.Apply(previous)
	if err := s.save(siteID, p); err != nil {
		p.tasks[idx] = previous
		return planning.Record{}, err
	}
	return p.tasks[idx], nil
}

func (s *FileStore) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	siteID, ok := s.taskOf[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	p := s.sites[siteID]
	previous := p.tasks
	p.tasks = slices.DeleteFunc(slices.Clone(p.tasks), func(r planning.Record) bool { return r.ID == taskID })
	if err := s.save(siteID, p); err != nil {
		p.tasks = previous
		return err
	}
	delete(s.taskOf, taskID)
	return nil
}

func (s *FileStore) Activities(ctx context.Context, siteID string) ([]calendar.Activity, error) {
	p, err := s.partition(siteID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(p.activities), nil
}

func (s *FileStore) PutActivity(ctx context.Context, act calendar.Activity) error {
	if act.ID == "" {
		act.ID = uuid.NewString()
	}
	p, err := s.partition(act.SiteID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := slices.IndexFunc(p.activities, func(a calendar.Activity) bool { return a.ID == act.ID }); idx >= 0 {
		p.activities[idx] = act
	} else {
		p.activities = append(p.activities, act)
	}
	return s.save(act.SiteID, p)
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error { return nil }

// partition returns the in-memory partition of a site, loading it on first use.
func (s *FileStore) partition(siteID string) (*partition, error) {
	if siteID == "" {
		return nil, fmt.Errorf("site id is required")
	}
	s.mu.RLock()
	p, ok := s.sites[siteID]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	loaded, err := s.load(siteID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.sites[siteID]; ok {
		return p, nil
	}
	s.sites[siteID] = loaded
	for _, r := range loaded.tasks {
		s.taskOf[r.ID] = siteID
	}
	return loaded, nil
}

// Reload drops the cached partition so the next access re-reads the file.
func (s *FileStore) Reload(siteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.sites[siteID]; ok {
		for _, r := range p.tasks {
			delete(s.taskOf, r.ID)
		}
		delete(s.sites, siteID)
	}
}

func (s *FileStore) load(siteID string) (*partition, error) {
	p := &partition{}
	path := s.Path(siteID)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil // No snapshot yet, not an error
		}
		return nil, fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var l line
		if err := json.Unmarshal(scanner.Bytes(), &l); err != nil {
			log.Warn().Err(err).Str("site", siteID).Msg("Skipping invalid JSON line in store")
			continue
		}
		switch l.Kind {
		case kindSite:
			var site planning.Site
			if err := json.Unmarshal(l.Data, &site); err == nil {
				p.site = &site
			}
		case kindTask:
			var r planning.Record
			if err := json.Unmarshal(l.Data, &r); err == nil {
				p.tasks = append(p.tasks, r)
			}
		case kindActivity:
			var a calendar.Activity
			if err := json.Unmarshal(l.Data, &a); err == nil {
				p.activities = append(p.activities, a)
			}
		default:
			log.Warn().Str("site", siteID).Str("kind", string(l.Kind)).Msg("Skipping unknown line kind in store")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading store file: %w", err)
	}

	log.Debug().Str("site", siteID).Int("tasks", len(p.tasks)).Int("activities", len(p.activities)).Msg("Loaded site from store")
	return p, nil
}

// save rewrites a site snapshot via a temp file and rename. Callers hold mu.
func (s *FileStore) save(siteID string, p *partition) error {
	path := s.Path(siteID)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	write := func(kind lineKind, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return encoder.Encode(line{Kind: kind, Data: data})
	}

	err = func() error {
		if p.site != nil {
			if err := write(kindSite, p.site); err != nil {
				return err
			}
		}
		for _, r := range p.tasks {
			if err := write(kindTask, r); err != nil {
				return err
			}
		}
		for _, a := range p.activities {
			if err := write(kindActivity, a); err != nil {
				return err
			}
		}
		return writer.Flush()
	}()
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write store file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename store file: %w", err)
	}
	return nil
}
