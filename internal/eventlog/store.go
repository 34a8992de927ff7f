package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store persists and retrieves SessionLogs. The file-backed implementation
// below is the reference build; the contract has no other requirement.
type Store interface {
	// Flush rewrites a session's log to disk as a single JSON file.
	Flush(ctx context.Context, log *SessionLog) error
	// Load reads back a previously flushed session.
	Load(ctx context.Context, sessionID string) (*SessionLog, error)
	// List returns session summaries, newest first, capped at limit.
	List(ctx context.Context, limit int) ([]SessionSummary, error)
}

// FileStore lays out one JSON file per session under
// <baseDir>/YYYY/MM/DD/session_<id>.json, organised by the session's UTC
// start date.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a FileStore rooted at baseDir, which is created on
// first flush if it does not already exist.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (f *FileStore) pathFor(sessionID string, startTime time.Time) string {
	dir := filepath.Join(f.baseDir, startTime.Format("2006"), startTime.Format("01"), startTime.Format("02"))
	return filepath.Join(dir, "session_"+sessionID+".json")
}

// Flush writes log to its date-bucketed path, creating parent directories
// as needed. A session log that moved date buckets (unlikely, since a
// SessionLog's StartTime is fixed at creation) is always found again via
// the path derived from StartTime, not the flush time.
func (f *FileStore) Flush(ctx context.Context, log *SessionLog) error {
	path := f.pathFor(log.SessionID, log.StartTime)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("eventlog: create log dir: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("eventlog: marshal session log: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("eventlog: write session log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("eventlog: finalize session log: %w", err)
	}
	return nil
}

// Load scans the log tree for a session file matching sessionID. Sessions
// are addressed by ID alone (the date bucket is an on-disk organisation
// detail, not part of the key), so Load walks the tree rather than
// requiring the caller to know the start date.
func (f *FileStore) Load(ctx context.Context, sessionID string) (*SessionLog, error) {
	want := "session_" + sessionID + ".json"
	var found string
	err := filepath.WalkDir(f.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && d.Name() == want {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("eventlog: scan log tree: %w", err)
	}
	if found == "" {
		return nil, fmt.Errorf("eventlog: no session log for %q", sessionID)
	}

	data, err := os.ReadFile(found)
	if err != nil {
		return nil, fmt.Errorf("eventlog: read session log: %w", err)
	}
	var log SessionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("eventlog: parse session log: %w", err)
	}
	return &log, nil
}

// List scans the log tree and returns summaries sorted newest first.
func (f *FileStore) List(ctx context.Context, limit int) ([]SessionSummary, error) {
	var summaries []SessionSummary
	err := filepath.WalkDir(f.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var log SessionLog
		if err := json.Unmarshal(data, &log); err != nil {
			return nil
		}
		summaries = append(summaries, summarize(&log))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("eventlog: scan log tree: %w", err)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
