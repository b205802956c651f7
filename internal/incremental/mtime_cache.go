package incremental

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// Entry is the cached state of one source file.
type Entry struct {
	MTime float64 `json:"mtime"`
}

// Record maps absolute source paths to their last observed state.
type Record map[string]Entry

// MTimeCache checks and persists source modification times.
type MTimeCache struct {
	recorder metrics.Recorder
}

// NewMTimeCache creates a new cache.
func NewMTimeCache() *MTimeCache {
	return &MTimeCache{recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder for cache decisions.
func (c *MTimeCache) WithRecorder(r metrics.Recorder) *MTimeCache {
	if r != nil {
		c.recorder = r
	}
	return c
}

// Load reads and parses a record. Any failure is a CacheRead error.
func Load(path string) (Record, error) {
	// #nosec G304 - cache path comes from bundle configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, aerrors.CacheRead(path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, aerrors.CacheRead(path, err)
	}
	if rec == nil {
		return nil, aerrors.CacheRead(path, fmt.Errorf("record is not an object"))
	}
	return rec, nil
}

// IsUnchanged reports whether every source is present in the record at path
// and none has a modification time newer than the recorded one.
func (c *MTimeCache) IsUnchanged(ctx context.Context, path string, sources []string) bool {
	unchanged := c.check(ctx, path, sources)
	c.recorder.IncCacheCheck(unchanged)
	return unchanged
}

func (c *MTimeCache) check(ctx context.Context, path string, sources []string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		observability.DebugContext(ctx, "Cache file not found", logfields.Path(path))
		return false
	}

	rec, err := Load(path)
	if err != nil {
		observability.WarnContext(ctx, "Ignoring unreadable cache file", logfields.Path(path), logfields.Error(err))
		return false
	}

	for _, src := range sources {
		entry, ok := rec[src]
		if !ok {
			observability.DebugContext(ctx, "Source missing from cache", logfields.Path(src))
			return false
		}
		mtime, err := ModTime(src)
		if err != nil {
			observability.WarnContext(ctx, "Cannot stat cached source", logfields.Path(src), logfields.Error(err))
			return false
		}
		if mtime > entry.MTime {
			observability.DebugContext(ctx, "Source changed since last build", logfields.Path(src))
			return false
		}
	}
	return true
}

// Persist overwrites the record at path with the current state of sources.
func (c *MTimeCache) Persist(ctx context.Context, path string, sources []string) error {
	rec, err := Snapshot(sources)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return aerrors.InternalError("marshal cache record", err)
	}
	if err := workspace.WriteFileAtomic(path, data, 0o644); err != nil {
		return aerrors.OutputWrite(path, err)
	}
	observability.DebugContext(ctx, "Saved source timestamps", logfields.Path(path), logfields.Sources(len(rec)))
	return nil
}

// Snapshot captures the current modification time of every source.
func Snapshot(sources []string) (Record, error) {
	rec := make(Record, len(sources))
	for _, src := range sources {
		mtime, err := ModTime(src)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", src, err)
		}
		rec[src] = Entry{MTime: mtime}
	}
	return rec, nil
}

// ModTime returns a file's modification time as float seconds since the epoch.
func ModTime(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}
