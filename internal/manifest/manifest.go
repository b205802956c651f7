// Package manifest records the outcome of a build pass as JSON so non-Go
// hosts can look up the current artifact and URL of each bundle.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// BuildManifest is the record of one build pass over all bundles.
type BuildManifest struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Status    string           `json:"status"`
	Duration  int64            `json:"duration_ms"`
	Bundles   map[string]Entry `json:"bundles"`
}

// Entry describes one bundle's current artifact.
type Entry struct {
	BuildID string   `json:"build_id,omitempty"`
	Status  string   `json:"status"`
	Output  string   `json:"output,omitempty"`
	URL     string   `json:"url,omitempty"`
	URLs    []string `json:"urls,omitempty"`
	Hash    string   `json:"hash,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// New creates an empty manifest.
func New(id string, ts time.Time) *BuildManifest {
	return &BuildManifest{ID: id, Timestamp: ts, Bundles: map[string]Entry{}}
}

// Names returns bundle names in sorted order.
func (m *BuildManifest) Names() []string {
	names := make([]string, 0, len(m.Bundles))
	for n := range m.Bundles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Bundles == nil {
		m.Bundles = map[string]Entry{}
	}
	return &m, nil
}

// Hash computes a deterministic hash of the bundle entries. Build IDs,
// timestamps and durations are excluded so two passes that produced the same
// artifacts hash equal.
func (m *BuildManifest) Hash() (string, error) {
	type hashEntry struct {
		Name    string   `json:"name"`
		Output  string   `json:"output"`
		URL     string   `json:"url"`
		URLs    []string `json:"urls"`
		Hash    string   `json:"hash"`
		Sources []string `json:"sources"`
	}
	entries := make([]hashEntry, 0, len(m.Bundles))
	for _, n := range m.Names() {
		e := m.Bundles[n]
		entries = append(entries, hashEntry{n, e.Output, e.URL, e.URLs, e.Hash, e.Sources})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Load reads a manifest from disk. A missing file returns (nil, nil).
func Load(path string) (*BuildManifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}

// Write stores the manifest atomically. When the file on disk already
// describes the same artifacts it is left alone and Write reports false.
func (m *BuildManifest) Write(path string) (bool, error) {
	if prev, err := Load(path); err == nil && prev != nil {
		prevHash, perr := prev.Hash()
		curHash, cerr := m.Hash()
		if perr == nil && cerr == nil && prevHash == curHash {
			return false, nil
		}
	}

	data, err := m.ToJSON()
	if err != nil {
		return false, err
	}
	if err := workspace.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return false, aerrors.OutputWrite(path, err)
	}
	return true, nil
}
