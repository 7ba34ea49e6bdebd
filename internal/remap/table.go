package remap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"assetlib/internal/fileutil"
	"assetlib/internal/services"
)

// Entry is one row of paths.json.
type Entry struct {
	OldPath  string `json:"old_path"`
	NewPath  string `json:"new_path"`
	Filename string `json:"filename"`
}

// Table maps original host values to absolute library paths.
type Table struct {
	entries map[string]Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Add records oldPath -> newPath. The first mapping for a key wins.
func (t *Table) Add(oldPath, newPath string) bool {
	if _, exists := t.entries[oldPath]; exists {
		return false
	}
	t.entries[oldPath] = Entry{OldPath: oldPath, NewPath: newPath, Filename: filepath.Base(newPath)}
	return true
}

// Lookup returns the library path for oldPath.
func (t *Table) Lookup(oldPath string) (string, bool) {
	entry, ok := t.entries[oldPath]
	return entry.NewPath, ok
}

// Rewrite returns the library path for raw, or raw itself when unmapped.
func (t *Table) Rewrite(raw string) string {
	if newPath, ok := t.Lookup(raw); ok {
		return newPath
	}
	return raw
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the rows sorted by old path.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OldPath < out[j].OldPath })
	return out
}

// MarshalJSON encodes the table as an object keyed by old path.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.entries)
}

// UnmarshalJSON decodes a paths.json object.
func (t *Table) UnmarshalJSON(data []byte) error {
	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	for key, entry := range entries {
		if entry.OldPath == "" {
			entry.OldPath = key
		}
		if entry.Filename == "" {
			entry.Filename = filepath.Base(entry.NewPath)
		}
		entries[key] = entry
	}
	t.entries = entries
	return nil
}

// Write stores the table at path atomically.
func (t *Table) Write(path string) error {
	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrFileIO, "remap", "encode paths", path, err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrFileIO, "remap", "create data dir", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrFileIO, "remap", "write paths", path, err)
	}
	return nil
}

// Load reads a paths.json file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFileIO, "remap", "read paths", path, err)
	}
	table := NewTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, services.Wrap(services.ErrValidation, "remap", "decode paths", path, fmt.Errorf("invalid paths file: %w", err))
	}
	return table, nil
}
