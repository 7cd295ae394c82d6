// Package quota caches discovered provider send quotas on disk so that
// processes started within the TTL do not have to ask the provider again.
package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type entry struct {
	Value    int       `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// FileCache stores one JSON file per key under dir. Writes go to a temp file
// that is renamed over the target, so readers see either the old or the new
// value and never a partial one.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache returns a FileCache rooted at dir. The directory is created on first write.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir, now: time.Now}
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get returns the cached value for key and when it was stored.
// A missing or unreadable entry reports ok=false.
func (c *FileCache) Get(key string) (int, time.Time, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return 0, time.Time{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return 0, time.Time{}, false
	}
	return e.Value, e.StoredAt, true
}

// Set stores value under key.
func (c *FileCache) Set(key string, value int) error {
	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return fmt.Errorf("creating cache directory %q: %w", c.dir, err)
	}
	data, err := json.Marshal(entry{Value: value, StoredAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".quota-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}
