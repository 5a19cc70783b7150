package cache

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/rizome-dev/kasir/internal/utils"
	"github.com/rizome-dev/kasir/pkg/core"
)

// DefaultTTL is how long a cached entry stays fresh
const DefaultTTL = 10 * time.Minute

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// Entry is a cached payload
type Entry struct {
	Key       string                 `json:"key"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"created_at"`
}

// FileCache stores JSON entries on local disk, one file per key
type FileCache struct {
	dir string
	ttl time.Duration
	mu  sync.Mutex
	now func() time.Time
}

// NewFileCache creates a cache rooted at dir; ttl <= 0 means DefaultTTL
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}
}

// Dir exposes the cache directory path
func (c *FileCache) Dir() string {
	return c.dir
}

// Get retrieves a fresh entry
func (c *FileCache) Get(key string) (Entry, bool, error) {
	if key == "" {
		return Entry{}, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("%w: %v", core.ErrCacheFailed, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return Entry{}, false, nil
	}
	if c.now().Sub(entry.CreatedAt) > c.ttl {
		_ = os.Remove(path)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores data under key
func (c *FileCache) Set(key string, data map[string]interface{}) error {
	if key == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := json.Marshal(Entry{Key: key, Data: data, CreatedAt: c.now()})
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrCacheFailed, err)
	}
	if err := utils.WriteFileAtomic(c.pathFor(key), b); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCacheFailed, err)
	}
	return nil
}

// Clear removes every entry and returns how many were removed
func (c *FileCache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", core.ErrCacheFailed, err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, f.Name())); err != nil {
			return removed, fmt.Errorf("%w: %v", core.ErrCacheFailed, err)
		}
		removed++
	}
	return removed, nil
}

func (c *FileCache) pathFor(key string) string {
	return filepath.Join(c.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}
