// Package catalog loads extra example phrases for registered actions from YAML files.
package catalog

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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/pkg/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the layout of a catalog file
type File struct {
	Actions []Entry `yaml:"actions"`
}

// Entry adds phrases to one action
type Entry struct {
	Action   string   `yaml:"action"`
	Examples []string `yaml:"examples"`
}

// Loader reads catalog files from a directory into a registry
type Loader struct {
	dir      string
	registry *action.Registry
	logger   *zap.Logger
}

// NewLoader creates a loader for dir
func NewLoader(dir string, registry *action.Registry, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{dir: dir, registry: registry, logger: logger}
}

// LoadAll loads every .yaml/.yml file in the directory, in name order, and
// returns the number of phrases added. A missing directory is not an error;
// a broken file is logged and skipped.
func (l *Loader) LoadAll() (int, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		added, err := l.LoadFile(path)
		if err != nil {
			l.logger.Warn("skipping catalog file", zap.String("path", path), zap.Error(err))
			continue
		}
		total += added
	}
	return total, nil
}

// LoadFile loads a single catalog file. The file is checked as a whole
// before anything is added, so a bad entry leaves the registry untouched.
func (l *Loader) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("%w: failed to parse YAML: %v", core.ErrCatalogInvalid, err)
	}

	for i, e := range file.Actions {
		if e.Action == "" {
			return 0, fmt.Errorf("%w: entry %d has no action", core.ErrCatalogInvalid, i)
		}
		if _, exists := l.registry.Get(e.Action); !exists {
			return 0, fmt.Errorf("%w: entry %d: %v: %s", core.ErrCatalogInvalid, i, core.ErrActionNotFound, e.Action)
		}
	}

	added := 0
	for _, e := range file.Actions {
		phrases := make([]string, 0, len(e.Examples))
		for _, p := range e.Examples {
			if p = strings.TrimSpace(p); p != "" {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) == 0 {
			continue
		}
		if err := l.registry.AddExamples(e.Action, phrases...); err != nil {
			return added, err
		}
		added += len(phrases)
	}

	l.logger.Debug("loaded catalog file", zap.String("path", path), zap.Int("phrases", added))
	return added, nil
}
