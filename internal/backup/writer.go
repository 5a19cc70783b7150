package backup

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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rizome-dev/kasir/internal/utils"
	"github.com/rizome-dev/kasir/pkg/business"
	"github.com/rizome-dev/kasir/pkg/core"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Manifest describes a completed backup
type Manifest struct {
	Dir       string         `yaml:"-"`
	CreatedAt time.Time      `yaml:"created_at"`
	Files     []string       `yaml:"files"`
	Counts    map[string]int `yaml:"counts"`
}

// Writer stores snapshots as YAML files, one directory per backup
type Writer struct {
	root string
	now  func() time.Time
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{root: dir, now: time.Now}
}

// Root returns the directory backups are written under
func (w *Writer) Root() string {
	return w.root
}

// Write stores snap in a new timestamped directory. Collections are
// written concurrently; the manifest is written last.
func (w *Writer) Write(ctx context.Context, snap *business.Snapshot) (*Manifest, error) {
	created := w.now()
	dir := filepath.Join(w.root, created.Format("20060102-150405.000"))
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("%w: failed to create backup directory: %v", core.ErrBackupFailed, err)
	}

	collections := []struct {
		name  string
		data  interface{}
		count int
	}{
		{"products", snap.Products, len(snap.Products)},
		{"transactions", snap.Transactions, len(snap.Transactions)},
		{"employees", snap.Employees, len(snap.Employees)},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range collections {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeYAML(filepath.Join(dir, c.name+".yaml"), c.data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackupFailed, err)
	}

	manifest := &Manifest{
		Dir:       dir,
		CreatedAt: created,
		Counts:    make(map[string]int, len(collections)),
	}
	for _, c := range collections {
		manifest.Files = append(manifest.Files, c.name+".yaml")
		manifest.Counts[c.name] = c.count
	}

	if err := writeYAML(filepath.Join(dir, "manifest.yaml"), manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBackupFailed, err)
	}
	return manifest, nil
}

// Read loads a backup directory written by Write
func Read(dir string) (*business.Snapshot, *Manifest, error) {
	var manifest Manifest
	if err := readYAML(filepath.Join(dir, "manifest.yaml"), &manifest); err != nil {
		return nil, nil, err
	}
	manifest.Dir = dir

	snap := &business.Snapshot{TakenAt: manifest.CreatedAt}
	if err := readYAML(filepath.Join(dir, "products.yaml"), &snap.Products); err != nil {
		return nil, nil, err
	}
	if err := readYAML(filepath.Join(dir, "transactions.yaml"), &snap.Transactions); err != nil {
		return nil, nil, err
	}
	if err := readYAML(filepath.Join(dir, "employees.yaml"), &snap.Employees); err != nil {
		return nil, nil, err
	}
	return snap, &manifest, nil
}

func writeYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := utils.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
