// Package utils holds small process and filesystem helpers shared by the CLI and stores.
package utils

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
	"errors"
	"fmt"
	"io"
	"sync"
)

type cleanup struct {
	name string
	fn   func() error
}

// Cleanups collects shutdown hooks, run last-registered first
type Cleanups struct {
	mu    sync.Mutex
	hooks []cleanup
}

var process = &Cleanups{}

// Register adds a named hook
func (c *Cleanups) Register(name string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, cleanup{name: name, fn: fn})
}

// Run executes every hook once, in LIFO order, and joins their errors
func (c *Cleanups) Run() error {
	c.mu.Lock()
	hooks := c.hooks
	c.hooks = nil
	c.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// RegisterCleanup adds a hook to the process-wide list
func RegisterCleanup(name string, fn func() error) {
	process.Register(name, fn)
}

// RegisterCloser closes c on shutdown
func RegisterCloser(name string, c io.Closer) {
	process.Register(name, c.Close)
}

// RunCleanup runs the process-wide hooks
func RunCleanup() error {
	return process.Run()
}
