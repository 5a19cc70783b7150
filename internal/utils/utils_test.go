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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloser struct {
	closed bool
	err    error
}

func (m *mockCloser) Close() error {
	m.closed = true
	return m.err
}

func TestCleanups(t *testing.T) {
	t.Run("runs hooks in LIFO order once", func(t *testing.T) {
		var c Cleanups
		var order []int
		for i := 1; i <= 3; i++ {
			i := i
			c.Register("hook", func() error {
				order = append(order, i)
				return nil
			})
		}

		require.NoError(t, c.Run())
		assert.Equal(t, []int{3, 2, 1}, order)

		order = nil
		require.NoError(t, c.Run())
		assert.Empty(t, order)
	})

	t.Run("joins errors and keeps going", func(t *testing.T) {
		var c Cleanups
		bad := &mockCloser{err: errors.New("boom")}
		good := &mockCloser{}
		c.Register("good", good.Close)
		c.Register("bad", bad.Close)

		err := c.Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad: boom")
		assert.True(t, good.closed)
		assert.True(t, bad.closed)
	})

	t.Run("concurrent register", func(t *testing.T) {
		var c Cleanups
		var wg sync.WaitGroup
		var mu sync.Mutex
		count := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Register("n", func() error {
					mu.Lock()
					count++
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()

		require.NoError(t, c.Run())
		assert.Equal(t, 50, count)
	})
}

func TestRegisterCloser(t *testing.T) {
	closer := &mockCloser{}
	RegisterCloser("closer", closer)
	assert.False(t, closer.closed)

	require.NoError(t, RunCleanup())
	assert.True(t, closer.closed)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "file.yaml")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.True(t, FileExists(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
	assert.False(t, FileExists(filepath.Join(filepath.Dir(path), "missing")))
}
