package action

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
	"errors"
	"testing"
	"time"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execution(id, actionID, userID string, status actpkg.Status) *actpkg.Execution {
	return &actpkg.Execution{
		ID:         id,
		ActionID:   actionID,
		ActionName: actionID,
		Parameters: actpkg.Params{"k": "v"},
		Status:     status,
		StartTime:  time.Now(),
		UserID:     userID,
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("Append And Indexes", func(t *testing.T) {
		h := NewHistory(nil, nil)
		require.NoError(t, h.Append(ctx, execution("1", "a", "u1", actpkg.StatusExecuting)))
		require.NoError(t, h.Append(ctx, execution("2", "b", "u1", actpkg.StatusExecuting)))
		require.NoError(t, h.Append(ctx, execution("3", "a", "u2", actpkg.StatusExecuting)))

		assert.Equal(t, 3, h.Len())
		assert.Len(t, h.ByAction("a"), 2)
		assert.Len(t, h.ByUser("u1"), 2)
		assert.Empty(t, h.ByAction("missing"))

		got, ok := h.Get("3")
		require.True(t, ok)
		assert.Equal(t, "u2", got.UserID)

		_, ok = h.Get("missing")
		assert.False(t, ok)

		var ids []string
		for _, e := range h.All() {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, []string{"1", "2", "3"}, ids)
	})

	t.Run("Duplicate Append", func(t *testing.T) {
		h := NewHistory(nil, nil)
		require.NoError(t, h.Append(ctx, execution("1", "a", "u1", actpkg.StatusExecuting)))
		assert.Error(t, h.Append(ctx, execution("1", "a", "u1", actpkg.StatusExecuting)))
		assert.Equal(t, 1, h.Len())
	})

	t.Run("Forward Only Transitions", func(t *testing.T) {
		h := NewHistory(nil, nil)
		rec := execution("1", "a", "u1", actpkg.StatusExecuting)
		require.NoError(t, h.Append(ctx, rec))

		done := rec.Clone()
		done.Status = actpkg.StatusSuccess
		require.NoError(t, h.Update(ctx, done))

		back := rec.Clone()
		back.Status = actpkg.StatusExecuting
		assert.Error(t, h.Update(ctx, back))

		again := rec.Clone()
		again.Status = actpkg.StatusSuccess
		assert.Error(t, h.Update(ctx, again), "terminal records are immutable")

		got, _ := h.Get("1")
		assert.Equal(t, actpkg.StatusSuccess, got.Status)

		assert.Error(t, h.Update(ctx, execution("missing", "a", "u1", actpkg.StatusSuccess)))
	})

	t.Run("Records Are Copied", func(t *testing.T) {
		h := NewHistory(nil, nil)
		rec := execution("1", "a", "u1", actpkg.StatusExecuting)
		require.NoError(t, h.Append(ctx, rec))

		rec.Parameters["k"] = "changed"
		got, _ := h.Get("1")
		assert.Equal(t, "v", got.Parameters["k"])

		got.Parameters["k"] = "changed again"
		again, _ := h.Get("1")
		assert.Equal(t, "v", again.Parameters["k"])
	})

	t.Run("Sink Failure Does Not Fail Append", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("disk full")}
		h := NewHistory(sink, nil)
		require.NoError(t, h.Append(ctx, execution("1", "a", "u1", actpkg.StatusExecuting)))
		assert.Equal(t, 1, h.Len())
		assert.Len(t, sink.saved, 1)
	})
}

func TestStatus(t *testing.T) {
	tests := []struct {
		from, to actpkg.Status
		want     bool
	}{
		{"", actpkg.StatusExecuting, true},
		{actpkg.StatusPending, actpkg.StatusExecuting, true},
		{actpkg.StatusPending, actpkg.StatusCancelled, true},
		{actpkg.StatusExecuting, actpkg.StatusSuccess, true},
		{actpkg.StatusExecuting, actpkg.StatusFailed, true},
		{actpkg.StatusExecuting, actpkg.StatusPending, false},
		{actpkg.StatusSuccess, actpkg.StatusFailed, false},
		{actpkg.StatusCancelled, actpkg.StatusExecuting, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}

	assert.True(t, actpkg.StatusFailed.Terminal())
	assert.False(t, actpkg.StatusExecuting.Terminal())
}
