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
	"fmt"
	"sync"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"go.uber.org/zap"
)

// HistorySink persists execution records outside the process
type HistorySink interface {
	Save(ctx context.Context, exec *actpkg.Execution) error
}

// History is the append-only log of execution attempts
type History struct {
	mu       sync.RWMutex
	records  []*actpkg.Execution
	byID     map[string]int
	byAction map[string][]int
	byUser   map[string][]int
	sink     HistorySink
	logger   *zap.Logger
}

// NewHistory creates an empty history. sink may be nil.
func NewHistory(sink HistorySink, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		byID:     make(map[string]int),
		byAction: make(map[string][]int),
		byUser:   make(map[string][]int),
		sink:     sink,
		logger:   logger,
	}
}

// Append adds a new execution record
func (h *History) Append(ctx context.Context, exec *actpkg.Execution) error {
	h.mu.Lock()
	if _, exists := h.byID[exec.ID]; exists {
		h.mu.Unlock()
		return fmt.Errorf("execution already recorded: %s", exec.ID)
	}

	idx := len(h.records)
	h.records = append(h.records, exec.Clone())
	h.byID[exec.ID] = idx
	h.byAction[exec.ActionID] = append(h.byAction[exec.ActionID], idx)
	h.byUser[exec.UserID] = append(h.byUser[exec.UserID], idx)
	h.mu.Unlock()

	h.persist(ctx, exec)
	return nil
}

// Update moves a recorded execution forward in its lifecycle
func (h *History) Update(ctx context.Context, exec *actpkg.Execution) error {
	h.mu.Lock()
	idx, exists := h.byID[exec.ID]
	if !exists {
		h.mu.Unlock()
		return fmt.Errorf("execution not recorded: %s", exec.ID)
	}

	current := h.records[idx]
	if current.Status != exec.Status && !current.Status.CanTransition(exec.Status) {
		h.mu.Unlock()
		return fmt.Errorf("invalid status transition %s -> %s for %s", current.Status, exec.Status, exec.ID)
	}
	if current.Status.Terminal() {
		h.mu.Unlock()
		return fmt.Errorf("execution %s is already %s", exec.ID, current.Status)
	}

	h.records[idx] = exec.Clone()
	h.mu.Unlock()

	h.persist(ctx, exec)
	return nil
}

// persist writes to the sink; failures are logged because the in-memory
// log stays authoritative for the running process
func (h *History) persist(ctx context.Context, exec *actpkg.Execution) {
	if h.sink == nil {
		return
	}
	if err := h.sink.Save(ctx, exec); err != nil {
		h.logger.Warn("failed to persist execution",
			zap.String("execution_id", exec.ID),
			zap.Error(err))
	}
}

// Get returns a copy of the execution with the given ID
func (h *History) Get(id string) (*actpkg.Execution, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	idx, exists := h.byID[id]
	if !exists {
		return nil, false
	}
	return h.records[idx].Clone(), true
}

// All returns copies of every record in append order
func (h *History) All() []*actpkg.Execution {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*actpkg.Execution, len(h.records))
	for i, rec := range h.records {
		out[i] = rec.Clone()
	}
	return out
}

// ByAction returns the records for one action in append order
func (h *History) ByAction(actionID string) []*actpkg.Execution {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.collect(h.byAction[actionID])
}

// ByUser returns the records triggered by one user in append order
func (h *History) ByUser(userID string) []*actpkg.Execution {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.collect(h.byUser[userID])
}

func (h *History) collect(indexes []int) []*actpkg.Execution {
	out := make([]*actpkg.Execution, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, h.records[idx].Clone())
	}
	return out
}

// Len returns the number of recorded executions
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
