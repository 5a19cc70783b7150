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
	"time"

	"github.com/google/uuid"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/core"
	"go.uber.org/zap"
)

// Result messages shown to the user
const (
	MessageActionNotFound       = "Action not found"
	MessageExecutionFailed      = "Action execution failed"
	MessageInvalidParameters    = "Invalid parameters"
	MessageConfirmationRequired = "Confirmation required"
)

type confirmedKey struct{}

// withConfirmation marks ctx as carrying an approved confirmation. Only the
// gate sets it.
func withConfirmation(ctx context.Context) context.Context {
	return context.WithValue(ctx, confirmedKey{}, true)
}

func confirmed(ctx context.Context) bool {
	ok, _ := ctx.Value(confirmedKey{}).(bool)
	return ok
}

// SerializeMode controls whether overlapping executions are allowed
type SerializeMode string

const (
	// SerializeNone lets executions interleave freely
	SerializeNone SerializeMode = "none"
	// SerializeAction allows one execution per action at a time
	SerializeAction SerializeMode = "action"
	// SerializeGlobal allows one execution at a time overall
	SerializeGlobal SerializeMode = "global"
)

// ParseSerializeMode converts a config value to a SerializeMode
func ParseSerializeMode(s string) (SerializeMode, error) {
	switch SerializeMode(s) {
	case "", SerializeNone:
		return SerializeNone, nil
	case SerializeAction, SerializeGlobal:
		return SerializeMode(s), nil
	default:
		return "", fmt.Errorf("unknown serialize mode: %q", s)
	}
}

// EngineOptions configures an Engine
type EngineOptions struct {
	Serialize SerializeMode
	Logger    *zap.Logger
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// Engine runs action handlers and records their lifecycle
type Engine struct {
	registry *Registry
	history  *History
	notifier *Notifier
	logger   *zap.Logger
	now      func() time.Time

	serialize SerializeMode
	global    sync.Mutex
	locksMu   sync.Mutex
	locks     map[string]*sync.Mutex
}

// NewEngine creates a new execution engine
func NewEngine(registry *Registry, history *History, notifier *Notifier, opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Serialize == "" {
		opts.Serialize = SerializeNone
	}
	return &Engine{
		registry:  registry,
		history:   history,
		notifier:  notifier,
		logger:    opts.Logger,
		now:       opts.Now,
		serialize: opts.Serialize,
		locks:     make(map[string]*sync.Mutex),
	}
}

// History returns the engine's execution history
func (e *Engine) History() *History {
	return e.history
}

// Execute runs an action. It never returns an error: every failure is
// reported through the result and recorded in history. Actions that require
// confirmation are refused unless they arrive through Gate.Confirm.
func (e *Engine) Execute(ctx context.Context, actionID string, params actpkg.Params, userID string) *actpkg.Result {
	a, exists := e.registry.Get(actionID)
	if !exists {
		e.logger.Warn("action not found", zap.String("action_id", actionID))
		return e.recordRejected(ctx, actionID, actionID, params, userID, &actpkg.Result{
			Success: false,
			Message: MessageActionNotFound,
			Error:   fmt.Sprintf("%s: %s", core.ErrActionNotFound, actionID),
		})
	}
	if a.RequiresConfirmation && !confirmed(ctx) {
		e.logger.Warn("action refused without confirmation", zap.String("action_id", a.ID))
		return e.recordRejected(ctx, a.ID, a.Name, params, userID, &actpkg.Result{
			Success: false,
			Message: MessageConfirmationRequired,
			Error:   fmt.Sprintf("%s: %s", core.ErrConfirmationRequired, a.ID),
		})
	}

	unlock := e.lock(a.ID)
	defer unlock()

	// Create execution record
	execution := &actpkg.Execution{
		ID:         newExecutionID(e.now()),
		ActionID:   a.ID,
		ActionName: a.Name,
		Parameters: params.Clone(),
		Status:     actpkg.StatusExecuting,
		StartTime:  e.now(),
		UserID:     userID,
	}

	normalized, perr := actpkg.Normalize(a.Parameters, params)
	if perr == nil {
		execution.Parameters = normalized.Clone()
	}

	e.record(ctx, execution, false)
	e.broadcast(actpkg.EventExecuting, execution)

	e.logger.Info("executing action",
		zap.String("action_id", a.ID),
		zap.String("execution_id", execution.ID),
		zap.String("user_id", userID))

	// Execute handler
	start := time.Now()
	var result *actpkg.Result
	if perr != nil {
		result = &actpkg.Result{
			Success: false,
			Message: MessageInvalidParameters,
			Error:   perr.Error(),
		}
	} else {
		result = e.run(ctx, a, normalized)
	}
	result.Duration = time.Since(start)

	// Update execution status
	endTime := e.now()
	if endTime.Before(execution.StartTime) {
		endTime = execution.StartTime
	}
	execution.EndTime = &endTime
	execution.Result = result

	eventType := actpkg.EventSuccess
	execution.Status = actpkg.StatusSuccess
	if !result.Success {
		eventType = actpkg.EventFailed
		execution.Status = actpkg.StatusFailed
	}

	e.record(ctx, execution, true)
	e.broadcast(eventType, execution)

	fields := []zap.Field{
		zap.String("action_id", a.ID),
		zap.String("execution_id", execution.ID),
		zap.String("status", string(execution.Status)),
		zap.Duration("duration", result.Duration),
	}
	if result.Success {
		e.logger.Info("action finished", fields...)
	} else {
		e.logger.Warn("action failed", append(fields, zap.String("error", result.Error))...)
	}

	return copyResult(result)
}

// run invokes the handler, converting errors and panics into a failed result
func (e *Engine) run(ctx context.Context, a *actpkg.Action, params actpkg.Params) (result *actpkg.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(fmt.Errorf("%w: %v", core.ErrHandlerPanic, r))
		}
	}()

	if a.Handler == nil {
		return failedResult(fmt.Errorf("action %s has no handler", a.ID))
	}

	res, err := a.Handler(ctx, params)
	if err != nil {
		return failedResult(err)
	}
	if res == nil {
		return failedResult(core.ErrNoResult)
	}
	return copyResult(res)
}

// recordRejected writes the single failure record for an execution whose
// handler never ran
func (e *Engine) recordRejected(ctx context.Context, actionID, name string, params actpkg.Params, userID string, result *actpkg.Result) *actpkg.Result {
	now := e.now()
	execution := &actpkg.Execution{
		ID:         newExecutionID(now),
		ActionID:   actionID,
		ActionName: name,
		Parameters: params.Clone(),
		Status:     actpkg.StatusFailed,
		StartTime:  now,
		EndTime:    &now,
		Result:     result,
		UserID:     userID,
	}

	e.record(ctx, execution, false)
	e.broadcast(actpkg.EventFailed, execution)

	return copyResult(result)
}

func (e *Engine) record(ctx context.Context, execution *actpkg.Execution, update bool) {
	if e.history == nil {
		return
	}
	var err error
	if update {
		err = e.history.Update(ctx, execution)
	} else {
		err = e.history.Append(ctx, execution)
	}
	if err != nil {
		e.logger.Error("failed to record execution",
			zap.String("execution_id", execution.ID),
			zap.Error(err))
	}
}

func (e *Engine) broadcast(t actpkg.EventType, execution *actpkg.Execution) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(actpkg.Event{
		Type:      t,
		Timestamp: e.now(),
		Execution: execution.Clone(),
	})
}

// lock applies the configured serialization and returns the release func
func (e *Engine) lock(actionID string) func() {
	switch e.serialize {
	case SerializeGlobal:
		e.global.Lock()
		return e.global.Unlock
	case SerializeAction:
		e.locksMu.Lock()
		m, exists := e.locks[actionID]
		if !exists {
			m = &sync.Mutex{}
			e.locks[actionID] = m
		}
		e.locksMu.Unlock()
		m.Lock()
		return m.Unlock
	default:
		return func() {}
	}
}

func failedResult(err error) *actpkg.Result {
	return &actpkg.Result{
		Success: false,
		Message: MessageExecutionFailed,
		Error:   err.Error(),
	}
}

func copyResult(r *actpkg.Result) *actpkg.Result {
	return r.Clone()
}

func newExecutionID(t time.Time) string {
	return fmt.Sprintf("exec-%d-%s", t.UnixMilli(), uuid.New().String()[:8])
}
