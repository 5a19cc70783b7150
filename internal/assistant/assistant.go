// Package assistant turns chat messages into executed or pending actions.
package assistant

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
	"fmt"
	"sort"
	"strings"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/intent"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"go.uber.org/zap"
)

// ReplyKind says how a message was handled
type ReplyKind string

const (
	KindNotUnderstood     ReplyKind = "not_understood"
	KindIncomplete        ReplyKind = "incomplete"
	KindNeedsConfirmation ReplyKind = "needs_confirmation"
	KindExecuted          ReplyKind = "executed"
)

// Reply is the outcome of handling one message
type Reply struct {
	Kind       ReplyKind
	Message    string
	Intent     actpkg.Intent
	Action     *actpkg.Action
	Parameters actpkg.Params
	// Missing and Invalid are set for KindIncomplete
	Missing []string
	Invalid map[string]string
	// Pending is set for KindNeedsConfirmation
	Pending *actpkg.Pending
	// Result is set for KindExecuted
	Result *actpkg.Result
}

// Assistant connects the detector, the confirmation gate and the engine
type Assistant struct {
	registry *action.Registry
	detector *intent.Detector
	gate     *action.Gate
	engine   action.Executor
	logger   *zap.Logger
}

// New creates an assistant. A nil logger discards output.
func New(registry *action.Registry, detector *intent.Detector, gate *action.Gate, engine action.Executor, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		registry: registry,
		detector: detector,
		gate:     gate,
		engine:   engine,
		logger:   logger,
	}
}

// Handle detects the intent of message and acts on it
func (a *Assistant) Handle(ctx context.Context, message, userID string) *Reply {
	detected := a.detector.Detect(message)
	reply := &Reply{Intent: detected}

	if !detected.Detected() || detected.Confidence < a.detector.Threshold() {
		reply.Kind = KindNotUnderstood
		reply.Message = "Sorry, I could not match that to an action"
		return reply
	}

	act, exists := a.registry.Get(detected.DetectedActionID)
	if !exists {
		a.logger.Warn("detected action is not registered",
			zap.String("action_id", detected.DetectedActionID))
		reply.Kind = KindNotUnderstood
		reply.Message = "Sorry, I could not match that to an action"
		return reply
	}
	reply.Action = act

	params, err := actpkg.Normalize(act.Parameters, detected.ExtractedParameters)
	reply.Parameters = params
	if err != nil {
		var perr *actpkg.ParameterError
		if errors.As(err, &perr) {
			reply.Missing = perr.Missing
			reply.Invalid = perr.Invalid
		}
		reply.Kind = KindIncomplete
		reply.Message = incompleteMessage(act, perr)
		return reply
	}

	decision := a.gate.Submit(act, params, userID)
	if !decision.Proceed {
		reply.Kind = KindNeedsConfirmation
		reply.Pending = decision.Pending
		reply.Message = strings.TrimSpace(fmt.Sprintf("%s %s %s", act.Icon, act.Name, describeParams(params))) + "?"
		return reply
	}

	reply.Kind = KindExecuted
	reply.Result = a.engine.Execute(ctx, act.ID, params, userID)
	reply.Message = reply.Result.Message
	return reply
}

// Confirm runs the action parked under token
func (a *Assistant) Confirm(ctx context.Context, token string) (*actpkg.Result, error) {
	return a.gate.Confirm(ctx, token)
}

// Cancel discards the action parked under token
func (a *Assistant) Cancel(token string) error {
	return a.gate.Cancel(token)
}

// Pending lists actions waiting for confirmation
func (a *Assistant) Pending() []*actpkg.Pending {
	return a.gate.Pending()
}

func incompleteMessage(act *actpkg.Action, perr *actpkg.ParameterError) string {
	if perr == nil {
		return fmt.Sprintf("%s needs more information", act.Name)
	}

	var parts []string
	for _, name := range perr.Missing {
		desc := name
		if p, ok := act.Parameter(name); ok && p.Description != "" {
			desc = strings.ToLower(p.Description)
		}
		parts = append(parts, desc)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("%s needs: %s", act.Name, strings.Join(parts, ", "))
	}

	names := make([]string, 0, len(perr.Invalid))
	for name := range perr.Invalid {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s got invalid values for: %s", act.Name, strings.Join(names, ", "))
}

// describeParams renders params as "(a=1, b=2)" in name order
func describeParams(params actpkg.Params) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, params[name]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
