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
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/core"
	"go.uber.org/zap"
)

// DefaultPendingTTL is how long a confirmation request stays valid
const DefaultPendingTTL = 5 * time.Minute

// Executor runs actions; Engine is the production implementation
type Executor interface {
	Execute(ctx context.Context, actionID string, params actpkg.Params, userID string) *actpkg.Result
}

// Decision is what the gate tells the caller to do with an action
type Decision struct {
	// Proceed is true when the action may run immediately
	Proceed bool
	// Pending is set when the action waits for Confirm or Cancel
	Pending *actpkg.Pending
}

// GateOptions configures a Gate
type GateOptions struct {
	// TTL of pending confirmations; zero means DefaultPendingTTL, negative disables expiry
	TTL    time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// Gate holds actions that need explicit approval before they run
type Gate struct {
	executor Executor
	notifier *Notifier
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]*actpkg.Pending
}

// NewGate creates a confirmation gate in front of executor
func NewGate(executor Executor, notifier *Notifier, opts GateOptions) *Gate {
	if opts.TTL == 0 {
		opts.TTL = DefaultPendingTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gate{
		executor: executor,
		notifier: notifier,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		now:      opts.Now,
		pending:  make(map[string]*actpkg.Pending),
	}
}

// Submit decides whether a can run now. Actions that require confirmation
// are parked until Confirm is called with the returned token.
func (g *Gate) Submit(a *actpkg.Action, params actpkg.Params, userID string) Decision {
	if !a.RequiresConfirmation {
		return Decision{Proceed: true}
	}

	p := &actpkg.Pending{
		Token:      uuid.New().String(),
		ActionID:   a.ID,
		ActionName: a.Name,
		Parameters: params.Clone(),
		UserID:     userID,
		CreatedAt:  g.now(),
	}

	g.mu.Lock()
	g.pending[p.Token] = p
	g.mu.Unlock()

	g.logger.Info("action awaiting confirmation",
		zap.String("action_id", a.ID),
		zap.String("token", p.Token))

	g.broadcast(actpkg.EventPending, p)
	return Decision{Pending: clonePending(p)}
}

// Confirm runs a parked action with the parameters it was submitted with
func (g *Gate) Confirm(ctx context.Context, token string) (*actpkg.Result, error) {
	p, err := g.take(token)
	if err != nil {
		return nil, err
	}

	g.logger.Info("action confirmed",
		zap.String("action_id", p.ActionID),
		zap.String("token", token))

	return g.executor.Execute(withConfirmation(ctx), p.ActionID, p.Parameters.Clone(), p.UserID), nil
}

// Cancel discards a parked action. Nothing is written to history.
func (g *Gate) Cancel(token string) error {
	p, err := g.take(token)
	if err != nil {
		return err
	}

	g.logger.Info("action cancelled",
		zap.String("action_id", p.ActionID),
		zap.String("token", token))

	g.broadcast(actpkg.EventCancelled, p)
	return nil
}

// Pending lists outstanding confirmations, oldest first
func (g *Gate) Pending() []*actpkg.Pending {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expireLocked()

	out := make([]*actpkg.Pending, 0, len(g.pending))
	for _, p := range g.pending {
		out = append(out, clonePending(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (g *Gate) take(token string) (*actpkg.Pending, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, exists := g.pending[token]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrNoPendingAction, token)
	}
	delete(g.pending, token)

	if g.expired(p) {
		return nil, fmt.Errorf("%w: %s", core.ErrPendingExpired, token)
	}
	return p, nil
}

func (g *Gate) expireLocked() {
	for token, p := range g.pending {
		if g.expired(p) {
			delete(g.pending, token)
		}
	}
}

func (g *Gate) expired(p *actpkg.Pending) bool {
	return g.ttl > 0 && g.now().Sub(p.CreatedAt) > g.ttl
}

func (g *Gate) broadcast(t actpkg.EventType, p *actpkg.Pending) {
	if g.notifier == nil {
		return
	}

	status := actpkg.StatusPending
	if t == actpkg.EventCancelled {
		status = actpkg.StatusCancelled
	}

	// The execution here only describes the request; it is not in history
	g.notifier.Notify(actpkg.Event{
		Type:      t,
		Timestamp: g.now(),
		Pending:   clonePending(p),
		Execution: &actpkg.Execution{
			ID:         p.Token,
			ActionID:   p.ActionID,
			ActionName: p.ActionName,
			Parameters: p.Parameters.Clone(),
			Status:     status,
			StartTime:  p.CreatedAt,
			UserID:     p.UserID,
		},
	})
}

func clonePending(p *actpkg.Pending) *actpkg.Pending {
	c := *p
	c.Parameters = p.Parameters.Clone()
	return &c
}
