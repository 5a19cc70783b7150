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
	"fmt"
	"sort"
	"strings"
	"sync"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/core"
)

// Registry holds the catalog of executable actions
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*actpkg.Action
	order   []string // registration order, used by intent detection
}

// NewRegistry creates an empty action registry
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]*actpkg.Action),
	}
}

// Register inserts an action, replacing any action with the same ID.
// A replaced action keeps its original position.
func (r *Registry) Register(a *actpkg.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.actions[a.ID] = a
}

// Get retrieves an action by ID
func (r *Registry) Get(id string) (*actpkg.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[id]
	return a, exists
}

// All returns every action in registration order
func (r *Registry) All() []*actpkg.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]*actpkg.Action, 0, len(r.order))
	for _, id := range r.order {
		actions = append(actions, r.actions[id])
	}
	return actions
}

// Len returns the number of registered actions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// AddExamples appends detection phrases to a registered action
func (r *Registry) AddExamples(id string, phrases ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.actions[id]
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrActionNotFound, id)
	}

	// Actions are shared by pointer, so copy before changing
	updated := *a
	updated.Examples = append(append([]string(nil), a.Examples...), phrases...)
	r.actions[id] = &updated
	return nil
}

// ListByCategory returns actions grouped by category
func (r *Registry) ListByCategory() map[string][]*actpkg.Action {
	categories := make(map[string][]*actpkg.Action)

	for _, a := range r.All() {
		category := a.Category
		if category == "" {
			category = "Other"
		}
		categories[category] = append(categories[category], a)
	}

	for _, actions := range categories {
		sort.Slice(actions, func(i, j int) bool {
			return actions[i].ID < actions[j].ID
		})
	}

	return categories
}

// Search returns actions whose id, name or description contain query
func (r *Registry) Search(query string) []*actpkg.Action {
	query = strings.ToLower(query)
	var matches []*actpkg.Action

	for _, a := range r.All() {
		if strings.Contains(strings.ToLower(a.ID), query) ||
			strings.Contains(strings.ToLower(a.Name), query) ||
			strings.Contains(strings.ToLower(a.Description), query) {
			matches = append(matches, a)
		}
	}

	// Name matches first
	sort.SliceStable(matches, func(i, j int) bool {
		iName := strings.Contains(strings.ToLower(matches[i].Name), query)
		jName := strings.Contains(strings.ToLower(matches[j].Name), query)
		return iName && !jName
	})

	return matches
}

// Validate reports schema problems that Register does not check
func Validate(a *actpkg.Action) error {
	if a.ID == "" {
		return fmt.Errorf("action id is required")
	}
	if a.Handler == nil {
		return fmt.Errorf("action %s: handler is required", a.ID)
	}

	names := make(map[string]bool)
	for _, p := range a.Parameters {
		if p.Name == "" {
			return fmt.Errorf("action %s: parameter name is required", a.ID)
		}
		if names[p.Name] {
			return fmt.Errorf("action %s: duplicate parameter name: %s", a.ID, p.Name)
		}
		names[p.Name] = true

		switch p.Type {
		case actpkg.ParamString, actpkg.ParamNumber, actpkg.ParamBoolean:
		case actpkg.ParamEnum:
			if len(p.EnumOptions) == 0 {
				return fmt.Errorf("action %s: enum parameter %s has no options", a.ID, p.Name)
			}
			if p.DefaultValue != nil && !containsFold(p.EnumOptions, fmt.Sprint(p.DefaultValue)) {
				return fmt.Errorf("action %s: default %v of %s is not an option", a.ID, p.DefaultValue, p.Name)
			}
		default:
			return fmt.Errorf("action %s: parameter %s has unknown type %q", a.ID, p.Name, p.Type)
		}
	}

	return nil
}

func containsFold(options []string, s string) bool {
	for _, opt := range options {
		if strings.EqualFold(opt, s) {
			return true
		}
	}
	return false
}
