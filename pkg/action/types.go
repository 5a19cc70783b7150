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
	"maps"
	"slices"
	"time"
)

// Handler runs an action against live business state. The gateway is
// captured by the closure that builds the handler.
type Handler func(ctx context.Context, params Params) (*Result, error)

// Action represents an operation the assistant can perform
type Action struct {
	ID                   string      `json:"id" yaml:"id"`
	Name                 string      `json:"name" yaml:"name"`
	Description          string      `json:"description" yaml:"description"`
	Icon                 string      `json:"icon" yaml:"icon"`
	Category             string      `json:"category" yaml:"category"`
	RequiresConfirmation bool        `json:"requires_confirmation" yaml:"requires_confirmation"`
	Parameters           []Parameter `json:"parameters" yaml:"parameters"`
	Examples             []string    `json:"examples" yaml:"examples"`
	Handler              Handler     `json:"-" yaml:"-"`
}

// Parameter returns the schema entry with the given name
func (a *Action) Parameter(name string) (Parameter, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParameterType defines the type of an action parameter
type ParameterType string

const (
	ParamString  ParameterType = "string"
	ParamNumber  ParameterType = "number"
	ParamBoolean ParameterType = "boolean"
	ParamEnum    ParameterType = "enum"
)

// Parameter defines an action parameter
type Parameter struct {
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description" yaml:"description"`
	Type         ParameterType `json:"type" yaml:"type"`
	Required     bool          `json:"required" yaml:"required"`
	DefaultValue interface{}   `json:"default" yaml:"default"`
	EnumOptions  []string      `json:"enum_options,omitempty" yaml:"enum_options,omitempty"`
}

// Intent is the classification of a single user message
type Intent struct {
	// DetectedActionID is empty when nothing matched
	DetectedActionID    string  `json:"detected_action_id"`
	Confidence          float64 `json:"confidence"`
	ExtractedParameters Params  `json:"extracted_parameters"`
	RawMessage          string  `json:"raw_message"`
}

// Detected reports whether the intent refers to an action
func (i Intent) Detected() bool {
	return i.DetectedActionID != ""
}

// Result is the outcome of running an action handler
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	// Duration is measured by the engine, never by the handler
	Duration time.Duration `json:"-"`
}

// DurationMS returns the wall-clock duration in milliseconds
func (r *Result) DurationMS() int64 {
	return r.Duration.Milliseconds()
}

// Execution represents one attempt to run an action
type Execution struct {
	ID         string     `json:"id"`
	ActionID   string     `json:"action_id"`
	ActionName string     `json:"action_name"`
	Parameters Params     `json:"parameters"`
	Status     Status     `json:"status"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	Result     *Result    `json:"result"`
	UserID     string     `json:"user_id"`
}

// Clone returns a copy that shares no mutable state with e
func (e *Execution) Clone() *Execution {
	c := *e
	c.Parameters = e.Parameters.Clone()
	if e.EndTime != nil {
		end := *e.EndTime
		c.EndTime = &end
	}
	c.Result = e.Result.Clone()
	return &c
}

// Clone returns a copy of r whose Data can be modified freely
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	if r.Data != nil {
		c.Data = copyMap(r.Data)
	}
	return &c
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		c[k] = copyValue(v)
	}
	return c
}

// copyValue copies the container shapes handlers put in result payloads.
// Other values are returned as is.
func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyMap(t)
	case Params:
		return Params(copyMap(t))
	case []interface{}:
		c := make([]interface{}, len(t))
		for i, item := range t {
			c[i] = copyValue(item)
		}
		return c
	case []map[string]interface{}:
		c := make([]map[string]interface{}, len(t))
		for i, item := range t {
			c[i] = copyMap(item)
		}
		return c
	case []string:
		return slices.Clone(t)
	case map[string]int:
		return maps.Clone(t)
	default:
		return v
	}
}

// Status represents the lifecycle state of an execution
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether moving from s to next goes forward
func (s Status) CanTransition(next Status) bool {
	switch s {
	case "":
		return true
	case StatusPending:
		return next == StatusExecuting || next == StatusCancelled || next == StatusFailed
	case StatusExecuting:
		return next == StatusSuccess || next == StatusFailed
	default:
		return false
	}
}

// EventType represents the type of lifecycle event
type EventType string

const (
	EventPending   EventType = "pending"
	EventExecuting EventType = "executing"
	EventSuccess   EventType = "success"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event is broadcast on every execution transition
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Execution is a snapshot, safe to keep
	Execution *Execution `json:"execution,omitempty"`
	// Pending is set for pending and cancelled events
	Pending *Pending `json:"pending,omitempty"`
}

// Listener receives lifecycle events
type Listener func(Event)

// Pending is an action waiting for explicit approval
type Pending struct {
	Token      string    `json:"token"`
	ActionID   string    `json:"action_id"`
	ActionName string    `json:"action_name"`
	Parameters Params    `json:"parameters"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}
