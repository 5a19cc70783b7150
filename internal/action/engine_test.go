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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu    sync.Mutex
	saved []*actpkg.Execution
	err   error
}

func (s *recordingSink) Save(ctx context.Context, exec *actpkg.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, exec.Clone())
	return s.err
}

func newTestEngine(opts EngineOptions, actions ...*actpkg.Action) (*Engine, *History, *Notifier) {
	registry := NewRegistry()
	for _, a := range actions {
		registry.Register(a)
	}
	history := NewHistory(nil, nil)
	notifier := NewNotifier(nil)
	return NewEngine(registry, history, notifier, opts), history, notifier
}

func TestEngine_Execute(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		engine, history, _ := newTestEngine(EngineOptions{}, testAction("a"))

		result := engine.Execute(context.Background(), "a", actpkg.Params{}, "user1")
		require.NotNil(t, result)
		assert.True(t, result.Success)
		assert.Equal(t, "a done", result.Message)

		records := history.All()
		require.Len(t, records, 1)
		rec := records[0]
		assert.Equal(t, actpkg.StatusSuccess, rec.Status)
		assert.Equal(t, "user1", rec.UserID)
		assert.Equal(t, "Action a", rec.ActionName)
		require.NotNil(t, rec.EndTime)
		assert.False(t, rec.EndTime.Before(rec.StartTime))
		require.NotNil(t, rec.Result)
		assert.True(t, rec.Result.Success)
		assert.Same(t, history, engine.History())
	})

	t.Run("Action Not Found", func(t *testing.T) {
		engine, history, _ := newTestEngine(EngineOptions{})

		var result *actpkg.Result
		assert.NotPanics(t, func() {
			result = engine.Execute(context.Background(), "nonexistent-action", actpkg.Params{}, "user1")
		})
		assert.False(t, result.Success)
		assert.Equal(t, MessageActionNotFound, result.Message)
		assert.Contains(t, result.Error, "nonexistent-action")

		records := history.All()
		require.Len(t, records, 1)
		assert.Equal(t, actpkg.StatusFailed, records[0].Status)
		assert.Equal(t, "nonexistent-action", records[0].ActionID)
	})

	t.Run("Confirmation Required Refused", func(t *testing.T) {
		calls := 0
		engine, history, _ := newTestEngine(EngineOptions{}, confirmAction("price", &calls))

		result := engine.Execute(context.Background(), "price", actpkg.Params{"newPrice": 3500.0}, "user1")
		assert.False(t, result.Success)
		assert.Equal(t, MessageConfirmationRequired, result.Message)
		assert.Contains(t, result.Error, "price")
		assert.Equal(t, 0, calls)

		records := history.All()
		require.Len(t, records, 1)
		assert.Equal(t, actpkg.StatusFailed, records[0].Status)
		assert.Equal(t, "Action price", records[0].ActionName)

		result = engine.Execute(withConfirmation(context.Background()), "price", actpkg.Params{"newPrice": 3500.0}, "user1")
		assert.True(t, result.Success)
		assert.Equal(t, 1, calls)
	})

	t.Run("Result Data Is Not Shared", func(t *testing.T) {
		a := testAction("a")
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			return &actpkg.Result{Success: true, Message: "report", Data: map[string]interface{}{
				"total":       100,
				"topProducts": []map[string]interface{}{{"name": "Aqua"}},
			}}, nil
		}
		engine, history, notifier := newTestEngine(EngineOptions{}, a)
		notifier.Subscribe(func(e actpkg.Event) {
			if e.Execution.Result != nil {
				e.Execution.Result.Data["tampered"] = true
			}
		})

		result := engine.Execute(context.Background(), "a", nil, "user1")
		result.Data["total"] = 999
		result.Data["topProducts"].([]map[string]interface{})[0]["name"] = "changed"

		rec := history.All()[0]
		assert.Equal(t, map[string]interface{}{
			"total":       100,
			"topProducts": []map[string]interface{}{{"name": "Aqua"}},
		}, rec.Result.Data)
	})

	t.Run("Handler Error", func(t *testing.T) {
		a := testAction("a")
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			return nil, errors.New("database offline")
		}
		engine, history, _ := newTestEngine(EngineOptions{}, a)

		result := engine.Execute(context.Background(), "a", nil, "user1")
		assert.False(t, result.Success)
		assert.Equal(t, MessageExecutionFailed, result.Message)
		assert.Equal(t, "database offline", result.Error)

		rec := history.All()[0]
		assert.Equal(t, actpkg.StatusFailed, rec.Status)
		assert.NotEmpty(t, rec.Result.Error)
	})

	t.Run("Handler Panic", func(t *testing.T) {
		a := testAction("a")
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			panic("boom")
		}
		engine, history, _ := newTestEngine(EngineOptions{}, a)

		var result *actpkg.Result
		require.NotPanics(t, func() {
			result = engine.Execute(context.Background(), "a", nil, "user1")
		})
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "boom")
		assert.Equal(t, actpkg.StatusFailed, history.All()[0].Status)
	})

	t.Run("Nil Result", func(t *testing.T) {
		a := testAction("a")
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			return nil, nil
		}
		engine, _, _ := newTestEngine(EngineOptions{}, a)

		result := engine.Execute(context.Background(), "a", nil, "user1")
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("Unsuccessful Result Is Failed", func(t *testing.T) {
		a := testAction("a")
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			return &actpkg.Result{Success: false, Message: "Product not found"}, nil
		}
		engine, history, _ := newTestEngine(EngineOptions{}, a)

		result := engine.Execute(context.Background(), "a", nil, "user1")
		assert.Equal(t, "Product not found", result.Message)
		assert.Equal(t, actpkg.StatusFailed, history.All()[0].Status)
	})

	t.Run("Invalid Parameters", func(t *testing.T) {
		called := false
		a := testAction("a")
		a.Parameters = []actpkg.Parameter{{Name: "newPrice", Type: actpkg.ParamNumber, Required: true}}
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			called = true
			return &actpkg.Result{Success: true}, nil
		}
		engine, history, _ := newTestEngine(EngineOptions{}, a)

		result := engine.Execute(context.Background(), "a", actpkg.Params{"newPrice": "cheap"}, "user1")
		assert.False(t, called)
		assert.False(t, result.Success)
		assert.Equal(t, MessageInvalidParameters, result.Message)
		assert.Contains(t, result.Error, "newPrice")
		assert.Equal(t, 1, history.Len())
	})

	t.Run("Parameters Are Normalized", func(t *testing.T) {
		var got actpkg.Params
		a := testAction("a")
		a.Parameters = []actpkg.Parameter{
			{Name: "days", Type: actpkg.ParamNumber, DefaultValue: float64(30)},
			{Name: "period", Type: actpkg.ParamEnum, EnumOptions: []string{"today", "week"}},
		}
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			got = params
			return &actpkg.Result{Success: true}, nil
		}
		engine, history, _ := newTestEngine(EngineOptions{}, a)

		engine.Execute(context.Background(), "a", actpkg.Params{"period": "WEEK"}, "user1")
		assert.Equal(t, float64(30), got["days"])
		assert.Equal(t, "week", got["period"])
		assert.Equal(t, "week", history.All()[0].Parameters["period"])
	})

	t.Run("Duration Measured By Engine", func(t *testing.T) {
		a := testAction("a")
		a.Handler = func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
			time.Sleep(10 * time.Millisecond)
			return &actpkg.Result{Success: true, Duration: time.Hour}, nil
		}
		engine, _, _ := newTestEngine(EngineOptions{}, a)

		result := engine.Execute(context.Background(), "a", nil, "user1")
		assert.GreaterOrEqual(t, result.Duration, 10*time.Millisecond)
		assert.Less(t, result.Duration, time.Hour)
	})

	t.Run("One Record Per Execute", func(t *testing.T) {
		engine, history, _ := newTestEngine(EngineOptions{}, testAction("a"), testAction("b"))
		ctx := context.Background()

		engine.Execute(ctx, "a", nil, "u1")
		engine.Execute(ctx, "b", nil, "u2")
		engine.Execute(ctx, "missing", nil, "u1")
		engine.Execute(ctx, "a", nil, "u2")

		assert.Equal(t, 4, history.Len())
		assert.Len(t, history.ByAction("a"), 2)
		assert.Len(t, history.ByUser("u1"), 2)
	})
}

func TestEngine_Events(t *testing.T) {
	engine, _, notifier := newTestEngine(EngineOptions{}, testAction("a"))

	var events []actpkg.Event
	notifier.Subscribe(func(e actpkg.Event) { events = append(events, e) })

	engine.Execute(context.Background(), "a", nil, "user1")

	require.Len(t, events, 2)
	assert.Equal(t, actpkg.EventExecuting, events[0].Type)
	assert.Equal(t, actpkg.StatusExecuting, events[0].Execution.Status)
	assert.Equal(t, actpkg.EventSuccess, events[1].Type)
	assert.Equal(t, actpkg.StatusSuccess, events[1].Execution.Status)
	assert.Equal(t, events[0].Execution.ID, events[1].Execution.ID)
}

func TestEngine_Sink(t *testing.T) {
	registry := NewRegistry()
	registry.Register(testAction("a"))
	sink := &recordingSink{}
	engine := NewEngine(registry, NewHistory(sink, nil), nil, EngineOptions{})

	engine.Execute(context.Background(), "a", nil, "user1")

	require.Len(t, sink.saved, 2)
	assert.Equal(t, actpkg.StatusExecuting, sink.saved[0].Status)
	assert.Equal(t, actpkg.StatusSuccess, sink.saved[1].Status)
}

func TestEngine_Serialize(t *testing.T) {
	tests := []struct {
		mode        SerializeMode
		ids         []string
		wantOverlap bool
	}{
		{mode: SerializeNone, ids: []string{"a", "a"}, wantOverlap: true},
		{mode: SerializeAction, ids: []string{"a", "a"}, wantOverlap: false},
		{mode: SerializeAction, ids: []string{"a", "b"}, wantOverlap: true},
		{mode: SerializeGlobal, ids: []string{"a", "b"}, wantOverlap: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode)+" "+tt.ids[0]+tt.ids[1], func(t *testing.T) {
			var running, maxRunning int32
			started := make(chan struct{}, 2)
			handler := func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				started <- struct{}{}
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return &actpkg.Result{Success: true}, nil
			}

			a, b := testAction("a"), testAction("b")
			a.Handler, b.Handler = handler, handler
			engine, history, _ := newTestEngine(EngineOptions{Serialize: tt.mode}, a, b)

			var wg sync.WaitGroup
			for _, id := range tt.ids {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					engine.Execute(context.Background(), id, nil, "user1")
				}(id)
			}
			wg.Wait()

			assert.Equal(t, tt.wantOverlap, atomic.LoadInt32(&maxRunning) == 2)
			assert.Equal(t, 2, history.Len())
		})
	}
}

func TestParseSerializeMode(t *testing.T) {
	for _, s := range []string{"", "none", "action", "global"} {
		_, err := ParseSerializeMode(s)
		assert.NoError(t, err, s)
	}
	mode, _ := ParseSerializeMode("")
	assert.Equal(t, SerializeNone, mode)

	_, err := ParseSerializeMode("per-user")
	assert.Error(t, err)
}
