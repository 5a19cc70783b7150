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
	"testing"
	"time"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/builtin"
	"github.com/rizome-dev/kasir/internal/intent"
	"github.com/rizome-dev/kasir/internal/store"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	assistant *Assistant
	detector  *intent.Detector
	history   *action.History
	gateway   *store.Memory
}

func newFixture(t *testing.T, opts intent.Options) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	gw := store.NewMemory(store.DemoSnapshot(now))

	registry := action.NewRegistry()
	builtin.Register(registry, builtin.Deps{Gateway: gw, Now: func() time.Time { return now }})

	detector := intent.NewDetector(registry, opts)
	notifier := action.NewNotifier(nil)
	history := action.NewHistory(nil, nil)
	engine := action.NewEngine(registry, history, notifier, action.EngineOptions{})
	gate := action.NewGate(engine, notifier, action.GateOptions{})

	return &fixture{
		assistant: New(registry, detector, gate, engine, nil),
		detector:  detector,
		history:   history,
		gateway:   gw,
	}
}

func (f *fixture) price(t *testing.T, id string) float64 {
	t.Helper()
	products, err := f.gateway.Products(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		if p.ID == id {
			return p.Price
		}
	}
	t.Fatalf("product %s missing", id)
	return 0
}

func TestAssistant_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("NotUnderstood", func(t *testing.T) {
		f := newFixture(t, intent.Options{})

		reply := f.assistant.Handle(ctx, "apa kabar", "owner")
		assert.Equal(t, KindNotUnderstood, reply.Kind)
		assert.NotEmpty(t, reply.Message)
		assert.Nil(t, reply.Action)
		assert.Zero(t, f.history.Len())
	})

	t.Run("Executed", func(t *testing.T) {
		f := newFixture(t, intent.Options{})

		reply := f.assistant.Handle(ctx, "Buatkan laporan penjualan hari ini", "owner")
		require.Equal(t, KindExecuted, reply.Kind)
		require.NotNil(t, reply.Result)
		assert.True(t, reply.Result.Success)
		assert.Equal(t, reply.Result.Message, reply.Message)
		assert.Equal(t, actpkg.PeriodToday, reply.Parameters["period"])

		records := f.history.All()
		require.Len(t, records, 1)
		assert.Equal(t, "owner", records[0].UserID)
		assert.Equal(t, actpkg.StatusSuccess, records[0].Status)
	})

	t.Run("IncompleteMissing", func(t *testing.T) {
		f := newFixture(t, intent.Options{})

		reply := f.assistant.Handle(ctx, "Change the price of Aqua please", "owner")
		require.Equal(t, KindIncomplete, reply.Kind)
		assert.Equal(t, actpkg.IDUpdateProductPrice, reply.Action.ID)
		assert.Equal(t, []string{"productId", "newPrice"}, reply.Missing)
		assert.Equal(t, "Update Product Price needs: product id or name, new price in rupiah", reply.Message)
		assert.Zero(t, f.history.Len())
	})

	t.Run("IncompleteInvalid", func(t *testing.T) {
		f := newFixture(t, intent.Options{})
		f.detector.SetExtractor(actpkg.IDGenerateSalesReport, func(string) (actpkg.Params, bool) {
			return actpkg.Params{"period": "yearly"}, true
		})

		reply := f.assistant.Handle(ctx, "Show me today's sales summary", "owner")
		require.Equal(t, KindIncomplete, reply.Kind)
		assert.Contains(t, reply.Invalid, "period")
		assert.Equal(t, "Generate Sales Report got invalid values for: period", reply.Message)
	})

	t.Run("BelowThreshold", func(t *testing.T) {
		f := newFixture(t, intent.Options{Threshold: 0.85})

		// example matches carry 0.8
		reply := f.assistant.Handle(ctx, "Tampilkan ringkasan penjualan bulan ini", "owner")
		assert.Equal(t, KindNotUnderstood, reply.Kind)
		assert.Equal(t, actpkg.IDGenerateSalesReport, reply.Intent.DetectedActionID)
	})

	t.Run("UnregisteredAction", func(t *testing.T) {
		f := newFixture(t, intent.Options{Rules: []intent.Rule{
			{ActionID: "ghost", Verbs: []string{"panggil"}, Nouns: []string{"hantu"}, Confidence: 0.9},
		}})

		reply := f.assistant.Handle(ctx, "panggil hantu", "owner")
		assert.Equal(t, KindNotUnderstood, reply.Kind)
		assert.Zero(t, f.history.Len())
	})
}

func TestAssistant_Confirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("Confirm", func(t *testing.T) {
		f := newFixture(t, intent.Options{})

		reply := f.assistant.Handle(ctx, "Update harga Indomie jadi 3500", "owner")
		require.Equal(t, KindNeedsConfirmation, reply.Kind)
		require.NotNil(t, reply.Pending)
		assert.Equal(t, "💰 Update Product Price (newPrice=3500, productId=Indomie)?", reply.Message)

		// nothing runs before confirmation
		assert.Zero(t, f.history.Len())
		assert.Equal(t, 3000.0, f.price(t, "p-indomie"))
		assert.Len(t, f.assistant.Pending(), 1)

		result, err := f.assistant.Confirm(ctx, reply.Pending.Token)
		require.NoError(t, err)
		assert.True(t, result.Success, result.Message)
		assert.Equal(t, 3500.0, f.price(t, "p-indomie"))
		assert.Equal(t, 1, f.history.Len())
		assert.Empty(t, f.assistant.Pending())

		_, err = f.assistant.Confirm(ctx, reply.Pending.Token)
		assert.Error(t, err, "tokens are single use")
	})

	t.Run("Cancel", func(t *testing.T) {
		f := newFixture(t, intent.Options{})

		reply := f.assistant.Handle(ctx, "update stok Aqua 600ml jadi 24", "owner")
		require.Equal(t, KindNeedsConfirmation, reply.Kind)

		require.NoError(t, f.assistant.Cancel(reply.Pending.Token))
		assert.Zero(t, f.history.Len())
		assert.Empty(t, f.assistant.Pending())

		products, err := f.gateway.Products(ctx)
		require.NoError(t, err)
		assert.Contains(t, products, business.Product{
			ID: "p-aqua", Name: "Aqua 600ml", Category: "Minuman", Price: 4000, Stock: 48,
			UpdatedAt: time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
		})
	})
}

func TestDescribeParams(t *testing.T) {
	assert.Equal(t, "", describeParams(nil))
	assert.Equal(t, "(a=1, b=two)", describeParams(actpkg.Params{"b": "two", "a": 1}))
}
