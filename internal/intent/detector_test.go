package intent

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
	"testing"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/builtin"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuiltinDetector(t *testing.T) (*Detector, *action.Registry) {
	t.Helper()
	registry := action.NewRegistry()
	builtin.Register(registry, builtin.Deps{})
	return NewDetector(registry, Options{}), registry
}

func TestDetector_ExamplesDetectOwnAction(t *testing.T) {
	detector, registry := newBuiltinDetector(t)

	for _, a := range registry.All() {
		for _, example := range a.Examples {
			t.Run(example, func(t *testing.T) {
				got := detector.Detect(example)
				assert.Equal(t, a.ID, got.DetectedActionID)
				assert.GreaterOrEqual(t, got.Confidence, DefaultThreshold)
				assert.Equal(t, example, got.RawMessage)
			})
		}
	}
}

func TestDetector_Scenarios(t *testing.T) {
	detector, _ := newBuiltinDetector(t)

	tests := []struct {
		name           string
		message        string
		wantAction     string
		wantConfidence float64
		wantParams     actpkg.Params
	}{
		{
			name:           "Sales report today",
			message:        "Buatkan laporan penjualan hari ini",
			wantAction:     actpkg.IDGenerateSalesReport,
			wantConfidence: 0.9,
			wantParams:     actpkg.Params{"period": actpkg.PeriodToday},
		},
		{
			name:           "Price update",
			message:        "Update harga Indomie jadi 3500",
			wantAction:     actpkg.IDUpdateProductPrice,
			wantConfidence: 0.85,
			wantParams:     actpkg.Params{"productId": "Indomie", "newPrice": 3500.0},
		},
		{
			name:           "Price with thousands separator",
			message:        "ganti harga Teh Botol Sosro menjadi Rp 5.500",
			wantAction:     actpkg.IDUpdateProductPrice,
			wantConfidence: 0.85,
			wantParams:     actpkg.Params{"productId": "Teh Botol Sosro", "newPrice": 5500.0},
		},
		{
			name:           "Stock update",
			message:        "update stok Aqua 600ml jadi 24",
			wantAction:     actpkg.IDUpdateProductStock,
			wantConfidence: 0.85,
			wantParams:     actpkg.Params{"productId": "Aqua 600ml", "newStock": 24.0},
		},
		{
			name:           "Purge with days",
			message:        "bersihkan transaksi 45 hari",
			wantAction:     actpkg.IDDeleteOldTransactions,
			wantConfidence: 0.85,
			wantParams:     actpkg.Params{"days": 45.0},
		},
		{
			name:           "Purge close to an example",
			message:        "hapus transaksi lebih dari 45 hari",
			wantAction:     actpkg.IDDeleteOldTransactions,
			wantConfidence: ExampleConfidence,
			wantParams:     actpkg.Params{"days": 45.0},
		},
		{
			name:           "Backup",
			message:        "tolong backup data",
			wantAction:     actpkg.IDBackupData,
			wantConfidence: 0.9,
			wantParams:     actpkg.Params{},
		},
		{
			name:           "Clear cache",
			message:        "reset cache",
			wantAction:     actpkg.IDClearCache,
			wantConfidence: 0.9,
			wantParams:     actpkg.Params{},
		},
		{
			name:           "Example match extracts period",
			message:        "Tampilkan ringkasan penjualan bulan ini",
			wantAction:     actpkg.IDGenerateSalesReport,
			wantConfidence: ExampleConfidence,
			wantParams:     actpkg.Params{"period": actpkg.PeriodMonth},
		},
		{
			name:       "Small talk",
			message:    "apa kabar",
			wantParams: actpkg.Params{},
		},
		{
			name:       "Price without amount falls through",
			message:    "ubah harga Indomie",
			wantParams: actpkg.Params{},
		},
		{
			name:       "Empty",
			message:    "",
			wantParams: actpkg.Params{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(tt.message)
			assert.Equal(t, tt.wantAction, got.DetectedActionID)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantParams, got.ExtractedParameters)
			assert.Equal(t, tt.wantAction != "", got.Detected())
		})
	}
}

func TestDetector_IsActionRequest(t *testing.T) {
	registry := action.NewRegistry()
	rules := []Rule{
		{ActionID: "exact", Verbs: []string{"exact"}, Nouns: []string{"boundary"}, Confidence: 0.7},
		{ActionID: "above", Verbs: []string{"above"}, Nouns: []string{"boundary"}, Confidence: 0.71},
	}
	detector := NewDetector(registry, Options{Rules: rules})

	assert.False(t, detector.IsActionRequest("exact boundary"), "0.7 is not above the threshold")
	assert.True(t, detector.IsActionRequest("above boundary"))
	assert.False(t, detector.IsActionRequest("apa kabar"))

	builtinDetector, _ := newBuiltinDetector(t)
	assert.True(t, builtinDetector.IsActionRequest("Buatkan laporan penjualan hari ini"))
	assert.False(t, builtinDetector.IsActionRequest("selamat pagi semuanya"))
}

func TestDetector_Options(t *testing.T) {
	registry := action.NewRegistry()

	assert.Equal(t, DefaultThreshold, NewDetector(registry, Options{}).Threshold())
	assert.Equal(t, 0.5, NewDetector(registry, Options{Threshold: 0.5}).Threshold())

	detector := NewDetector(registry, Options{Rules: []Rule{}})
	assert.False(t, detector.Detect("buat laporan").Detected(), "empty rule set disables rules")
}

func TestDetector_FirstExampleMatchWins(t *testing.T) {
	registry := action.NewRegistry()
	first := &actpkg.Action{ID: "first", Examples: []string{"kirim pesanan pelanggan"}}
	second := &actpkg.Action{ID: "second", Examples: []string{"kirim pesanan pelanggan sekarang"}}
	registry.Register(first)
	registry.Register(second)
	detector := NewDetector(registry, Options{Rules: []Rule{}})

	got := detector.Detect("tolong kirim pesanan pelanggan sekarang")
	assert.Equal(t, "first", got.DetectedActionID)
	assert.Equal(t, ExampleConfidence, got.Confidence)
}

func TestDetector_ExampleRatio(t *testing.T) {
	registry := action.NewRegistry()
	// five significant words: three is exactly the 60% ratio, two is not
	registry.Register(&actpkg.Action{ID: "a", Examples: []string{"alpha bravo charlie delta echo"}})
	detector := NewDetector(registry, Options{Rules: []Rule{}})

	assert.Equal(t, "a", detector.Detect("ALPHA, bravo & charlie!").DetectedActionID)
	assert.False(t, detector.Detect("alpha bravo").Detected())
	assert.False(t, detector.Detect("alp bra cha").Detected(), "short words are ignored")
}

func TestDetector_ExtractParameters(t *testing.T) {
	detector, _ := newBuiltinDetector(t)

	got := detector.ExtractParameters("update harga Kopi ke 2000", actpkg.IDUpdateProductPrice)
	assert.Equal(t, actpkg.Params{"productId": "Kopi", "newPrice": 2000.0}, got)

	assert.Equal(t, actpkg.Params{}, detector.ExtractParameters("backup", actpkg.IDBackupData))
	assert.Equal(t, actpkg.Params{}, detector.ExtractParameters("update harga", actpkg.IDUpdateProductPrice))

	detector.SetExtractor(actpkg.IDBackupData, func(message string) (actpkg.Params, bool) {
		return actpkg.Params{"target": "usb"}, true
	})
	assert.Equal(t, actpkg.Params{"target": "usb"}, detector.ExtractParameters("backup", actpkg.IDBackupData))
}

func TestExtractors(t *testing.T) {
	t.Run("Period", func(t *testing.T) {
		tests := map[string]string{
			"laporan hari ini":     actpkg.PeriodToday,
			"report for this week": actpkg.PeriodWeek,
			"laporan minggu ini":   actpkg.PeriodWeek,
			"laporan bulan ini":    actpkg.PeriodMonth,
			"monthly report":       actpkg.PeriodMonth,
			"laporan":              actpkg.PeriodToday,
		}
		for message, want := range tests {
			got, ok := ExtractPeriod(message)
			require.True(t, ok)
			assert.Equal(t, want, got["period"], message)
		}
	})

	t.Run("Price", func(t *testing.T) {
		tests := []struct {
			message string
			name    string
			price   float64
			ok      bool
		}{
			{"update harga Indomie jadi 3500", "Indomie", 3500, true},
			{"change the price of Aqua to 4,000", "Aqua", 4000, true},
			{"ubah harga produk \"Gula Pasir\" menjadi 18.000 rupiah", "Gula Pasir", 18000, true},
			{"update harga Indomie", "", 0, false},
			{"update harga Indomie jadi murah", "", 0, false},
		}
		for _, tt := range tests {
			t.Run(tt.message, func(t *testing.T) {
				got, ok := ExtractPriceUpdate(tt.message)
				require.Equal(t, tt.ok, ok)
				if !tt.ok {
					return
				}
				assert.Equal(t, tt.name, got["productId"])
				assert.Equal(t, tt.price, got["newPrice"])
			})
		}
	})

	t.Run("Stock", func(t *testing.T) {
		got, ok := ExtractStockUpdate("Change stock of Aqua Botol to 24 units")
		require.True(t, ok)
		assert.Equal(t, actpkg.Params{"productId": "Aqua Botol", "newStock": 24.0}, got)

		_, ok = ExtractStockUpdate("cek stok")
		assert.False(t, ok)
	})

	t.Run("Days", func(t *testing.T) {
		got, ok := ExtractDays("Delete transactions older than 60 days")
		require.True(t, ok)
		assert.Equal(t, 60.0, got["days"])

		got, ok = ExtractDays("hapus transaksi yang lebih dari 90 hari")
		require.True(t, ok)
		assert.Equal(t, 90.0, got["days"])

		got, ok = ExtractDays("hapus transaksi lebih dari 2 minggu")
		require.True(t, ok)
		assert.Equal(t, 14.0, got["days"])

		got, ok = ExtractDays("delete transactions older than 3 months")
		require.True(t, ok)
		assert.Equal(t, 90.0, got["days"])

		got, ok = ExtractDays("hapus transaksi lama")
		assert.True(t, ok, "days is optional")
		assert.Empty(t, got)
	})
}
