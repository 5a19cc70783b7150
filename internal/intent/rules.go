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
	"strings"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
)

// Rule is a hand-written keyword block: the message must contain one of
// Verbs and one of Nouns
type Rule struct {
	ActionID   string
	Verbs      []string
	Nouns      []string
	Confidence float64
	// Extract is nil for parameter-free actions
	Extract Extractor
}

// Matches reports whether the lowercased message satisfies both keyword sets
func (r Rule) Matches(lower string) bool {
	return containsAny(lower, r.Verbs) && containsAny(lower, r.Nouns)
}

var updateVerbs = []string{"update", "ubah", "ganti", "set", "change"}

// DefaultRules returns the keyword rules for the built-in actions, in
// evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{
			ActionID:   actpkg.IDGenerateSalesReport,
			Verbs:      []string{"buat", "bikin", "generate", "tampilkan", "lihat", "show", "create"},
			Nouns:      []string{"laporan", "report"},
			Confidence: 0.9,
			Extract:    ExtractPeriod,
		},
		{
			ActionID:   actpkg.IDUpdateProductPrice,
			Verbs:      updateVerbs,
			Nouns:      []string{"harga", "price"},
			Confidence: 0.85,
			Extract:    ExtractPriceUpdate,
		},
		{
			ActionID:   actpkg.IDUpdateProductStock,
			Verbs:      updateVerbs,
			Nouns:      []string{"stok", "stock"},
			Confidence: 0.85,
			Extract:    ExtractStockUpdate,
		},
		{
			ActionID:   actpkg.IDDeleteOldTransactions,
			Verbs:      []string{"hapus", "delete", "bersihkan", "purge"},
			Nouns:      []string{"transaksi", "transaction"},
			Confidence: 0.85,
			Extract:    ExtractDays,
		},
		{
			ActionID:   actpkg.IDBackupData,
			Verbs:      []string{"backup", "cadangkan"},
			Nouns:      []string{"data", "semua", "all"},
			Confidence: 0.9,
		},
		{
			ActionID:   actpkg.IDClearCache,
			Verbs:      []string{"hapus", "clear", "bersihkan", "reset"},
			Nouns:      []string{"cache"},
			Confidence: 0.9,
		},
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
