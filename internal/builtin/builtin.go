// Package builtin provides the actions kasir ships with.
package builtin

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
	"strconv"
	"strings"
	"time"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/backup"
	"github.com/rizome-dev/kasir/internal/cache"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/business"
)

// Deps are the collaborators built-in handlers close over
type Deps struct {
	Gateway business.Gateway
	// Backup may be nil, in which case backup-data fails
	Backup *backup.Writer
	// Cache may be nil, in which case nothing is cached
	Cache *cache.FileCache
	Now   func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Register adds every built-in action to r, in detection order
func Register(r *action.Registry, deps Deps) {
	for _, a := range Actions(deps) {
		r.Register(a)
	}
}

// Actions returns the built-in actions bound to deps
func Actions(deps Deps) []*actpkg.Action {
	return []*actpkg.Action{
		{
			ID:          actpkg.IDGenerateSalesReport,
			Name:        "Generate Sales Report",
			Description: "Summarize sales for today, this week or this month",
			Icon:        "📊",
			Category:    "Reports",
			Parameters: []actpkg.Parameter{
				{
					Name:         "period",
					Description:  "Report period",
					Type:         actpkg.ParamEnum,
					DefaultValue: actpkg.PeriodToday,
					EnumOptions:  []string{actpkg.PeriodToday, actpkg.PeriodWeek, actpkg.PeriodMonth},
				},
			},
			Examples: []string{
				"Generate sales report for this month",
				"Tampilkan ringkasan penjualan minggu ini",
				"Show me today's sales summary",
			},
			Handler: salesReportHandler(deps),
		},
		{
			ID:                   actpkg.IDUpdateProductPrice,
			Name:                 "Update Product Price",
			Description:          "Change the selling price of a product",
			Icon:                 "💰",
			Category:             "Inventory",
			RequiresConfirmation: true,
			Parameters: []actpkg.Parameter{
				{Name: "productId", Description: "Product id or name", Type: actpkg.ParamString, Required: true},
				{Name: "newPrice", Description: "New price in rupiah", Type: actpkg.ParamNumber, Required: true},
			},
			Examples: []string{
				"Change the price of Aqua to 4000",
				"Ubah harga produk Teh Botol menjadi 5000 rupiah",
			},
			Handler: updatePriceHandler(deps),
		},
		{
			ID:                   actpkg.IDUpdateProductStock,
			Name:                 "Update Product Stock",
			Description:          "Set the stock level of a product",
			Icon:                 "📦",
			Category:             "Inventory",
			RequiresConfirmation: true,
			Parameters: []actpkg.Parameter{
				{Name: "productId", Description: "Product id or name", Type: actpkg.ParamString, Required: true},
				{Name: "newStock", Description: "New stock level", Type: actpkg.ParamNumber, Required: true},
			},
			Examples: []string{
				"Change stock of Aqua Botol to 24 units",
				"Ubah stok Gula Pasir menjadi 50",
			},
			Handler: updateStockHandler(deps),
		},
		{
			ID:          actpkg.IDBackupData,
			Name:        "Backup Data",
			Description: "Write a full backup of products, transactions and employees",
			Icon:        "💾",
			Category:    "Maintenance",
			Examples: []string{
				"Backup semua data sekarang",
				"Create a full backup of my data",
			},
			Handler: backupHandler(deps),
		},
		{
			ID:                   actpkg.IDDeleteOldTransactions,
			Name:                 "Delete Old Transactions",
			Description:          "Permanently delete transactions older than a number of days",
			Icon:                 "🗑️",
			Category:             "Maintenance",
			RequiresConfirmation: true,
			Parameters: []actpkg.Parameter{
				{Name: "days", Description: "Minimum age in days", Type: actpkg.ParamNumber, DefaultValue: float64(30)},
			},
			Examples: []string{
				"Hapus transaksi yang lebih dari 90 hari",
				"Delete transactions older than 60 days",
			},
			Handler: purgeHandler(deps),
		},
		{
			ID:          actpkg.IDClearCache,
			Name:        "Clear Cache",
			Description: "Remove locally cached reports",
			Icon:        "🧹",
			Category:    "Maintenance",
			Examples: []string{
				"Bersihkan cache aplikasi",
				"Clear the local cache",
			},
			Handler: clearCacheHandler(deps),
		},
	}
}

// formatRupiah renders 12500 as "Rp 12.500"
func formatRupiah(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(int64(amount+0.5), 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if negative {
		return fmt.Sprintf("-Rp %s", b.String())
	}
	return fmt.Sprintf("Rp %s", b.String())
}
