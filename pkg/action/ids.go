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

// Built-in action IDs
const (
	IDGenerateSalesReport   = "generate-sales-report"
	IDUpdateProductPrice    = "update-product-price"
	IDUpdateProductStock    = "update-product-stock"
	IDBackupData            = "backup-data"
	IDDeleteOldTransactions = "delete-old-transactions"
	IDClearCache            = "clear-cache"
)

// Report periods accepted by the sales report action
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)
