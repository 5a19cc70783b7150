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
	"context"
	"fmt"
	"sort"
	"time"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/business"
)

const topProductCount = 5

// SalesReport summarizes the transactions of one period
type SalesReport struct {
	Period       string
	From         time.Time
	To           time.Time
	Transactions int
	Revenue      float64
	Average      float64
	TopProducts  []ProductSales
}

// ProductSales is the quantity and revenue of one product in a report
type ProductSales struct {
	ProductID string
	Name      string
	Quantity  int
	Revenue   float64
}

// PeriodStart returns the beginning of the report window ending at now
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case actpkg.PeriodWeek:
		return now.AddDate(0, 0, -7)
	case actpkg.PeriodMonth:
		return now.AddDate(0, 0, -30)
	default:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
}

// BuildSalesReport aggregates transactions inside [PeriodStart, now]
func BuildSalesReport(transactions []business.Transaction, period string, now time.Time) SalesReport {
	report := SalesReport{Period: period, From: PeriodStart(period, now), To: now}

	byProduct := make(map[string]*ProductSales)
	for _, t := range transactions {
		if t.CreatedAt.Before(report.From) || t.CreatedAt.After(now) {
			continue
		}
		report.Transactions++
		report.Revenue += t.Total

		for _, item := range t.Items {
			ps, exists := byProduct[item.ProductID]
			if !exists {
				ps = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				byProduct[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
			ps.Revenue += item.Subtotal()
		}
	}

	if report.Transactions > 0 {
		report.Average = report.Revenue / float64(report.Transactions)
	}

	for _, ps := range byProduct {
		report.TopProducts = append(report.TopProducts, *ps)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductID < b.ProductID
	})
	if len(report.TopProducts) > topProductCount {
		report.TopProducts = report.TopProducts[:topProductCount]
	}

	return report
}

// Data renders the report as a result payload
func (r SalesReport) Data() map[string]interface{} {
	top := make([]map[string]interface{}, 0, len(r.TopProducts))
	for _, ps := range r.TopProducts {
		top = append(top, map[string]interface{}{
			"productId": ps.ProductID,
			"name":      ps.Name,
			"quantity":  ps.Quantity,
			"revenue":   ps.Revenue,
		})
	}
	return map[string]interface{}{
		"period":       r.Period,
		"from":         r.From.Format(time.RFC3339),
		"to":           r.To.Format(time.RFC3339),
		"transactions": r.Transactions,
		"revenue":      r.Revenue,
		"average":      r.Average,
		"topProducts":  top,
	}
}

func salesReportHandler(deps Deps) actpkg.Handler {
	return func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
		period := params.String("period")
		if period == "" {
			period = actpkg.PeriodToday
		}
		now := deps.now()

		key := fmt.Sprintf("sales-report-%s-%s", period, now.Format("2006010215"))
		if deps.Cache != nil {
			if entry, ok, err := deps.Cache.Get(key); err == nil && ok {
				data := entry.Data
				if data == nil {
					data = map[string]interface{}{}
				}
				data["cached"] = true
				return &actpkg.Result{
					Success: true,
					Message: reportMessage(period, data["transactions"], data["revenue"]),
					Data:    data,
				}, nil
			}
		}

		transactions, err := deps.Gateway.Transactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}

		report := BuildSalesReport(transactions, period, now)
		data := report.Data()
		if deps.Cache != nil {
			// A cache write failure only costs a recomputation
			_ = deps.Cache.Set(key, data)
		}

		return &actpkg.Result{
			Success: true,
			Message: reportMessage(period, report.Transactions, report.Revenue),
			Data:    data,
		}, nil
	}
}

var periodLabels = map[string]string{
	actpkg.PeriodToday: "today",
	actpkg.PeriodWeek:  "the last 7 days",
	actpkg.PeriodMonth: "the last 30 days",
}

func reportMessage(period string, count, revenue interface{}) string {
	var n int
	switch c := count.(type) {
	case int:
		n = c
	case float64:
		n = int(c)
	}
	var total float64
	switch r := revenue.(type) {
	case float64:
		total = r
	case int:
		total = float64(r)
	}
	return fmt.Sprintf("Sales for %s: %d transactions, total %s", periodLabels[period], n, formatRupiah(total))
}
