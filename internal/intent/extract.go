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
	"regexp"
	"strconv"
	"strings"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
)

// Extractor pulls raw parameter values out of a message. ok is false when
// a required slot could not be found.
type Extractor func(message string) (params actpkg.Params, ok bool)

var (
	// "harga <name> jadi <amount>", "price of <name> to <amount>"
	priceTargetPattern = regexp.MustCompile(`(?i)\b(?:harga|price)\s+(?:(?:produk|product|of)\s+)?(.+?)\s+(?:menjadi|jadi|ke|to)\s+(.*)$`)
	// "stok <name> jadi <amount>", "stock of <name> to <amount>"
	stockTargetPattern = regexp.MustCompile(`(?i)\b(?:stok|stock)\s+(?:(?:produk|product|of)\s+)?(.+?)\s+(?:menjadi|jadi|ke|to)\s+(.*)$`)

	// 3500, 3.500 and 3,500 all read as three thousand five hundred
	amountPattern  = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+|\d+`)
	daysPattern    = regexp.MustCompile(`(?i)(\d+)\s*(hari|days?|minggu|weeks?|bulan|months?)\b`)
	integerPattern = regexp.MustCompile(`\d+`)
)

// DefaultExtractors maps built-in action IDs to their slot extractors
func DefaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		actpkg.IDGenerateSalesReport:   ExtractPeriod,
		actpkg.IDUpdateProductPrice:    ExtractPriceUpdate,
		actpkg.IDUpdateProductStock:    ExtractStockUpdate,
		actpkg.IDDeleteOldTransactions: ExtractDays,
	}
}

// ExtractPeriod reads the report period, defaulting to today
func ExtractPeriod(message string) (actpkg.Params, bool) {
	lower := strings.ToLower(message)

	period := actpkg.PeriodToday
	switch {
	case strings.Contains(lower, "hari ini") || strings.Contains(lower, "today"):
		period = actpkg.PeriodToday
	case strings.Contains(lower, "minggu") || strings.Contains(lower, "week"):
		period = actpkg.PeriodWeek
	case strings.Contains(lower, "bulan") || strings.Contains(lower, "month"):
		period = actpkg.PeriodMonth
	}

	return actpkg.Params{"period": period}, true
}

// ExtractPriceUpdate reads the product name and the new price
func ExtractPriceUpdate(message string) (actpkg.Params, bool) {
	name, amount, ok := extractTargetAmount(priceTargetPattern, message)
	if !ok {
		return actpkg.Params{}, false
	}
	return actpkg.Params{"productId": name, "newPrice": amount}, true
}

// ExtractStockUpdate reads the product name and the new stock level
func ExtractStockUpdate(message string) (actpkg.Params, bool) {
	name, amount, ok := extractTargetAmount(stockTargetPattern, message)
	if !ok {
		return actpkg.Params{}, false
	}
	return actpkg.Params{"productId": name, "newStock": amount}, true
}

// ExtractDays reads an age in days, converting weeks and months (30 days).
// The slot is optional, so ok is always true.
func ExtractDays(message string) (actpkg.Params, bool) {
	if m := daysPattern.FindStringSubmatch(message); len(m) > 2 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return actpkg.Params{"days": float64(n * unitDays(m[2]))}, true
		}
	}
	if m := integerPattern.FindString(message); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return actpkg.Params{"days": float64(n)}, true
		}
	}
	return actpkg.Params{}, true
}

func unitDays(unit string) int {
	switch strings.ToLower(unit) {
	case "minggu", "week", "weeks":
		return 7
	case "bulan", "month", "months":
		return 30
	default:
		return 1
	}
}

func extractTargetAmount(pattern *regexp.Regexp, message string) (string, float64, bool) {
	m := pattern.FindStringSubmatch(message)
	if len(m) < 3 {
		return "", 0, false
	}

	name := strings.Trim(strings.TrimSpace(m[1]), `"'`)
	if name == "" {
		return "", 0, false
	}

	amount, ok := parseAmount(m[2])
	if !ok {
		return "", 0, false
	}
	return name, amount, true
}

// parseAmount returns the first integer literal in s
func parseAmount(s string) (float64, bool) {
	literal := amountPattern.FindString(s)
	if literal == "" {
		return 0, false
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(literal)
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
