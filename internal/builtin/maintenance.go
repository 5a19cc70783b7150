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
	"time"

	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/rizome-dev/kasir/pkg/core"
)

func backupHandler(deps Deps) actpkg.Handler {
	return func(ctx context.Context, _ actpkg.Params) (*actpkg.Result, error) {
		if deps.Backup == nil {
			return nil, fmt.Errorf("%w: no backup directory configured", core.ErrBackupFailed)
		}

		snap, err := deps.Gateway.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to take snapshot: %w", err)
		}

		manifest, err := deps.Backup.Write(ctx, snap)
		if err != nil {
			return nil, err
		}

		return &actpkg.Result{
			Success: true,
			Message: fmt.Sprintf("Backup saved to %s (%d products, %d transactions, %d employees)",
				manifest.Dir, manifest.Counts["products"], manifest.Counts["transactions"], manifest.Counts["employees"]),
			Data: map[string]interface{}{
				"dir":    manifest.Dir,
				"files":  manifest.Files,
				"counts": manifest.Counts,
			},
		}, nil
	}
}

func purgeHandler(deps Deps) actpkg.Handler {
	return func(ctx context.Context, params actpkg.Params) (*actpkg.Result, error) {
		days, _ := params.Int("days")
		if days <= 0 {
			return &actpkg.Result{
				Success: false,
				Message: "Days must be greater than zero",
				Error:   fmt.Sprintf("invalid days: %v", params["days"]),
			}, nil
		}

		transactions, err := deps.Gateway.Transactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}

		cutoff := deps.now().Add(-time.Duration(days) * 24 * time.Hour)
		var ids []string
		for _, t := range transactions {
			if t.CreatedAt.Before(cutoff) {
				ids = append(ids, t.ID)
			}
		}

		deleted := 0
		if len(ids) > 0 {
			deleted, err = deps.Gateway.DeleteTransactions(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to delete transactions: %w", err)
			}
		}
		if deleted > 0 && deps.Cache != nil {
			// Cached reports may count the deleted transactions. A failed
			// clear leaves them until the cache TTL runs out.
			_, _ = deps.Cache.Clear()
		}

		return &actpkg.Result{
			Success: true,
			Message: fmt.Sprintf("Deleted %d transactions older than %d days", deleted, days),
			Data: map[string]interface{}{
				"deleted": deleted,
				"days":    days,
				"cutoff":  cutoff.Format(time.RFC3339),
			},
		}, nil
	}
}

func clearCacheHandler(deps Deps) actpkg.Handler {
	return func(_ context.Context, _ actpkg.Params) (*actpkg.Result, error) {
		if deps.Cache == nil {
			return &actpkg.Result{
				Success: true,
				Message: "No cache configured, nothing to clear",
				Data:    map[string]interface{}{"removed": 0},
			}, nil
		}

		removed, err := deps.Cache.Clear()
		if err != nil {
			return nil, err
		}

		return &actpkg.Result{
			Success: true,
			Message: fmt.Sprintf("Cleared %d cached entries", removed),
			Data: map[string]interface{}{
				"removed": removed,
				"dir":     deps.Cache.Dir(),
			},
		}, nil
	}
}
