package cli

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
	"time"

	"github.com/rizome-dev/kasir/internal/store"
	"github.com/spf13/cobra"
)

// SeedCmd loads the demo shop into the database
func SeedCmd(opts *rootOptions) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo products, transactions and employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			db, err := a.requireDB()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			existing, err := db.Products(ctx)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				if !reset {
					return fmt.Errorf("database %s already has data, pass --reset to replace it", db.Path())
				}
				if err := db.Reset(ctx); err != nil {
					return err
				}
			}

			snap := store.DemoSnapshot(time.Now())
			if err := store.Seed(ctx, db, snap); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
				"✓ Seeded %s with %d products, %d transactions, %d employees",
				db.Path(), len(snap.Products), len(snap.Transactions), len(snap.Employees))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing business data first")
	return cmd
}
