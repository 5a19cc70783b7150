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

	"github.com/rizome-dev/kasir/internal/store"
	"github.com/spf13/cobra"
)

// HistoryCmd prints persisted executions
func HistoryCmd(opts *rootOptions) *cobra.Command {
	var filter store.ExecutionFilter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past action executions, newest first",
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

			executions, err := db.Executions(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(executions) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No executions recorded"))
				return nil
			}
			for _, e := range executions {
				fmt.Fprintln(out, renderExecution(e))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.ActionID, "action", "", "only show this action id")
	cmd.Flags().StringVar(&filter.UserID, "user", "", "only show this user")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "maximum number of executions (0 for all)")

	return cmd
}
