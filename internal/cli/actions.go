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
	"strings"

	"github.com/rizome-dev/kasir/internal/action"
	"github.com/rizome-dev/kasir/internal/intent"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/spf13/cobra"
)

// ActionsCmd groups the action catalog commands
func ActionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect the registered actions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List actions by category",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.app()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderActions(a.registry.ListByCategory()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Find actions by id, name or description",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.app()
				if err != nil {
					return err
				}
				matches := a.registry.Search(strings.Join(args, " "))
				if len(matches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No matching actions"))
					return nil
				}
				byCategory := make(map[string][]*actpkg.Action)
				for _, m := range matches {
					byCategory[m.Category] = append(byCategory[m.Category], m)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderActions(byCategory))
				return nil
			},
		},
		&cobra.Command{
			Use:   "lint",
			Short: "Check action schemas and that every example detects its own action",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.app()
				if err != nil {
					return err
				}
				problems := lintActions(a.registry, a.detector)
				out := cmd.OutOrStdout()
				if len(problems) == 0 {
					fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %d actions OK", a.registry.Len())))
					return nil
				}
				for _, p := range problems {
					fmt.Fprintln(out, errorStyle.Render("✗ "+p))
				}
				return fmt.Errorf("%d problems found", len(problems))
			},
		},
	)

	return cmd
}

// lintActions validates every schema and replays every example phrase
// through the detector
func lintActions(registry *action.Registry, detector *intent.Detector) []string {
	var problems []string
	for _, a := range registry.All() {
		if err := action.Validate(a); err != nil {
			problems = append(problems, err.Error())
		}
		for _, example := range a.Examples {
			got := detector.Detect(example)
			if got.DetectedActionID != a.ID {
				detected := got.DetectedActionID
				if detected == "" {
					detected = "nothing"
				}
				problems = append(problems, fmt.Sprintf("%s: example %q detects %s", a.ID, example, detected))
			}
		}
	}
	return problems
}
