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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rizome-dev/kasir/internal/assistant"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errActionFailed = errors.New("action failed")

// AskCmd handles a single request
func AskCmd(opts *rootOptions) *cobra.Command {
	var (
		yes  bool
		user string
	)

	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Run one natural-language request",
		Long: `Detect the action behind a request and run it.

Actions that need confirmation ask on the terminal; pass --yes to approve
them up front. Without a terminal and without --yes they are cancelled.

Examples:
  kasir ask "buatkan laporan penjualan minggu ini"
  kasir ask --yes "update harga Indomie jadi 3500"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}

			var confirm confirmFunc
			switch {
			case yes:
				confirm = func(string) (bool, error) { return true, nil }
			case stdinIsTerminal():
				confirm = promptConfirm(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
			}

			return runAsk(cmd.Context(), a.assistant, strings.Join(args, " "),
				userOrDefault(user, opts.cfg), confirm, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "approve confirmations automatically")
	cmd.Flags().StringVar(&user, "user", "", "user recorded in history (default from config)")

	return cmd
}

// confirmFunc asks whether the described action may run; nil means nobody can answer
type confirmFunc func(question string) (bool, error)

func runAsk(ctx context.Context, asst *assistant.Assistant, text, user string, confirm confirmFunc, out io.Writer) error {
	reply := asst.Handle(ctx, text, user)

	var result *actpkg.Result
	switch reply.Kind {
	case assistant.KindExecuted:
		result = reply.Result

	case assistant.KindNeedsConfirmation:
		token := reply.Pending.Token
		approved := false
		if confirm != nil {
			var err error
			if approved, err = confirm(reply.Message); err != nil {
				_ = asst.Cancel(token)
				return err
			}
		}
		if !approved {
			if err := asst.Cancel(token); err != nil {
				return err
			}
			msg := "Cancelled"
			if confirm == nil {
				msg = "Cancelled: this action needs confirmation, rerun with --yes"
			}
			fmt.Fprintln(out, warnStyle.Render(msg))
			return nil
		}

		res, err := asst.Confirm(ctx, token)
		if err != nil {
			return err
		}
		result = res

	default:
		fmt.Fprintln(out, renderReply(reply))
		return nil
	}

	fmt.Fprintln(out, renderResult(result))
	if !result.Success {
		return errActionFailed
	}
	return nil
}

func promptConfirm(reader *bufio.Reader, out io.Writer) confirmFunc {
	return func(question string) (bool, error) {
		fmt.Fprintf(out, "%s %s ", warnStyle.Render("? "+question), dimStyle.Render("[y/N]"))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return isYes(line), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "ya", "iya":
		return true
	}
	return false
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
