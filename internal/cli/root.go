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
	"os"

	"github.com/rizome-dev/kasir/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootOptions is shared by every subcommand
type rootOptions struct {
	configFile string
	demo       bool
	v          *viper.Viper
	cfg        *config.Config
}

func (o *rootOptions) app() (*app, error) {
	return newApp(o.cfg, appOptions{demo: o.demo})
}

// RootCmd returns the root command
func RootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "kasir",
		Short: "Natural-language actions for a small shop's point of sale",
		Long: `Kasir turns requests like "buatkan laporan penjualan hari ini" or
"update harga Indomie jadi 3500" into actions on your shop data.

Risky actions wait for your confirmation before they run, and every
execution is recorded in the history.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(opts.v, opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.kasir/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.demo, "demo", false, "use in-memory demo data instead of the database")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = opts.v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddGroup(
		&cobra.Group{ID: "main", Title: "Main Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)

	for _, c := range []*cobra.Command{AskCmd(opts), ChatCmd(opts)} {
		c.GroupID = "main"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{ActionsCmd(opts), HistoryCmd(opts), SeedCmd(opts)} {
		c.GroupID = "data"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(CompletionCmd())

	return rootCmd
}

// CompletionCmd generates shell completions
func CompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(kasir completion bash)

Zsh:
  $ kasir completion zsh > "${fpath[1]}/_kasir"

Fish:
  $ kasir completion fish | source

PowerShell:
  PS> kasir completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletion(out)
			}
			return nil
		},
	}
	return cmd
}

func userOrDefault(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg != nil && cfg.User != "" {
		return cfg.User
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "owner"
}
