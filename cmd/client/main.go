// Package main is the NomosLink practice client: an interactive shell over
// the local-first store that syncs to the table store server.
package main

import (
	"cmp"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   string
	buildDate string
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
}

// newRootCommand creates the root command of the client.
func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "nomoslink",
		Short:         "NomosLink practice client",
		Long:          "Manage files, cases, letters, tasks and ledgers offline; changes sync to the chambers server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "nomoslink.toml", "path to TOML config")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newShellCommand(opts))
	cmd.AddCommand(newCertsCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build version and date",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "NomosLink Client\nVersion: %s\nBuild Date: %s\n",
				cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		},
	}
}

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
