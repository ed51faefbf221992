// Command finadvisor runs the personal finance advisor: the web UI, the
// sheet-mirror worker and a terminal report.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finadvisor/internal/cli"
	"finadvisor/internal/config"
	"finadvisor/internal/log"
)

var version = "dev"

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "finadvisor",
		Short:         "Personal finance advisor",
		Long:          "Track income and expenses, plan monthly budgets and get rule-based advice.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(serveCmd(a))
	root.AddCommand(workerCmd(a))
	root.AddCommand(reportCmd(a))
	root.AddCommand(versionCmd())
	return root
}

func (a *app) setup() error {
	cli.LoadEnvFile(a.envFile)
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if err := cli.EnsureDataDir(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg.LogLevel)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "finadvisor %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
