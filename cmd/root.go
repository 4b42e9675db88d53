package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Start interdependent containers in dependency order",
	Long: `stagehand starts a set of containerized services on a shared Docker network.
Each service is started only after everything it depends on is running,
ready and initialized. A failing service stops the run from launching
anything new and is reported together with the dependents it blocked.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. a service that failed to start)
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI with ctx as the context of every command and exits
// non-zero on failure.
func Execute(ctx context.Context) {
	rootCmd.SetVersionTemplate(`{{printf "stagehand version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
