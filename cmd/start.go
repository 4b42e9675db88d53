package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezenkico/deploy-commander/stagehand/config"
	"github.com/ezenkico/deploy-commander/stagehand/interfaces"
	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
	"github.com/ezenkico/deploy-commander/stagehand/services/docker"
	"github.com/ezenkico/deploy-commander/stagehand/services/registry"
	"github.com/ezenkico/deploy-commander/stagehand/services/report"
	"github.com/ezenkico/deploy-commander/stagehand/services/scheduler"
)

type runtime interface {
	interfaces.Runtime
	Close() error
}

// logSource is implemented by runtimes that can show container output.
type logSource interface {
	ServiceLogs(ctx context.Context, service string, network string, tail int, stdout, stderr io.Writer) error
}

// For mocking in tests
var selectRuntime = func(name string) (runtime, error) {
	switch name {
	case "docker":
		rt, err := docker.NewDockerRuntime()
		if err != nil {
			return nil, err
		}
		return rt, nil
	default:
		return nil, fmt.Errorf("%q is not a valid runtime", name)
	}
}

const reportTimeout = 30 * time.Second

type startOptions struct {
	configPath     string
	exclude        []string
	forceRecreate  bool
	networkName    string
	timeout        int
	reportEndpoint string
	runtime        string
	logTail        int
}

func newStartCmd() *cobra.Command {
	opts := &startOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start every service of a definition file",
		Long: `Creates the network if needed and starts the services in dependency order.
A service counts as started once its container runs, its readiness check
passes and its init hook succeeded. Services that already run on the
network are reused unless --force-recreate is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Definition file (default ./stagehand.yaml)")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Services to leave out, comma separated")
	cmd.Flags().BoolVar(&opts.forceRecreate, "force-recreate", false, "Remove and recreate containers even if they exist")
	cmd.Flags().StringVar(&opts.networkName, "network-name", "", fmt.Sprintf("Network to start the services on (default %q)", models.DefaultNetworkName))
	cmd.Flags().IntVar(&opts.timeout, "timeout", 0, fmt.Sprintf("Seconds to wait for each service to become ready (default %d)", int(models.DefaultReadinessTimeout.Seconds())))
	cmd.Flags().StringVar(&opts.reportEndpoint, "report-endpoint", "", "Post the run outcome to tcp://host:port or unix:///path (or set "+report.EnvEndpoint+")")
	cmd.Flags().StringVar(&opts.runtime, "runtime", "docker", "Container runtime")
	cmd.Flags().IntVar(&opts.logTail, "logs-on-failure", 20, "Lines of container output to print for failed services (0 disables)")

	return cmd
}

func runStart(cmd *cobra.Command, opts *startOptions) error {
	ctx := cmd.Context()
	if opts.timeout < 0 {
		return errors.New("--timeout must not be negative")
	}

	path, err := config.ResolvePath(opts.configPath)
	if err != nil {
		return err
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	defs, err := f.Definitions()
	if err != nil {
		return err
	}

	runOpts := f.RunOptions(config.Overrides{
		NetworkName:   opts.networkName,
		Timeout:       time.Duration(opts.timeout) * time.Second,
		ForceRecreate: opts.forceRecreate,
	})

	reporter, err := report.NewReporterFromEnv(opts.reportEndpoint)
	if err != nil {
		return err
	}

	rt, err := selectRuntime(opts.runtime)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, runErr := scheduler.StartServices(ctx, rt, registry.New(defs...), cleanNames(opts.exclude), runOpts)

	if result != nil && result.Failed() && opts.logTail > 0 {
		printFailureLogs(cmd, rt, result, opts.logTail)
	}
	if reporter != nil && result != nil {
		sendReport(ctx, reporter, result)
	}

	if runErr != nil {
		return runErr
	}
	printf(cmd, "Started %d services on %s: %s\n", len(result.Started), result.Network, strings.Join(result.Started, ", "))
	return nil
}

func printFailureLogs(cmd *cobra.Command, rt runtime, result *scheduler.Result, tail int) {
	src, ok := rt.(logSource)
	if !ok {
		return
	}
	for _, f := range result.Failures {
		printf(cmd, "--- last %d lines of %s ---\n", tail, f.Service)
		if err := src.ServiceLogs(cmd.Context(), f.Service, result.Network, tail, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			logging.Warn("CLI", "Could not read logs of %s: %v", f.Service, err)
		}
	}
}

// sendReport never fails the run; a report that cannot be delivered is logged.
func sendReport(ctx context.Context, reporter *report.Reporter, result *scheduler.Result) {
	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	id, err := reporter.ReportRun(ctx, report.NewRunReport(result))
	if err != nil {
		logging.Error("Report", err, "Failed to report run %s", result.RunID)
		return
	}
	logging.Info("Report", "Reported run %s as %s", result.RunID, id)
}
