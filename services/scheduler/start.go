package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ezenkico/deploy-commander/stagehand/interfaces"
	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
	"github.com/ezenkico/deploy-commander/stagehand/services/registry"
)

const defaultNetworkDriver = "bridge"

// EnsureNetwork creates the named network unless it already exists.
func EnsureNetwork(ctx context.Context, runtime interfaces.Runtime, name string) error {
	existing, err := runtime.ListNetworks(ctx, name)
	if err != nil {
		return fmt.Errorf("list networks %q: %w", name, err)
	}
	// Name filters may match on substrings.
	for _, n := range existing {
		if n.Name == name {
			logging.Debug("Coordinator", "Network %s already exists", name)
			return nil
		}
	}

	if _, err := runtime.CreateNetwork(ctx, name, defaultNetworkDriver); err != nil {
		return fmt.Errorf("create network %q: %w", name, err)
	}
	logging.Info("Coordinator", "Created network %s", name)
	return nil
}

// StartServices loads the registry, makes sure the network exists and starts
// every remaining service in dependency order.
func StartServices(
	ctx context.Context,
	runtime interfaces.Runtime,
	reg *registry.Registry,
	excluded []string,
	options models.RunOptions) (*Result, error) {

	if err := reg.Load(excluded); err != nil {
		return nil, err
	}
	if err := EnsureNetwork(ctx, runtime, options.NetworkName); err != nil {
		return nil, err
	}

	coordinator := NewCoordinator(reg.All(), runtime, options)
	logging.Info("Coordinator", "Starting %d services on network %s (run %s)", reg.Len(), options.NetworkName, options.RunID)

	result, err := coordinator.RunAll(ctx)
	if err != nil {
		var runErr *models.RunFailedError
		switch {
		case errors.As(err, &runErr):
			for _, f := range runErr.Failures {
				logging.Error("Coordinator", f.Err, "Service %s failed: %v", f.Service, f.Kind)
			}
			if len(runErr.Skipped) > 0 {
				logging.Warn("Coordinator", "Skipped due to upstream failure: %s", strings.Join(runErr.Skipped, ", "))
			}
		default:
			logging.Warn("Coordinator", "Run interrupted, pending services: %s", strings.Join(coordinator.Pending(), ", "))
		}
		return result, err
	}

	logging.Info("Coordinator", "Started services: %s", strings.Join(result.Started, ", "))
	return result, nil
}
