package interfaces

import (
	"context"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

// Runtime is the container engine capability the scheduler needs.
// Implementations must be safe for concurrent use.
type Runtime interface {
	ListNetworks(ctx context.Context, name string) ([]models.Network, error)
	CreateNetwork(ctx context.Context, name string, driver string) (models.Network, error)

	// ListContainers returns the containers of one service attached to network,
	// stopped ones included.
	ListContainers(ctx context.Context, service string, network string) ([]models.Container, error)
	CreateContainer(ctx context.Context, spec models.ContainerSpec) (models.Container, error)
	StartContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string) error
}
