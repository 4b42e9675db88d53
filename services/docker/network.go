package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/client"

	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

func (r *DockerRuntime) ListNetworks(ctx context.Context, name string) ([]models.Network, error) {
	f := make(client.Filters).
		Add("name", name)

	nets, err := r.client.NetworkList(ctx, client.NetworkListOptions{
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("list networks (name=%s): %w", name, err)
	}

	out := make([]models.Network, 0, len(nets.Items))
	for _, n := range nets.Items {
		out = append(out, models.Network{ID: n.ID, Name: n.Name})
	}
	return out, nil
}

func (r *DockerRuntime) CreateNetwork(ctx context.Context, name string, driver string) (models.Network, error) {
	_, err := r.client.NetworkCreate(ctx, name, client.NetworkCreateOptions{
		Driver: driver,
		Labels: map[string]string{
			models.LabelNetwork: name,
		},
	})
	if err != nil && !errdefs.IsConflict(err) {
		return models.Network{}, fmt.Errorf("create network %q: %w", name, err)
	}
	if err != nil {
		logging.Debug("Docker", "Network %s was created concurrently", name)
	}

	// Re-list to pick up the id, also when someone else won the race.
	nets, lerr := r.ListNetworks(ctx, name)
	if lerr != nil {
		return models.Network{}, lerr
	}
	for _, n := range nets {
		if n.Name == name {
			return n, nil
		}
	}
	return models.Network{}, fmt.Errorf("network %q not found after create", name)
}
