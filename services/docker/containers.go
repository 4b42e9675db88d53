package docker

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/network"
	"github.com/moby/moby/client"

	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

const defaultHostIP = "0.0.0.0"

func serviceFilters(service string, networkName string) client.Filters {
	return make(client.Filters).
		Add("label", models.LabelService+"="+service).
		Add("network", networkName)
}

func (r *DockerRuntime) ListContainers(ctx context.Context, service string, networkName string) ([]models.Container, error) {
	containers, err := r.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: serviceFilters(service, networkName),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers (service=%s network=%s): %w", service, networkName, err)
	}

	out := make([]models.Container, 0, len(containers.Items))
	for _, c := range containers.Items {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, models.Container{
			ID:     c.ID,
			Name:   name,
			Status: string(c.State),
		})
	}
	return out, nil
}

func (r *DockerRuntime) CreateContainer(ctx context.Context, spec models.ContainerSpec) (models.Container, error) {
	exposed, portMap, err := portBindings(spec.Ports)
	if err != nil {
		return models.Container{}, fmt.Errorf("service %q: %w", spec.Service, err)
	}

	cCfg := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		Labels:       containerLabels(spec),
		ExposedPorts: exposed,
	}

	hCfg := &container.HostConfig{
		PortBindings: portMap,
	}

	nCfg := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			spec.Network: {
				Aliases: []string{spec.Service},
			},
		},
	}

	opts := client.ContainerCreateOptions{
		Config:           cCfg,
		HostConfig:       hCfg,
		NetworkingConfig: nCfg,
		Name:             spec.Name,
		Image:            spec.Image,
	}

	created, err := r.client.ContainerCreate(ctx, opts)
	if err != nil && errdefs.IsNotFound(err) {
		logging.Info("Docker", "Image %s not found locally, pulling", spec.Image)
		if perr := r.pullImage(ctx, spec.Image); perr != nil {
			return models.Container{}, perr
		}
		created, err = r.client.ContainerCreate(ctx, opts)
	}
	if err != nil {
		return models.Container{}, fmt.Errorf("create container %q: %w", spec.Name, err)
	}

	logging.Debug("Docker", "Created container %s (%s) from %s", spec.Name, created.ID, spec.Image)
	return models.Container{ID: created.ID, Name: spec.Name, Status: "created"}, nil
}

func (r *DockerRuntime) StartContainer(ctx context.Context, id string) error {
	if _, err := r.client.ContainerStart(ctx, id, client.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("start container %q: %w", id, err)
	}
	return nil
}

// RemoveContainer force-removes a container. Removing a container that is
// already gone is not an error.
func (r *DockerRuntime) RemoveContainer(ctx context.Context, id string) error {
	_, err := r.client.ContainerRemove(ctx, id, client.ContainerRemoveOptions{
		Force:         true,
		RemoveVolumes: false,
	})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("remove container %q: %w", id, err)
	}
	return nil
}

func (r *DockerRuntime) pullImage(ctx context.Context, image string) error {
	rc, err := r.client.ImagePull(ctx, image, client.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %q: %w", image, err)
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull image %q: %w", image, err)
	}
	return nil
}

func containerLabels(spec models.ContainerSpec) map[string]string {
	labels := make(map[string]string, len(spec.Labels)+2)
	for k, v := range spec.Labels {
		labels[k] = v
	}
	labels[models.LabelService] = spec.Service
	labels[models.LabelNetwork] = spec.Network
	return labels
}

// portBindings exposes every container port over tcp and publishes it on the
// host when a host port is given (0 means expose only).
func portBindings(ports map[int]int) (network.PortSet, network.PortMap, error) {
	exposed := network.PortSet{}
	portMap := network.PortMap{}

	hostIP, err := netip.ParseAddr(defaultHostIP)
	if err != nil {
		return nil, nil, err
	}

	for containerPort, hostPort := range ports {
		if containerPort < 1 || containerPort > 65535 {
			return nil, nil, fmt.Errorf("invalid container port %d", containerPort)
		}
		port, _ := network.PortFrom(uint16(containerPort), network.IPProtocol("tcp"))
		exposed[port] = struct{}{}

		if hostPort > 0 {
			portMap[port] = append(portMap[port], network.PortBinding{
				HostIP:   hostIP,
				HostPort: strconv.Itoa(hostPort),
			})
		}
	}
	return exposed, portMap, nil
}
