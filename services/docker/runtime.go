package docker

import (
	"github.com/moby/moby/client"

	"github.com/ezenkico/deploy-commander/stagehand/interfaces"
)

// DockerRuntime implements interfaces.Runtime for plain Docker (Engine API).
type DockerRuntime struct {
	client *client.Client
}

var _ interfaces.Runtime = (*DockerRuntime)(nil)

// NewDockerRuntime initializes the client using environment variables
// (e.g. DOCKER_HOST) and API version negotiation.
func NewDockerRuntime() (*DockerRuntime, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, err
	}

	return &DockerRuntime{
		client: c,
	}, nil
}

func (r *DockerRuntime) Close() error {
	return r.client.Close()
}
