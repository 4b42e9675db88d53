package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

type fakeRuntime struct {
	mu        sync.Mutex
	networks  []models.Network
	created   []string
	createErr map[string]error
	closed    bool
	logsFor   []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{createErr: map[string]error{}}
}

func (f *fakeRuntime) ListNetworks(_ context.Context, name string) ([]models.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Network
	for _, n := range f.networks {
		if n.Name == name {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRuntime) CreateNetwork(_ context.Context, name string, _ string) (models.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := models.Network{ID: "net-" + name, Name: name}
	f.networks = append(f.networks, n)
	return n, nil
}

func (f *fakeRuntime) ListContainers(context.Context, string, string) ([]models.Container, error) {
	return nil, nil
}

func (f *fakeRuntime) CreateContainer(_ context.Context, spec models.ContainerSpec) (models.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[spec.Service]; err != nil {
		return models.Container{}, err
	}
	f.created = append(f.created, spec.Service)
	return models.Container{ID: fmt.Sprintf("id-%s", spec.Service), Name: spec.Name}, nil
}

func (f *fakeRuntime) StartContainer(context.Context, string) error { return nil }

func (f *fakeRuntime) RemoveContainer(context.Context, string) error { return nil }

func (f *fakeRuntime) ServiceLogs(_ context.Context, service string, _ string, _ int, stdout, _ io.Writer) error {
	f.mu.Lock()
	f.logsFor = append(f.logsFor, service)
	f.mu.Unlock()
	_, err := fmt.Fprintf(stdout, "%s: boot failed\n", service)
	return err
}

func (f *fakeRuntime) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
