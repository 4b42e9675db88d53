package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

type fakeRuntime struct {
	mu sync.Mutex

	networks []models.Network
	existing map[string][]models.Container

	createdNetworks []string
	created         []models.ContainerSpec
	started         []string
	removed         []string

	listErr   error
	createErr error
	nextID    int
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{existing: make(map[string][]models.Container)}
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
	f.createdNetworks = append(f.createdNetworks, name)
	return n, nil
}

func (f *fakeRuntime) ListContainers(_ context.Context, service string, _ string) ([]models.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Container(nil), f.existing[service]...), nil
}

func (f *fakeRuntime) CreateContainer(_ context.Context, spec models.ContainerSpec) (models.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Container{}, f.createErr
	}
	f.nextID++
	f.created = append(f.created, spec)
	return models.Container{ID: fmt.Sprintf("c%d", f.nextID), Name: spec.Name, Status: "created"}, nil
}

func (f *fakeRuntime) StartContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return nil
}

func (f *fakeRuntime) RemoveContainer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeRuntime) createdFor(service string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, spec := range f.created {
		if spec.Service == service {
			n++
		}
	}
	return n
}

type fakeListener struct {
	mu      sync.Mutex
	started []string
	failed  []*models.ServiceError
}

func (l *fakeListener) ServiceStarted(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, name)
}

func (l *fakeListener) ServiceFailed(_ string, err *models.ServiceError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failed = append(l.failed, err)
}

// fakeClock returns the given offsets (in seconds) one after the other and
// keeps returning the last one.
func fakeClock(offsets ...float64) func() time.Time {
	base := time.Unix(1700000000, 0)
	i := 0
	return func() time.Time {
		v := offsets[len(offsets)-1]
		if i < len(offsets) {
			v = offsets[i]
		}
		i++
		return base.Add(time.Duration(v * float64(time.Second)))
	}
}

func testOptions() models.RunOptions {
	return models.RunOptions{
		NetworkName:      "the-network",
		ReadinessTimeout: time.Second,
		PollInterval:     5 * time.Millisecond,
		RunID:            uuid.MustParse("0b7e2a4c-1d3f-4e5a-9b8c-7d6e5f4a3b2c"),
	}
}
