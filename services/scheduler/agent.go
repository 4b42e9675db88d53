package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ezenkico/deploy-commander/stagehand/interfaces"
	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

// State is the position of an Agent in its startup state machine.
type State int

const (
	StateWaiting State = iota
	StateLaunching
	StatePollingReady
	StateInitializing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateLaunching:
		return "launching"
	case StatePollingReady:
		return "polling-ready"
	case StateInitializing:
		return "initializing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// listener receives the terminal outcome of an agent. The coordinator is the
// only production implementation.
type listener interface {
	ServiceStarted(name string)
	ServiceFailed(name string, err *models.ServiceError)
}

// Agent drives one service through launch, readiness polling and
// initialization. Run is meant to be called on its own goroutine.
type Agent struct {
	service  *models.ServiceDefinition
	runtime  interfaces.Runtime
	options  models.RunOptions
	listener listener

	// Replaced in tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	state        State
	pending      map[string]struct{}
	pingAttempts int
	initialized  bool
	reported     bool
}

func NewAgent(service *models.ServiceDefinition, runtime interfaces.Runtime, options models.RunOptions, l listener) *Agent {
	if options.PollInterval <= 0 {
		options.PollInterval = models.DefaultPollInterval
	}
	if options.ReadinessTimeout <= 0 {
		options.ReadinessTimeout = models.DefaultReadinessTimeout
	}

	pending := make(map[string]struct{}, len(service.Dependencies))
	for _, dep := range service.Dependencies {
		pending[dep.Name] = struct{}{}
	}

	return &Agent{
		service:  service,
		runtime:  runtime,
		options:  options,
		listener: l,
		now:      time.Now,
		sleep:    sleepContext,
		state:    StateWaiting,
		pending:  pending,
	}
}

func (a *Agent) Name() string {
	return a.service.Name
}

func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// CanStart reports whether every dependency has reported done.
func (a *Agent) CanStart() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateWaiting && len(a.pending) == 0
}

func (a *Agent) PingAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pingAttempts
}

func (a *Agent) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialized
}

// processServiceStarted marks the dependency name as satisfied.
func (a *Agent) processServiceStarted(name string) {
	a.mu.Lock()
	delete(a.pending, name)
	a.mu.Unlock()
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run executes the whole state machine and reports the outcome exactly once.
func (a *Agent) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			kind := models.ErrLaunchFailure
			switch a.State() {
			case StatePollingReady:
				kind = models.ErrReadinessTimeout
			case StateInitializing:
				kind = models.ErrInitialization
			}
			a.fail(kind, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := a.RunImage(ctx); err != nil {
		a.fail(models.ErrLaunchFailure, err)
		return
	}
	if err := a.waitReady(ctx); err != nil {
		a.fail(models.ErrReadinessTimeout, err)
		return
	}
	if err := a.initialize(ctx); err != nil {
		a.fail(models.ErrInitialization, err)
		return
	}

	a.mu.Lock()
	a.state = StateDone
	a.reported = true
	a.mu.Unlock()

	logging.Info("Agent", "Service %s started", a.Name())
	if a.listener != nil {
		a.listener.ServiceStarted(a.Name())
	}
}

func (a *Agent) fail(kind error, err error) {
	a.mu.Lock()
	if a.reported {
		a.mu.Unlock()
		return
	}
	a.state = StateFailed
	a.reported = true
	a.mu.Unlock()

	serr := &models.ServiceError{Service: a.Name(), Kind: kind, Err: err}
	logging.Error("Agent", err, "Service %s failed: %v", a.Name(), kind)
	if a.listener != nil {
		a.listener.ServiceFailed(a.Name(), serr)
	}
}

// RunImage makes sure a container for the service is running on the target
// network, reusing an existing one unless a fresh container is requested.
func (a *Agent) RunImage(ctx context.Context) error {
	a.setState(StateLaunching)
	network := a.options.NetworkName

	existing, err := a.runtime.ListContainers(ctx, a.Name(), network)
	if err != nil {
		return fmt.Errorf("list containers for %s: %w", a.Name(), err)
	}

	if a.options.ForceRecreate || a.service.AlwaysStartNew {
		for _, c := range existing {
			logging.Debug("Agent", "Removing existing container %s of %s", c.Name, a.Name())
			if err := a.runtime.RemoveContainer(ctx, c.ID); err != nil {
				return fmt.Errorf("remove container %q: %w", c.Name, err)
			}
		}
	} else if len(existing) > 0 {
		for _, c := range existing {
			if c.Status == models.ContainerStatusRunning {
				logging.Info("Agent", "Found running container %s for %s, not starting a new one", c.Name, a.Name())
				return nil
			}
		}
		old := existing[0]
		logging.Info("Agent", "Starting existing container %s for %s", old.Name, a.Name())
		if err := a.runtime.StartContainer(ctx, old.ID); err != nil {
			return fmt.Errorf("start container %q: %w", old.Name, err)
		}
		return nil
	}

	spec := models.ContainerSpec{
		Name:    ContainerName(a.Name(), a.options),
		Service: a.Name(),
		Image:   a.service.Image,
		Network: network,
		Ports:   a.service.Ports,
		Env:     a.service.EnvList(),
		Labels: map[string]string{
			models.LabelRun: a.options.RunID.String(),
		},
	}
	created, err := a.runtime.CreateContainer(ctx, spec)
	if err != nil {
		return fmt.Errorf("create container %q: %w", spec.Name, err)
	}
	if err := a.runtime.StartContainer(ctx, created.ID); err != nil {
		return fmt.Errorf("start container %q: %w", spec.Name, err)
	}
	logging.Info("Agent", "Started container %s for %s", spec.Name, a.Name())
	return nil
}

func (a *Agent) waitReady(ctx context.Context) error {
	a.setState(StatePollingReady)

	isReady := a.service.IsReady
	if isReady == nil {
		isReady = func(context.Context) bool { return true }
	}

	start := a.now()
	for a.now().Sub(start) < a.options.ReadinessTimeout {
		a.mu.Lock()
		a.pingAttempts++
		attempts := a.pingAttempts
		a.mu.Unlock()

		if isReady(ctx) {
			logging.Debug("Agent", "Service %s ready after %d attempts", a.Name(), attempts)
			return nil
		}
		if err := a.sleep(ctx, a.options.PollInterval); err != nil {
			return fmt.Errorf("waiting for %s: %w", a.Name(), err)
		}
	}
	return fmt.Errorf("%s not ready within %s (%d attempts)", a.Name(), a.options.ReadinessTimeout, a.PingAttempts())
}

func (a *Agent) initialize(ctx context.Context) (err error) {
	a.setState(StateInitializing)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in post-start init: %v", r)
		}
	}()

	if a.service.PostStartInit != nil {
		if err := a.service.PostStartInit(ctx); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.initialized = true
	a.mu.Unlock()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
