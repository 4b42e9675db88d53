package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ezenkico/deploy-commander/stagehand/interfaces"
	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

var errAlreadyRunning = errors.New("coordinator already running")

// Coordinator is the per-run context: it knows which agents are waiting,
// launches them once their dependencies are done and keeps the run-wide
// failed flag.
type Coordinator struct {
	options models.RunOptions

	mu           sync.Mutex
	ctx          context.Context
	agents       map[string]*Agent
	agentsByName map[string]*Agent // unresolved
	waiting      map[string]*Agent
	startable    []*Agent
	running      int
	failed       bool
	started      []string
	failures     []*models.ServiceError
	skipped      []string

	finished   chan struct{}
	finishOnce sync.Once

	// launch runs an agent; replaced in tests.
	launch func(ctx context.Context, agent *Agent)
}

// NewCoordinator creates one agent per definition. Definitions must come from
// a loaded registry so their dependencies are resolved.
func NewCoordinator(defs []*models.ServiceDefinition, runtime interfaces.Runtime, options models.RunOptions) *Coordinator {
	c := &Coordinator{
		options:      options,
		agents:       make(map[string]*Agent, len(defs)),
		agentsByName: make(map[string]*Agent, len(defs)),
		waiting:      make(map[string]*Agent),
		finished:     make(chan struct{}),
		launch: func(ctx context.Context, agent *Agent) {
			go agent.Run(ctx)
		},
	}

	for _, def := range defs {
		agent := NewAgent(def, runtime, options, c)
		c.agents[def.Name] = agent
		c.agentsByName[def.Name] = agent
		if agent.CanStart() {
			c.startable = append(c.startable, agent)
		} else {
			c.waiting[def.Name] = agent
		}
	}
	return c
}

// Agent returns the agent of a service, for inspection.
func (c *Coordinator) Agent(name string) (*Agent, bool) {
	a, ok := c.agents[name]
	return a, ok
}

// Done reports whether every agent has been started and resolved.
func (c *Coordinator) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doneLocked()
}

func (c *Coordinator) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *Coordinator) doneLocked() bool {
	return len(c.waiting) == 0 && c.running == 0
}

func (c *Coordinator) checkFinishedLocked() {
	if c.failed || c.doneLocked() {
		c.finishOnce.Do(func() { close(c.finished) })
	}
}

func (c *Coordinator) launchLocked(agent *Agent) {
	c.running++
	logging.Debug("Coordinator", "Launching agent for %s", agent.Name())
	c.launch(c.ctx, agent)
}

// ServiceStarted is called by an agent that reached Done. Dependents whose
// dependencies are now all done are launched while the lock is held, so two
// services finishing at once cannot both miss a shared dependent.
func (c *Coordinator) ServiceStarted(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running--
	delete(c.agentsByName, name)
	c.started = append(c.started, name)

	for _, agent := range c.unlockLocked(name) {
		if c.failed {
			logging.Warn("Coordinator", "Not starting %s, run already failed", agent.Name())
			c.skipped = append(c.skipped, agent.Name())
			continue
		}
		c.launchLocked(agent)
	}
	c.checkFinishedLocked()
}

// unlockLocked tells every waiting agent that name is done and removes the
// ones that became startable from the waiting set.
func (c *Coordinator) unlockLocked(name string) []*Agent {
	names := make([]string, 0, len(c.waiting))
	for n := range c.waiting {
		names = append(names, n)
	}
	sort.Strings(names)

	var startable []*Agent
	for _, n := range names {
		agent := c.waiting[n]
		agent.processServiceStarted(name)
		if agent.CanStart() {
			startable = append(startable, agent)
		}
	}
	for _, agent := range startable {
		delete(c.waiting, agent.Name())
	}
	return startable
}

// ServiceFailed flips the run-wide failed flag. Agents already running are
// left to finish on their own.
func (c *Coordinator) ServiceFailed(name string, err *models.ServiceError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running--
	delete(c.agentsByName, name)
	c.failed = true
	if err == nil {
		err = &models.ServiceError{Service: name, Kind: models.ErrLaunchFailure}
	}
	c.failures = append(c.failures, err)
	c.checkFinishedLocked()
}

// RunAll launches every agent without dependencies and blocks until the run
// is done, a service failed, or ctx is cancelled.
func (c *Coordinator) RunAll(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.ctx != nil {
		c.mu.Unlock()
		return nil, errAlreadyRunning
	}
	c.ctx = ctx
	for _, agent := range c.startable {
		c.launchLocked(agent)
	}
	c.checkFinishedLocked()
	c.mu.Unlock()

	select {
	case <-c.finished:
	case <-ctx.Done():
		return c.Result(), ctx.Err()
	}

	result := c.Result()
	if result.Failed() {
		return result, &models.RunFailedError{Failures: result.Failures, Skipped: result.Skipped}
	}
	return result, nil
}

// Result is a snapshot of the run so far.
func (c *Coordinator) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &Result{
		RunID:    c.options.RunID,
		Network:  c.options.NetworkName,
		Started:  append([]string(nil), c.started...),
		Failures: append([]*models.ServiceError(nil), c.failures...),
	}
	if c.failed {
		skipped := append([]string(nil), c.skipped...)
		for name := range c.waiting {
			skipped = append(skipped, name)
		}
		sort.Strings(skipped)
		r.Skipped = skipped
	}
	return r
}

// Pending returns the services that have neither started nor failed, sorted.
func (c *Coordinator) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.agentsByName))
	for name := range c.agentsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
