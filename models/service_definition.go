package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ServiceDefinition is the static declaration of one service.
type ServiceDefinition struct {
	// Required
	Name  string
	Image string

	// Dependency graph. DependsOn holds the declared names, Dependencies the
	// references resolved by the registry.
	DependsOn    []string
	Dependencies []*ServiceDefinition
	Dependants   []*ServiceDefinition

	// Container port -> host port
	Ports map[int]int

	Env map[string]string

	// Always remove and recreate this service's container, even when a
	// running one exists on the network.
	AlwaysStartNew bool

	// IsReady reports whether the service is reachable. Nil means ready as
	// soon as the container is running.
	IsReady func(ctx context.Context) bool

	// PostStartInit runs once after the service became ready.
	PostStartInit func(ctx context.Context) error
}

// DefinitionOption customizes a ServiceDefinition built by NewServiceDefinition.
type DefinitionOption func(*ServiceDefinition)

func WithDependencies(names ...string) DefinitionOption {
	return func(d *ServiceDefinition) {
		d.DependsOn = append(d.DependsOn, names...)
	}
}

func WithPorts(ports map[int]int) DefinitionOption {
	return func(d *ServiceDefinition) {
		d.Ports = ports
	}
}

func WithEnv(env map[string]string) DefinitionOption {
	return func(d *ServiceDefinition) {
		d.Env = env
	}
}

func WithAlwaysStartNew(v bool) DefinitionOption {
	return func(d *ServiceDefinition) {
		d.AlwaysStartNew = v
	}
}

func WithReadyCheck(fn func(ctx context.Context) bool) DefinitionOption {
	return func(d *ServiceDefinition) {
		d.IsReady = fn
	}
}

func WithPostStartInit(fn func(ctx context.Context) error) DefinitionOption {
	return func(d *ServiceDefinition) {
		d.PostStartInit = fn
	}
}

// NewServiceDefinition builds a definition and validates it.
func NewServiceDefinition(name, image string, opts ...DefinitionOption) (*ServiceDefinition, error) {
	d := &ServiceDefinition{
		Name:  name,
		Image: image,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the fields a definition must carry. It returns a
// *LoadError of kind ErrInvalidDefinition on the first violation.
func (d *ServiceDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &LoadError{Kind: ErrInvalidDefinition, Service: d.Name, Detail: "field 'name' must be a non-empty string"}
	}
	if strings.TrimSpace(d.Image) == "" {
		return &LoadError{Kind: ErrInvalidDefinition, Service: d.Name, Detail: "field 'image' must be a non-empty string"}
	}
	for i, dep := range d.DependsOn {
		if strings.TrimSpace(dep) == "" {
			return &LoadError{Kind: ErrInvalidDefinition, Service: d.Name, Detail: fmt.Sprintf("dependency %d has an empty name", i)}
		}
	}
	for containerPort, hostPort := range d.Ports {
		if containerPort < 1 || containerPort > 65535 {
			return &LoadError{Kind: ErrInvalidDefinition, Service: d.Name, Detail: fmt.Sprintf("container port %d out of range", containerPort)}
		}
		if hostPort < 0 || hostPort > 65535 {
			return &LoadError{Kind: ErrInvalidDefinition, Service: d.Name, Detail: fmt.Sprintf("host port %d out of range", hostPort)}
		}
	}
	for k := range d.Env {
		if k == "" || strings.Contains(k, "=") {
			return &LoadError{Kind: ErrInvalidDefinition, Service: d.Name, Detail: fmt.Sprintf("invalid environment variable name %q", k)}
		}
	}
	return nil
}

// EnvList renders Env the way the engine API expects it ("KEY=value").
func (d *ServiceDefinition) EnvList() []string {
	env := make([]string, 0, len(d.Env))
	for k, v := range d.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}
