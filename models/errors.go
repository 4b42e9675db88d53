package models

import (
	"errors"
	"fmt"
	"strings"
)

// Load-time error kinds. All of them abort before any container is touched.
var (
	ErrInvalidDefinition   = errors.New("invalid service definition")
	ErrNoServicesDefined   = errors.New("no services defined")
	ErrRepeatedServiceName = errors.New("repeated service name")
	ErrExcludedDependency  = errors.New("excluded dependency")
	ErrUnknownDependency   = errors.New("unknown dependency")
	ErrCircularDependency  = errors.New("circular dependency")
)

// Run-time error kinds, local to one service.
var (
	ErrLaunchFailure    = errors.New("launch failure")
	ErrReadinessTimeout = errors.New("readiness timeout")
	ErrInitialization   = errors.New("initialization error")
)

// LoadError is returned while building or loading service definitions.
type LoadError struct {
	Kind    error
	Service string
	Detail  string
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Service != "" {
		fmt.Fprintf(&b, " (service %q)", e.Service)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Kind }

// ServiceError describes why a single service failed to start.
type ServiceError struct {
	Service string
	Kind    error
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("service %q: %v", e.Service, e.Kind)
	}
	return fmt.Sprintf("service %q: %v: %v", e.Service, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RunFailedError is the aggregate outcome of a run in which at least one
// service failed.
type RunFailedError struct {
	Failures []*ServiceError
	Skipped  []string
}

func (e *RunFailedError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Service)
	}
	msg := fmt.Sprintf("failed to start services: %s", strings.Join(names, ","))
	if len(e.Skipped) > 0 {
		msg += fmt.Sprintf(" (skipped: %s)", strings.Join(e.Skipped, ","))
	}
	return msg
}

func (e *RunFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
