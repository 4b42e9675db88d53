package config

import (
	"fmt"

	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/services/probe"
)

// Definitions builds validated service definitions, wiring the readiness and
// init hooks from their endpoints.
func (f *File) Definitions() ([]*models.ServiceDefinition, error) {
	defs := make([]*models.ServiceDefinition, 0, len(f.Services))
	for _, sc := range f.Services {
		def, err := sc.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (sc ServiceConfig) Definition() (*models.ServiceDefinition, error) {
	opts := []models.DefinitionOption{
		models.WithDependencies(sc.DependsOn...),
		models.WithPorts(sc.Ports),
		models.WithEnv(sc.Env),
		models.WithAlwaysStartNew(sc.AlwaysStartNew),
	}

	if sc.Ready != nil {
		check, err := probe.Readiness(sc.Ready.Endpoint, sc.Ready.Path)
		if err != nil {
			return nil, invalid(sc.Name, "ready", err)
		}
		opts = append(opts, models.WithReadyCheck(check))
	}

	if sc.Init != nil {
		hook, err := probe.Init(probe.InitRequest{
			Endpoint: sc.Init.Endpoint,
			Method:   sc.Init.Method,
			Path:     sc.Init.Path,
			Body:     sc.Init.Body,
			Headers:  sc.Init.Headers,
		})
		if err != nil {
			return nil, invalid(sc.Name, "init", err)
		}
		opts = append(opts, models.WithPostStartInit(hook))
	}

	return models.NewServiceDefinition(sc.Name, sc.Image, opts...)
}

func invalid(service, field string, err error) error {
	return &models.LoadError{
		Kind:    models.ErrInvalidDefinition,
		Service: service,
		Detail:  fmt.Sprintf("field '%s': %v", field, err),
	}
}
