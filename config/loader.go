package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

// For mocking in tests
var osGetwd = os.Getwd
var osLookupEnv = os.LookupEnv

// ResolvePath returns path when set, otherwise the first default location
// that exists.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	wd, err := osGetwd()
	if err != nil {
		return "", err
	}

	candidates := []string{
		filepath.Join(wd, DefaultConfigFile),
		filepath.Join(wd, projectConfigDir, DefaultConfigFile),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no %s found in %s or %s", DefaultConfigFile, wd, filepath.Join(wd, projectConfigDir))
}

// LoadFile reads and parses a definition file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error loading definitions from %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error loading definitions from %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a definition file. An entry whose fields have the wrong
// shape (for example ports given as a list) fails with ErrInvalidDefinition
// naming the service.
func Parse(data []byte) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Timeout < 0 {
		return nil, errors.New("timeout must not be negative")
	}

	f := &File{
		Network:  raw.Network,
		Timeout:  raw.Timeout,
		Services: make([]ServiceConfig, 0, len(raw.Services)),
	}

	for i := range raw.Services {
		node := &raw.Services[i]

		var sc ServiceConfig
		if err := node.Decode(&sc); err != nil {
			return nil, &models.LoadError{
				Kind:    models.ErrInvalidDefinition,
				Service: serviceName(node),
				Detail:  fmt.Sprintf("services[%d] (line %d): %v", i, node.Line, err),
			}
		}
		expandEnv(&sc)
		f.Services = append(f.Services, sc)
	}
	return f, nil
}

// serviceName digs the name out of an entry that failed to decode as a whole.
func serviceName(node *yaml.Node) string {
	var partial struct {
		Name string `yaml:"name"`
	}
	if err := node.Decode(&partial); err != nil {
		return ""
	}
	return partial.Name
}

func expandEnv(sc *ServiceConfig) {
	lookup := func(key string) string {
		v, _ := osLookupEnv(key)
		return v
	}

	for k, v := range sc.Env {
		sc.Env[k] = os.Expand(v, lookup)
	}
	if sc.Init != nil {
		for k, v := range sc.Init.Headers {
			sc.Init.Headers[k] = os.Expand(v, lookup)
		}
	}
}
