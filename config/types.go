package config

import "gopkg.in/yaml.v3"

// File is a parsed definition file.
type File struct {
	Path     string          `yaml:"-"`
	Network  string          `yaml:"network,omitempty"`
	Timeout  int             `yaml:"timeout,omitempty"` // seconds
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig is one entry under services.
type ServiceConfig struct {
	Name           string            `yaml:"name"`
	Image          string            `yaml:"image"`
	DependsOn      []string          `yaml:"depends_on,omitempty"`
	Ports          map[int]int       `yaml:"ports,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	AlwaysStartNew bool              `yaml:"always_start_new,omitempty"`
	Ready          *ReadyConfig      `yaml:"ready,omitempty"`
	Init           *InitConfig       `yaml:"init,omitempty"`
}

// ReadyConfig selects the readiness check of a service.
type ReadyConfig struct {
	Endpoint string `yaml:"endpoint"`
	Path     string `yaml:"path,omitempty"`
}

// InitConfig is the HTTP call made once a service is ready.
type InitConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Method   string            `yaml:"method,omitempty"`
	Path     string            `yaml:"path,omitempty"`
	Body     string            `yaml:"body,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// rawFile defers decoding of the services so that a malformed entry can be
// reported against its service name.
type rawFile struct {
	Network  string      `yaml:"network"`
	Timeout  int         `yaml:"timeout"`
	Services []yaml.Node `yaml:"services"`
}
