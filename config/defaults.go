package config

import (
	"time"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

const (
	DefaultConfigFile = "stagehand.yaml"
	projectConfigDir  = ".stagehand"
)

// Overrides are the command-line values that take precedence over the file.
type Overrides struct {
	NetworkName   string
	Timeout       time.Duration
	ForceRecreate bool
}

// RunOptions merges the file's run defaults with overrides. Anything left
// unset falls back to the package defaults in models.
func (f *File) RunOptions(o Overrides) models.RunOptions {
	network := o.NetworkName
	if network == "" && f != nil {
		network = f.Network
	}

	timeout := o.Timeout
	if timeout <= 0 && f != nil && f.Timeout > 0 {
		timeout = time.Duration(f.Timeout) * time.Second
	}

	return models.NewRunOptions(network, timeout, o.ForceRecreate)
}
