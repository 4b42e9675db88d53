package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultNetworkName      = "stagehand-network"
	DefaultReadinessTimeout = 300 * time.Second
	DefaultPollInterval     = 200 * time.Millisecond
)

// RunOptions is shared, read-only, by every agent of a run.
type RunOptions struct {
	ForceRecreate    bool
	NetworkName      string
	ReadinessTimeout time.Duration
	PollInterval     time.Duration

	// Labels every container created during the run
	RunID uuid.UUID
}

// NewRunOptions fills in defaults for zero values and assigns a run id.
func NewRunOptions(networkName string, timeout time.Duration, forceRecreate bool) RunOptions {
	opts := RunOptions{
		ForceRecreate:    forceRecreate,
		NetworkName:      networkName,
		ReadinessTimeout: timeout,
		PollInterval:     DefaultPollInterval,
		RunID:            uuid.New(),
	}
	if opts.NetworkName == "" {
		opts.NetworkName = DefaultNetworkName
	}
	if opts.ReadinessTimeout <= 0 {
		opts.ReadinessTimeout = DefaultReadinessTimeout
	}
	return opts
}
