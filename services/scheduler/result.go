package scheduler

import (
	"github.com/google/uuid"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

// Result is the outcome of one run.
type Result struct {
	RunID   uuid.UUID `json:"run"`
	Network string    `json:"network"`

	// Started lists services in the order they completed initialization.
	Started  []string               `json:"started"`
	Failures []*models.ServiceError `json:"-"`

	// Skipped lists services never launched because the run failed first.
	Skipped []string `json:"skipped,omitempty"`
}

func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}
