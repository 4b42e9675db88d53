package scheduler

import (
	"fmt"
	"strings"

	"github.com/ezenkico/deploy-commander/stagehand/models"
)

// ContainerName is "{service}-stagehand-{run}", with the run id shortened.
func ContainerName(service string, options models.RunOptions) string {
	run := strings.ReplaceAll(options.RunID.String(), "-", "")
	if len(run) > 8 {
		run = run[:8]
	}
	return fmt.Sprintf("%s-stagehand-%s", strings.ToLower(strings.TrimSpace(service)), run)
}
