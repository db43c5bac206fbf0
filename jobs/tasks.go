package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCapabilityScan runs the capability audit and logs findings.
	TaskCapabilityScan = "audit:capability_scan"
)

// CapabilityScanPayload tunes a scheduled scan run.
type CapabilityScanPayload struct {
	// WarnOnCustomRoles also logs custom roles holding high-risk caps.
	WarnOnCustomRoles bool `json:"warn_on_custom_roles"`
}

// NewCapabilityScanTask constructs an Asynq task for the capability scan.
func NewCapabilityScanTask(payload CapabilityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCapabilityScan, data), nil
}
