package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProfitabilityWarmup recomputes cached summaries and trends.
	TaskProfitabilityWarmup = "profitability:warmup"
)

// ProfitabilityWarmupPayload selects what a warm-up run refreshes. Empty
// fields fall back to the job defaults.
type ProfitabilityWarmupPayload struct {
	Tenants []string `json:"tenants,omitempty"`
	Month   string   `json:"month,omitempty"`
}

// NewProfitabilityWarmupTask constructs an Asynq task.
func NewProfitabilityWarmupTask(payload ProfitabilityWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProfitabilityWarmup, data), nil
}
