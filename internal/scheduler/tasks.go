package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskCascadeStepRetry = "quotations.cascade.retry"

type CascadeStepRetryPayload struct {
	RunID          string `json:"runId"`
	QuotationID    string `json:"quotationId"`
	OrganizationID string `json:"organizationId"`
	Step           string `json:"step"`
	Attempt        int    `json:"attempt"`
}

func NewCascadeStepRetryTask(payload CascadeStepRetryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCascadeStepRetry, data), nil
}

func ParseCascadeStepRetryPayload(task *asynq.Task) (CascadeStepRetryPayload, error) {
	var payload CascadeStepRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CascadeStepRetryPayload{}, err
	}
	return payload, nil
}

// cascadeRetryTaskID makes one retry attempt of a step enqueue at most once.
func cascadeRetryTaskID(payload CascadeStepRetryPayload) string {
	return fmt.Sprintf("cascade:%s:%s:%d", payload.RunID, payload.Step, payload.Attempt)
}
