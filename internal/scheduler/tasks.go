package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOutreachCycle = "outreach.cycle"

type OutreachCyclePayload struct {
	Channel string `json:"channel"`
}

func NewOutreachCycleTask(payload OutreachCyclePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutreachCycle, data), nil
}

func ParseOutreachCyclePayload(task *asynq.Task) (OutreachCyclePayload, error) {
	var payload OutreachCyclePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutreachCyclePayload{}, err
	}
	return payload, nil
}
