package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/deploy"
	"github.com/planwheel/planwheel/pkg/plan"
)

// LocalDriver is an in-process stand-in for a cluster scheduler. Launched
// tasks are immediately confirmed running and kills are immediately
// confirmed killed, via the Updates channel the offer loop drains.
type LocalDriver struct {
	logger zerolog.Logger

	mu      sync.Mutex
	nextID  int
	stopped bool

	updates chan plan.TaskStatus
}

// NewLocalDriver creates a local driver.
func NewLocalDriver(logger zerolog.Logger) *LocalDriver {
	return &LocalDriver{
		logger:  logger.With().Str("component", "local-driver").Logger(),
		updates: make(chan plan.TaskStatus, 64),
	}
}

// Updates returns the channel carrying task status confirmations.
func (d *LocalDriver) Updates() <-chan plan.TaskStatus {
	return d.updates
}

// LaunchTask assigns a task id and confirms the task running.
func (d *LocalDriver) LaunchTask(_ context.Context, task deploy.TaskSpec) (string, error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return "", fmt.Errorf("driver is stopped")
	}
	d.nextID++
	taskID := fmt.Sprintf("local-%d", d.nextID)
	d.mu.Unlock()

	d.logger.Info().
		Str("task_id", taskID).
		Str("name", task.Name).
		Str("command", task.Command).
		Msg("Launched local task")

	d.emit(plan.TaskStatus{TaskID: taskID, State: plan.TaskStateRunning})
	return taskID, nil
}

// KillTask confirms the task killed.
func (d *LocalDriver) KillTask(_ context.Context, taskID string) error {
	d.logger.Info().Str("task_id", taskID).Msg("Killed local task")
	d.emit(plan.TaskStatus{TaskID: taskID, State: plan.TaskStateKilled})
	return nil
}

// Stop marks the driver stopped. Subsequent launches fail.
func (d *LocalDriver) Stop(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.logger.Info().Msg("Local driver stopped")
	return nil
}

func (d *LocalDriver) emit(status plan.TaskStatus) {
	select {
	case d.updates <- status:
	default:
		d.logger.Warn().Str("task_id", status.TaskID).Msg("Update channel full, dropping confirmation")
	}
}
