package deploy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/stores"
)

// launchTimeout bounds the cluster and store calls made from Start.
const launchTimeout = 30 * time.Second

// LaunchStep launches one pod instance. It moves to STARTING once the launch
// has been issued and completes when the cluster reports the task running.
// The pod instance name doubles as the step's asset, so two plans can never
// work on the same instance at once.
type LaunchStep struct {
	*plan.StepCore

	launcher TaskLauncher
	store    stores.StateStore
	command  string
	baseEnv  map[string]string

	// mu guards taskID and overrides.
	mu        sync.Mutex
	taskID    string
	overrides map[string]string
}

// NewLaunchStep creates a step that launches the named pod instance.
func NewLaunchStep(instanceName, command string, env map[string]string, launcher TaskLauncher, store stores.StateStore, logger zerolog.Logger) *LaunchStep {
	return &LaunchStep{
		StepCore: plan.NewStepCore(instanceName, plan.StatusPending, instanceName, logger),
		launcher: launcher,
		store:    store,
		command:  command,
		baseEnv:  env,
	}
}

// UpdateParameters records environment overrides applied to the next launch.
func (s *LaunchStep) UpdateParameters(parameters map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overrides == nil {
		s.overrides = make(map[string]string, len(parameters))
	}
	for k, v := range parameters {
		s.overrides[k] = v
	}
}

// Start issues the launch and records the task in the state store.
func (s *LaunchStep) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), launchTimeout)
	defer cancel()

	s.SetStatus(plan.StatusPrepared)

	taskID, err := s.launcher.LaunchTask(ctx, TaskSpec{
		Name:    s.Name(),
		Command: s.command,
		Env:     s.environment(),
	})
	if err != nil {
		s.Fail(fmt.Errorf("failed to launch %s: %w", s.Name(), err))
		return
	}

	s.mu.Lock()
	s.taskID = taskID
	s.mu.Unlock()

	record := stores.TaskRecord{
		ID:    taskID,
		Name:  s.Name(),
		State: string(plan.TaskStateStaging),
	}
	if err := s.store.StoreTask(ctx, record); err != nil {
		s.Fail(fmt.Errorf("failed to record task %s: %w", taskID, err))
		return
	}

	s.Logger().Info().Str("task_id", taskID).Msg("Launched pod instance")
	s.SetStatus(plan.StatusStarting)
}

// Update advances the step on confirmations for its own task: running
// completes the step, a terminal state fails it.
func (s *LaunchStep) Update(status plan.TaskStatus) {
	s.mu.Lock()
	taskID := s.taskID
	s.mu.Unlock()
	if taskID == "" || status.TaskID != taskID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), launchTimeout)
	defer cancel()
	record := stores.TaskRecord{ID: taskID, Name: s.Name(), State: string(status.State)}
	if err := s.store.StoreTask(ctx, record); err != nil {
		s.Logger().Error().Err(err).Str("task_id", taskID).Msg("Failed to record task state")
	}

	switch {
	case status.State == plan.TaskStateRunning:
		s.SetStatus(plan.StatusComplete)
	case status.State.IsTerminal():
		s.Fail(fmt.Errorf("task %s reached %s: %s", taskID, status.State, status.Message))
	}
}

// environment merges the pod env with any recorded overrides.
func (s *LaunchStep) environment() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := make(map[string]string, len(s.baseEnv)+len(s.overrides))
	for k, v := range s.baseEnv {
		env[k] = v
	}
	for k, v := range s.overrides {
		env[k] = v
	}
	return env
}
