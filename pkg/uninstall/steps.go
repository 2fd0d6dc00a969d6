package uninstall

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/stores"
)

// stepTimeout bounds the external calls made from a single Start invocation.
const stepTimeout = 30 * time.Second

// TaskKillStep issues a kill for one task and completes once the cluster
// confirms the task reached a terminal state.
type TaskKillStep struct {
	*plan.StepCore

	driver ClusterDriver
	taskID string
}

// NewTaskKillStep creates a step that kills the task with the given id.
func NewTaskKillStep(taskID, taskName string, driver ClusterDriver, logger zerolog.Logger) *TaskKillStep {
	return &TaskKillStep{
		StepCore: plan.NewStepCore(fmt.Sprintf("kill-%s", taskName), plan.StatusPending, "", logger),
		driver:   driver,
		taskID:   taskID,
	}
}

// Start issues the kill. Completion is confirmed asynchronously via Update
// when the terminal task status arrives.
func (s *TaskKillStep) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	s.Logger().Info().Str("task_id", s.taskID).Msg("Killing task")
	if err := s.driver.KillTask(ctx, s.taskID); err != nil {
		s.Fail(fmt.Errorf("failed to kill task %s: %w", s.taskID, err))
		return
	}
	s.SetStatus(plan.StatusInProgress)
}

// Update completes the step once its task reports a terminal state.
func (s *TaskKillStep) Update(status plan.TaskStatus) {
	if status.TaskID != s.taskID {
		return
	}
	if status.State.IsTerminal() {
		s.Logger().Info().
			Str("task_id", s.taskID).
			Str("state", string(status.State)).
			Msg("Task reached terminal state")
		s.SetStatus(plan.StatusComplete)
	}
}

// ResourceCleanupStep tombstones one reserved resource in the state store.
// Resources already tombstoned are constructed COMPLETE.
type ResourceCleanupStep struct {
	*plan.StepCore

	store      stores.StateStore
	resourceID string
}

// NewResourceCleanupStep creates a step that unreserves the given resource.
func NewResourceCleanupStep(resourceID string, tombstoned bool, store stores.StateStore, logger zerolog.Logger) *ResourceCleanupStep {
	initial := plan.StatusPending
	if tombstoned {
		initial = plan.StatusComplete
	}
	return &ResourceCleanupStep{
		StepCore:   plan.NewStepCore(fmt.Sprintf("unreserve-%s", resourceID), initial, "", logger),
		store:      store,
		resourceID: resourceID,
	}
}

// Start writes the unreservation tombstone and completes.
func (s *ResourceCleanupStep) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	if err := s.store.MarkResourceUnreserved(ctx, s.resourceID); err != nil {
		s.Fail(fmt.Errorf("failed to unreserve resource %s: %w", s.resourceID, err))
		return
	}
	s.SetStatus(plan.StatusComplete)
}

// TLSCleanupStep deletes every secret under the service's TLS namespace.
type TLSCleanupStep struct {
	*plan.StepCore

	secrets   SecretsClient
	namespace string
}

// NewTLSCleanupStep creates a step that removes the service's TLS artifacts.
func NewTLSCleanupStep(namespace string, secrets SecretsClient, logger zerolog.Logger) *TLSCleanupStep {
	return &TLSCleanupStep{
		StepCore:  plan.NewStepCore("tls-cleanup", plan.StatusPending, "", logger),
		secrets:   secrets,
		namespace: namespace,
	}
}

// Start lists and deletes the namespace's secrets, then completes.
func (s *TLSCleanupStep) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	paths, err := s.secrets.List(ctx, s.namespace)
	if err != nil {
		s.Fail(fmt.Errorf("failed to list secrets under %s: %w", s.namespace, err))
		return
	}
	for _, path := range paths {
		if err := s.secrets.Delete(ctx, path); err != nil {
			s.Fail(fmt.Errorf("failed to delete secret %s: %w", path, err))
			return
		}
		s.Logger().Info().Str("path", path).Msg("Deleted secret")
	}
	s.SetStatus(plan.StatusComplete)
}

// DeregisterStep removes the service from the cluster: it clears the stored
// framework id, stops the driver and wipes the remaining state data. It runs
// last, once every other uninstall phase is complete.
type DeregisterStep struct {
	*plan.StepCore

	store  stores.StateStore
	driver ClusterDriver
}

// NewDeregisterStep creates the final uninstall step.
func NewDeregisterStep(store stores.StateStore, driver ClusterDriver, logger zerolog.Logger) *DeregisterStep {
	return &DeregisterStep{
		StepCore: plan.NewStepCore("deregister-service", plan.StatusPending, "", logger),
		store:    store,
		driver:   driver,
	}
}

// Start deregisters the service and completes.
func (s *DeregisterStep) Start() {
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()

	s.SetStatus(plan.StatusInProgress)

	if err := s.store.ClearFrameworkID(ctx); err != nil {
		s.Fail(fmt.Errorf("failed to clear framework id: %w", err))
		return
	}
	if err := s.driver.Stop(ctx); err != nil {
		s.Fail(fmt.Errorf("failed to stop driver: %w", err))
		return
	}
	if err := s.store.ClearAllData(ctx); err != nil {
		s.Fail(fmt.Errorf("failed to clear state data: %w", err))
		return
	}

	s.Logger().Info().Msg("Service deregistered")
	s.SetStatus(plan.StatusComplete)
}
