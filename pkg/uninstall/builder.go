package uninstall

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/plan/strategy"
	"github.com/planwheel/planwheel/pkg/stores"
)

// PlanName is the name the uninstall plan is published under. It reuses the
// deploy plan name so the standard plan endpoints drive the uninstall.
const PlanName = "deploy"

// Builder assembles the uninstall plan from the current contents of the
// state store.
type Builder struct {
	store        stores.StateStore
	driver       ClusterDriver
	secrets      SecretsClient
	tlsNamespace string
	logger       zerolog.Logger
}

// NewBuilder creates an uninstall plan builder. secrets may be nil, in which
// case no TLS cleanup phase is produced.
func NewBuilder(store stores.StateStore, driver ClusterDriver, secrets SecretsClient, tlsNamespace string, logger zerolog.Logger) *Builder {
	return &Builder{
		store:        store,
		driver:       driver,
		secrets:      secrets,
		tlsNamespace: tlsNamespace,
		logger:       logger.With().Str("component", "uninstall").Logger(),
	}
}

// Build produces the uninstall plan. If the service never registered there is
// nothing to tear down: the store is wiped and an empty plan is returned,
// which aggregates COMPLETE.
func (b *Builder) Build(ctx context.Context) (*plan.Plan, error) {
	_, registered, err := b.store.FetchFrameworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch framework id: %w", err)
	}
	if !registered {
		b.logger.Info().Msg("Service never registered, nothing to uninstall")
		if err := b.store.ClearAllData(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear state data: %w", err)
		}
		return plan.NewPlan(PlanName, nil, strategy.NewSerial[*plan.Phase](), nil, b.logger), nil
	}

	tasks, err := b.store.FetchTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	resources, err := b.store.FetchResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resources: %w", err)
	}

	phases := []*plan.Phase{
		b.killTasksPhase(tasks),
		b.unreservePhase(tasks, resources),
	}
	if b.secrets != nil {
		phases = append(phases, b.tlsCleanupPhase())
	}
	phases = append(phases, b.deregisterPhase())

	return plan.NewPlan(PlanName, phases, strategy.NewSerial[*plan.Phase](), nil, b.logger), nil
}

// killTasksPhase kills every known task, in parallel.
func (b *Builder) killTasksPhase(tasks []stores.TaskRecord) *plan.Phase {
	steps := make([]plan.Step, 0, len(tasks))
	for _, t := range tasks {
		steps = append(steps, NewTaskKillStep(t.ID, t.Name, b.driver, b.logger))
	}
	return plan.NewPhase("kill-tasks", steps, strategy.NewParallel[plan.Step](), nil, b.logger)
}

// unreservePhase tombstones every resource id referenced by any task, in
// parallel. Resources already tombstoned start COMPLETE.
func (b *Builder) unreservePhase(tasks []stores.TaskRecord, resources []stores.ResourceRecord) *plan.Phase {
	tombstoned := make(map[string]bool, len(resources))
	for _, r := range resources {
		tombstoned[r.ID] = r.Unreserved
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, t := range tasks {
		for _, id := range t.ResourceIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	steps := make([]plan.Step, 0, len(ids))
	for _, id := range ids {
		steps = append(steps, NewResourceCleanupStep(id, tombstoned[id], b.store, b.logger))
	}
	return plan.NewPhase("unreserve-resources", steps, strategy.NewParallel[plan.Step](), nil, b.logger)
}

func (b *Builder) tlsCleanupPhase() *plan.Phase {
	steps := []plan.Step{NewTLSCleanupStep(b.tlsNamespace, b.secrets, b.logger)}
	return plan.NewPhase("tls-cleanup", steps, strategy.NewSerial[plan.Step](), nil, b.logger)
}

func (b *Builder) deregisterPhase() *plan.Phase {
	steps := []plan.Step{NewDeregisterStep(b.store, b.driver, b.logger)}
	return plan.NewPhase("deregister-service", steps, strategy.NewSerial[plan.Step](), nil, b.logger)
}
