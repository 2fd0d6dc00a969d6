package uninstall

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/stores"
)

type fakeDriver struct {
	mu      sync.Mutex
	killed  []string
	stopped bool
	killErr error
}

func (d *fakeDriver) KillTask(_ context.Context, taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.killErr != nil {
		return d.killErr
	}
	d.killed = append(d.killed, taskID)
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return nil
}

type fakeSecrets struct {
	paths     []string
	deleted   []string
	deleteErr error
}

func (s *fakeSecrets) List(_ context.Context, _ string) ([]string, error) {
	return s.paths, nil
}

func (s *fakeSecrets) Delete(_ context.Context, path string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, path)
	return nil
}

func setupStore(t *testing.T) stores.StateStore {
	t.Helper()

	store, err := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestBuildWithoutFrameworkID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.SetProperty(ctx, "leftover", "value"); err != nil {
		t.Fatalf("failed to set property: %v", err)
	}

	b := NewBuilder(store, &fakeDriver{}, nil, "", zerolog.Nop())
	p, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("failed to build plan: %v", err)
	}

	if p.Name() != PlanName {
		t.Errorf("expected plan name %q, got %q", PlanName, p.Name())
	}
	if len(p.Children()) != 0 {
		t.Errorf("expected empty plan, got %d phases", len(p.Children()))
	}
	if got := p.Status(); got != plan.StatusComplete {
		t.Errorf("expected empty plan to be COMPLETE, got %s", got)
	}
	if _, ok, _ := store.GetProperty(ctx, "leftover"); ok {
		t.Error("expected state data to be cleared")
	}
}

func TestBuildPhaseOrdering(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.StoreFrameworkID(ctx, "framework-1"); err != nil {
		t.Fatalf("failed to store framework id: %v", err)
	}
	seedTasks := []stores.TaskRecord{
		{ID: "t1", Name: "node-0", State: "TASK_RUNNING", ResourceIDs: []string{"res-b", "res-a"}},
		{ID: "t2", Name: "node-1", State: "TASK_RUNNING", ResourceIDs: []string{"res-a", "res-c"}},
	}
	for _, task := range seedTasks {
		if err := store.StoreTask(ctx, task); err != nil {
			t.Fatalf("failed to store task: %v", err)
		}
	}
	if err := store.MarkResourceUnreserved(ctx, "res-c"); err != nil {
		t.Fatalf("failed to tombstone resource: %v", err)
	}

	b := NewBuilder(store, &fakeDriver{}, &fakeSecrets{}, "svc/tls", zerolog.Nop())
	p, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("failed to build plan: %v", err)
	}

	phases := p.Children()
	wantPhases := []string{"kill-tasks", "unreserve-resources", "tls-cleanup", "deregister-service"}
	if len(phases) != len(wantPhases) {
		t.Fatalf("expected %d phases, got %d", len(wantPhases), len(phases))
	}
	for i, name := range wantPhases {
		if phases[i].Name() != name {
			t.Errorf("phase %d: expected %q, got %q", i, name, phases[i].Name())
		}
	}

	if got := len(phases[0].Children()); got != 2 {
		t.Errorf("expected 2 kill steps, got %d", got)
	}

	// Resource ids are deduplicated and ordered; the tombstoned one starts
	// COMPLETE.
	unreserve := phases[1].Children()
	wantSteps := []string{"unreserve-res-a", "unreserve-res-b", "unreserve-res-c"}
	if len(unreserve) != len(wantSteps) {
		t.Fatalf("expected %d unreserve steps, got %d", len(wantSteps), len(unreserve))
	}
	for i, name := range wantSteps {
		if unreserve[i].Name() != name {
			t.Errorf("unreserve step %d: expected %q, got %q", i, name, unreserve[i].Name())
		}
	}
	if got := unreserve[2].Status(); got != plan.StatusComplete {
		t.Errorf("expected tombstoned resource step to start COMPLETE, got %s", got)
	}
	if got := unreserve[0].Status(); got != plan.StatusPending {
		t.Errorf("expected live resource step to start PENDING, got %s", got)
	}

	if got := p.Status(); got != plan.StatusPending {
		t.Errorf("expected fresh uninstall plan to be PENDING, got %s", got)
	}
}

func TestBuildWithoutSecretsClient(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.StoreFrameworkID(ctx, "framework-1"); err != nil {
		t.Fatalf("failed to store framework id: %v", err)
	}

	b := NewBuilder(store, &fakeDriver{}, nil, "", zerolog.Nop())
	p, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("failed to build plan: %v", err)
	}

	for _, phase := range p.Children() {
		if phase.Name() == "tls-cleanup" {
			t.Error("expected no tls-cleanup phase without a secrets client")
		}
	}
}

func TestTaskKillStepLifecycle(t *testing.T) {
	driver := &fakeDriver{}
	step := NewTaskKillStep("t1", "node-0", driver, zerolog.Nop())

	step.Start()
	if got := step.Status(); got != plan.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS after start, got %s", got)
	}
	if len(driver.killed) != 1 || driver.killed[0] != "t1" {
		t.Errorf("expected kill for t1, got %v", driver.killed)
	}

	// Updates for other tasks and non-terminal states are ignored.
	step.Update(plan.TaskStatus{TaskID: "other", State: plan.TaskStateKilled})
	step.Update(plan.TaskStatus{TaskID: "t1", State: plan.TaskStateRunning})
	if got := step.Status(); got != plan.StatusInProgress {
		t.Fatalf("expected step to remain IN_PROGRESS, got %s", got)
	}

	step.Update(plan.TaskStatus{TaskID: "t1", State: plan.TaskStateKilled})
	if got := step.Status(); got != plan.StatusComplete {
		t.Errorf("expected COMPLETE after terminal update, got %s", got)
	}
}

func TestTaskKillStepFailure(t *testing.T) {
	driver := &fakeDriver{killErr: errors.New("connection lost")}
	step := NewTaskKillStep("t1", "node-0", driver, zerolog.Nop())

	step.Start()
	if got := step.Status(); got != plan.StatusError {
		t.Fatalf("expected ERROR after failed kill, got %s", got)
	}
	if errs := step.Errors(); len(errs) != 1 {
		t.Errorf("expected 1 recorded error, got %v", errs)
	}
}

func TestResourceCleanupStep(t *testing.T) {
	store := setupStore(t)
	step := NewResourceCleanupStep("res-a", false, store, zerolog.Nop())

	step.Start()
	if got := step.Status(); got != plan.StatusComplete {
		t.Fatalf("expected COMPLETE, got %s", got)
	}

	resources, err := store.FetchResources(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch resources: %v", err)
	}
	if len(resources) != 1 || !resources[0].Unreserved {
		t.Errorf("expected res-a tombstoned, got %+v", resources)
	}
}

func TestTLSCleanupStep(t *testing.T) {
	secrets := &fakeSecrets{paths: []string{"svc/tls/cert", "svc/tls/key"}}
	step := NewTLSCleanupStep("svc/tls", secrets, zerolog.Nop())

	step.Start()
	if got := step.Status(); got != plan.StatusComplete {
		t.Fatalf("expected COMPLETE, got %s", got)
	}
	if len(secrets.deleted) != 2 {
		t.Errorf("expected 2 deleted secrets, got %v", secrets.deleted)
	}
}

func TestTLSCleanupStepFailure(t *testing.T) {
	secrets := &fakeSecrets{paths: []string{"svc/tls/cert"}, deleteErr: errors.New("denied")}
	step := NewTLSCleanupStep("svc/tls", secrets, zerolog.Nop())

	step.Start()
	if got := step.Status(); got != plan.StatusError {
		t.Fatalf("expected ERROR, got %s", got)
	}
}

func TestDeregisterStep(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.StoreFrameworkID(ctx, "framework-1"); err != nil {
		t.Fatalf("failed to store framework id: %v", err)
	}
	driver := &fakeDriver{}
	step := NewDeregisterStep(store, driver, zerolog.Nop())

	step.Start()
	if got := step.Status(); got != plan.StatusComplete {
		t.Fatalf("expected COMPLETE, got %s", got)
	}
	if !driver.stopped {
		t.Error("expected driver to be stopped")
	}
	if _, ok, _ := store.FetchFrameworkID(ctx); ok {
		t.Error("expected framework id cleared")
	}
}
