package stores

import (
	"context"
	"testing"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{Path: ":memory:"})
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

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFrameworkIDLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := store.FetchFrameworkID(ctx)
	if err != nil {
		t.Fatalf("failed to fetch framework id: %v", err)
	}
	if ok {
		t.Fatal("expected no framework id in empty store")
	}

	if err := store.StoreFrameworkID(ctx, "framework-1"); err != nil {
		t.Fatalf("failed to store framework id: %v", err)
	}

	id, ok, err := store.FetchFrameworkID(ctx)
	if err != nil {
		t.Fatalf("failed to fetch framework id: %v", err)
	}
	if !ok || id != "framework-1" {
		t.Errorf("expected framework-1, got %q (ok=%v)", id, ok)
	}

	// Overwrite replaces the singleton row.
	if err := store.StoreFrameworkID(ctx, "framework-2"); err != nil {
		t.Fatalf("failed to overwrite framework id: %v", err)
	}
	id, _, _ = store.FetchFrameworkID(ctx)
	if id != "framework-2" {
		t.Errorf("expected framework-2 after overwrite, got %q", id)
	}

	if err := store.ClearFrameworkID(ctx); err != nil {
		t.Fatalf("failed to clear framework id: %v", err)
	}
	_, ok, _ = store.FetchFrameworkID(ctx)
	if ok {
		t.Error("expected framework id cleared")
	}
}

func TestTaskRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	task := TaskRecord{
		ID:          "task-1",
		Name:        "node-0-server",
		State:       "TASK_RUNNING",
		ResourceIDs: []string{"res-a", "res-b"},
	}
	if err := store.StoreTask(ctx, task); err != nil {
		t.Fatalf("failed to store task: %v", err)
	}

	tasks, err := store.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("failed to fetch tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.ID != "task-1" || got.Name != "node-0-server" || got.State != "TASK_RUNNING" {
		t.Errorf("unexpected task record: %+v", got)
	}
	if len(got.ResourceIDs) != 2 || got.ResourceIDs[0] != "res-a" {
		t.Errorf("unexpected resource ids: %v", got.ResourceIDs)
	}

	// Upsert updates state in place.
	task.State = "TASK_KILLED"
	if err := store.StoreTask(ctx, task); err != nil {
		t.Fatalf("failed to update task: %v", err)
	}
	tasks, _ = store.FetchTasks(ctx)
	if len(tasks) != 1 || tasks[0].State != "TASK_KILLED" {
		t.Errorf("expected updated state TASK_KILLED, got %+v", tasks)
	}
}

func TestResourceTombstones(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.StoreResource(ctx, ResourceRecord{ID: "res-a"}); err != nil {
		t.Fatalf("failed to store resource: %v", err)
	}
	if err := store.MarkResourceUnreserved(ctx, "res-a"); err != nil {
		t.Fatalf("failed to mark resource unreserved: %v", err)
	}
	if err := store.MarkResourceUnreserved(ctx, "res-b"); err != nil {
		t.Fatalf("failed to tombstone unknown resource: %v", err)
	}

	resources, err := store.FetchResources(ctx)
	if err != nil {
		t.Fatalf("failed to fetch resources: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	for _, r := range resources {
		if !r.Unreserved {
			t.Errorf("expected resource %s to be unreserved", r.ID)
		}
	}
}

func TestProperties(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := store.GetProperty(ctx, "suppressed")
	if err != nil {
		t.Fatalf("failed to get property: %v", err)
	}
	if ok {
		t.Fatal("expected property to be unset")
	}

	if err := store.SetProperty(ctx, "suppressed", "true"); err != nil {
		t.Fatalf("failed to set property: %v", err)
	}
	if err := store.SetProperty(ctx, "suppressed", "false"); err != nil {
		t.Fatalf("failed to overwrite property: %v", err)
	}

	value, ok, err := store.GetProperty(ctx, "suppressed")
	if err != nil {
		t.Fatalf("failed to get property: %v", err)
	}
	if !ok || value != "false" {
		t.Errorf("expected false, got %q (ok=%v)", value, ok)
	}
}

func TestClearAllData(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.StoreFrameworkID(ctx, "framework-1"); err != nil {
		t.Fatalf("failed to store framework id: %v", err)
	}
	if err := store.StoreTask(ctx, TaskRecord{ID: "task-1", Name: "n", State: "TASK_RUNNING"}); err != nil {
		t.Fatalf("failed to store task: %v", err)
	}
	if err := store.StoreResource(ctx, ResourceRecord{ID: "res-a"}); err != nil {
		t.Fatalf("failed to store resource: %v", err)
	}
	if err := store.SetProperty(ctx, "k", "v"); err != nil {
		t.Fatalf("failed to set property: %v", err)
	}

	if err := store.ClearAllData(ctx); err != nil {
		t.Fatalf("failed to clear data: %v", err)
	}

	if _, ok, _ := store.FetchFrameworkID(ctx); ok {
		t.Error("expected framework id cleared")
	}
	tasks, _ := store.FetchTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
	resources, _ := store.FetchResources(ctx)
	if len(resources) != 0 {
		t.Errorf("expected no resources, got %d", len(resources))
	}
	if _, ok, _ := store.GetProperty(ctx, "k"); ok {
		t.Error("expected properties cleared")
	}
}

func TestHealthCheck(t *testing.T) {
	store := setupTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("health check failed: %v", err)
	}
}
