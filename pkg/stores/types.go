package stores

import (
	"context"
	"time"
)

// TaskRecord describes a task launched for the service, together with the
// resource ids reserved on its behalf.
type TaskRecord struct {
	// ID is the cluster-assigned task identifier.
	ID string `json:"id"`

	// Name is the task's name within the service (e.g. "server-0").
	Name string `json:"name"`

	// State is the last known task lifecycle state.
	State string `json:"state"`

	// ResourceIDs lists the reserved resource ids attached to the task.
	// Executor-level resources appear on every task sharing the executor,
	// so the same id may occur in multiple records.
	ResourceIDs []string `json:"resource_ids"`

	// CreatedAt is when the record was first written.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceRecord tracks the unreservation state of one reserved resource.
type ResourceRecord struct {
	// ID is the reserved resource id.
	ID string `json:"id"`

	// Unreserved indicates the resource has been released back to the
	// cluster (a tombstone).
	Unreserved bool `json:"unreserved"`
}

// StateStore is the persistence contract consumed by step construction and
// by step implementations.
type StateStore interface {
	// FetchFrameworkID returns the registered framework id, with ok=false
	// if the service has never registered (or has deregistered).
	FetchFrameworkID(ctx context.Context) (id string, ok bool, err error)

	// StoreFrameworkID records the framework id after registration.
	StoreFrameworkID(ctx context.Context, id string) error

	// ClearFrameworkID removes the framework id ahead of deregistration.
	ClearFrameworkID(ctx context.Context) error

	// FetchTasks returns every known task record.
	FetchTasks(ctx context.Context) ([]TaskRecord, error)

	// StoreTask inserts or replaces a task record.
	StoreTask(ctx context.Context, task TaskRecord) error

	// FetchResources returns every known resource record.
	FetchResources(ctx context.Context) ([]ResourceRecord, error)

	// StoreResource inserts or replaces a resource record.
	StoreResource(ctx context.Context, resource ResourceRecord) error

	// MarkResourceUnreserved writes the unreservation tombstone for the
	// resource, creating the record if it does not exist.
	MarkResourceUnreserved(ctx context.Context, resourceID string) error

	// GetProperty returns the named service property, with ok=false if it
	// is unset.
	GetProperty(ctx context.Context, key string) (value string, ok bool, err error)

	// SetProperty stores the named service property.
	SetProperty(ctx context.Context, key, value string) error

	// ClearAllData wipes the store: framework id, tasks, resources, and
	// properties. Used at the end of an uninstall.
	ClearAllData(ctx context.Context) error
}
