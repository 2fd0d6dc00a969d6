package uninstall

import "context"

// ClusterDriver is the subset of the cluster connection the uninstall steps
// need: killing individual tasks and tearing down the service registration.
type ClusterDriver interface {
	// KillTask asks the cluster to kill the task with the given id.
	KillTask(ctx context.Context, taskID string) error

	// Stop disconnects from the cluster, removing the service registration.
	Stop(ctx context.Context) error
}

// SecretsClient manages TLS artifacts held in the cluster secret store.
type SecretsClient interface {
	// List returns the paths of all secrets under the given namespace.
	List(ctx context.Context, namespace string) ([]string, error)

	// Delete removes the secret at the given path.
	Delete(ctx context.Context, path string) error
}
