package deploy

import "context"

// TaskSpec describes one pod instance to launch.
type TaskSpec struct {
	// Name is the pod instance name, e.g. "node-0".
	Name string

	// Command is the command line the task runs.
	Command string

	// Env is the task environment, including any parameter overrides.
	Env map[string]string
}

// TaskLauncher starts pod instances on the cluster.
type TaskLauncher interface {
	// LaunchTask starts the described task and returns its cluster task id.
	LaunchTask(ctx context.Context, task TaskSpec) (string, error)
}
