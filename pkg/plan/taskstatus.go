package plan

// TaskState is the lifecycle state reported by the cluster scheduler for a
// launched task.
type TaskState string

const (
	TaskStateStaging  TaskState = "TASK_STAGING"
	TaskStateStarting TaskState = "TASK_STARTING"
	TaskStateRunning  TaskState = "TASK_RUNNING"
	TaskStateFinished TaskState = "TASK_FINISHED"
	TaskStateFailed   TaskState = "TASK_FAILED"
	TaskStateKilled   TaskState = "TASK_KILLED"
	TaskStateLost     TaskState = "TASK_LOST"
	TaskStateError    TaskState = "TASK_ERROR"
)

// IsTerminal returns true if the task state is final.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateFinished, TaskStateFailed, TaskStateKilled, TaskStateLost, TaskStateError:
		return true
	}
	return false
}

// TaskStatus is a status confirmation for a single task, fed into the plan
// tree by the offer-processing loop. Elements which do not own the task
// ignore it.
type TaskStatus struct {
	// TaskID identifies the task the update refers to.
	TaskID string

	// State is the reported lifecycle state.
	State TaskState

	// Message carries an optional human-readable detail, typically set for
	// failures.
	Message string
}
