package strategy

import "sync/atomic"

// interruptible encapsulates the pause/resume flag shared by every built-in
// strategy implementation.
type interruptible struct {
	interrupted atomic.Bool
}

// Interrupt sets the interrupted flag, returning true if the strategy was
// proceeding before the call.
func (i *interruptible) Interrupt() bool {
	return !i.interrupted.Swap(true)
}

// Proceed clears the interrupted flag, returning true if the strategy was
// interrupted before the call.
func (i *interruptible) Proceed() bool {
	return i.interrupted.Swap(false)
}

// IsInterrupted reports whether the strategy is interrupted.
func (i *interruptible) IsInterrupted() bool {
	return i.interrupted.Load()
}
