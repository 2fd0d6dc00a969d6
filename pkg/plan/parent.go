package plan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// composite implements the behavior shared by every Element which owns
// children: Phases own Steps and Plans own Phases. It aggregates child
// statuses, cascades lifecycle operations, and forwards change notifications
// from children up toward the plan root. Phase and Plan hold one by
// composition rather than reimplementing any of this.
type composite[C Element] struct {
	Observable

	logger zerolog.Logger

	id       uuid.UUID
	name     string
	children []C
	strategy Strategy[C]
	errors   []string
}

// newComposite builds the shared composite state and subscribes itself to
// every child so that child status changes propagate upward. The children
// list is fixed for the composite's lifetime.
func newComposite[C Element](name string, children []C, strategy Strategy[C], errors []string, logger zerolog.Logger) *composite[C] {
	c := &composite[C]{
		logger:   logger,
		id:       uuid.New(),
		name:     name,
		children: children,
		strategy: strategy,
		errors:   errors,
	}
	for _, child := range children {
		child.Subscribe(c)
	}
	return c
}

// ElementUpdated forwards a child's change notification to this composite's
// own subscribers, chaining updates from steps up to the plan root.
func (c *composite[C]) ElementUpdated(e Element) {
	c.notifyObservers(e)
}

// ID returns the composite's unique identifier.
func (c *composite[C]) ID() uuid.UUID {
	return c.id
}

// Name returns the composite's name.
func (c *composite[C]) Name() string {
	return c.name
}

// Children returns the composite's fixed, ordered children list.
func (c *composite[C]) Children() []C {
	return c.children
}

// Strategy returns the strategy governing which children are candidates.
func (c *composite[C]) Strategy() Strategy[C] {
	return c.strategy
}

// Interrupt pauses the composite by interrupting its strategy. Children are
// not touched: their own interrupted flags are independent.
func (c *composite[C]) Interrupt() bool {
	changed := c.strategy.Interrupt()
	c.notifyObservers(c)
	return changed
}

// Proceed resumes the composite by clearing its strategy's interruption.
func (c *composite[C]) Proceed() bool {
	changed := c.strategy.Proceed()
	c.notifyObservers(c)
	return changed
}

// IsInterrupted reports whether the composite's strategy is interrupted.
func (c *composite[C]) IsInterrupted() bool {
	return c.strategy.IsInterrupted()
}

// IsEligible reports whether candidate selection may descend into this
// composite.
func (c *composite[C]) IsEligible(dirtyAssets AssetSet) bool {
	return !c.IsInterrupted()
}

// Errors returns the composite's own errors followed by every child's, in
// declaration order.
func (c *composite[C]) Errors() []string {
	errors := make([]string, 0, len(c.errors))
	errors = append(errors, c.errors...)
	for _, child := range c.children {
		errors = append(errors, child.Errors()...)
	}
	return errors
}

// Update fans the task status out to every child unconditionally.
func (c *composite[C]) Update(status TaskStatus) {
	c.logger.Debug().
		Str("element", c.name).
		Str("task_id", status.TaskID).
		Str("state", string(status.State)).
		Msg("Updating children with task status")
	for _, child := range c.children {
		child.Update(status)
	}
}

// UpdateParameters fans the parameters out to every child unconditionally.
func (c *composite[C]) UpdateParameters(parameters map[string]string) {
	for _, child := range c.children {
		child.UpdateParameters(parameters)
	}
}

// Restart restarts every child and returns the union of elements actually
// changed by the operation.
func (c *composite[C]) Restart() []Element {
	c.logger.Info().Str("element", c.name).Msg("Restarting child elements")
	var modified []Element
	for _, child := range c.children {
		modified = append(modified, child.Restart()...)
	}
	return modified
}

// ForceComplete force-completes every child and returns the union of
// elements actually changed by the operation.
func (c *composite[C]) ForceComplete() []Element {
	c.logger.Info().Str("element", c.name).Msg("Forcing completion of child elements")
	var modified []Element
	for _, child := range c.children {
		modified = append(modified, child.ForceComplete()...)
	}
	return modified
}

// Status computes the composite's status fresh from child state. Ordering
// matters throughout this method; first match wins. It must never consult
// this composite's own parent, which would create a circular call.
func (c *composite[C]) Status() Status {
	children := c.children
	if children == nil {
		c.logger.Error().Str("element", c.name).Msg("Parent element has nil children list")
		return StatusError
	}

	// Candidates for status purposes are computed with no dirty-asset
	// filter: cross-plan exclusions affect dispatch, not reporting.
	candidates := c.strategy.Candidates(children, nil)

	var result Status
	switch {
	case len(c.Errors()) > 0 || AnyHaveStatus(StatusError, children):
		result = StatusError
		c.debugStatus(result, "elements contain errors")
	case AllHaveStatus(StatusComplete, children):
		result = StatusComplete
		c.debugStatus(result, "all children complete")
	case c.IsInterrupted():
		result = StatusWaiting
		c.debugStatus(result, "parent element is interrupted")
	case AnyHaveStatus(StatusPrepared, children):
		result = StatusInProgress
		c.debugStatus(result, "at least one child prepared")
	case AnyHaveStatus(StatusWaiting, candidates):
		result = StatusWaiting
		c.debugStatus(result, "at least one candidate waiting")
	case AnyHaveStatus(StatusInProgress, candidates):
		result = StatusInProgress
		c.debugStatus(result, "at least one candidate in progress")
	case AnyHaveStatus(StatusComplete, children) && AnyHaveStatus(StatusPending, candidates):
		result = StatusInProgress
		c.debugStatus(result, "some children complete, some candidates pending")
	case AnyHaveStatus(StatusComplete, children) && AnyHaveStatus(StatusStarting, candidates):
		result = StatusInProgress
		c.debugStatus(result, "some children complete, some candidates starting")
	case len(candidates) > 0 && AnyHaveStatus(StatusPending, candidates):
		result = StatusPending
		c.debugStatus(result, "at least one candidate pending")
	case AnyHaveStatus(StatusWaiting, children):
		result = StatusWaiting
		c.debugStatus(result, "at least one child waiting")
	case AnyHaveStatus(StatusStarting, candidates):
		result = StatusStarting
		c.debugStatus(result, "at least one candidate starting")
	default:
		result = StatusError
		c.logger.Warn().
			Str("element", c.name).
			Str("status", string(result)).
			Msg("Unexpected state during status aggregation")
	}
	return result
}

func (c *composite[C]) debugStatus(result Status, reason string) {
	c.logger.Debug().
		Str("element", c.name).
		Str("status", string(result)).
		Msg(reason)
}

func (c *composite[C]) String() string {
	return fmt.Sprintf("%s(status=%s,strategy=%s)", c.name, c.Status(), c.strategy.Name())
}
