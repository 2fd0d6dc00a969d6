package plan

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step is a leaf Element: an individual unit of work such as launching a pod
// instance, killing a task, or unreserving a resource. Concrete steps embed
// StepCore for the shared status bookkeeping and implement Start to perform
// the actual work.
type Step interface {
	Element

	// Start performs the step's unit of work. It is invoked by the
	// offer-processing loop once the step has been selected as a candidate.
	// The work may complete asynchronously, confirmed later via Update; the
	// step is responsible for eventually advancing its own status to
	// COMPLETE or ERROR.
	Start()

	// Asset returns the identifier of the physical asset this step's work
	// touches, or the empty string if the step claims no asset. Steps whose
	// asset is dirty (claimed by another plan) are excluded from candidacy.
	Asset() string
}

// StepCore provides the common implementation of Step bookkeeping: identity,
// the status plus interrupted flag guarded by a single lock, and observer
// notification. The actual unit of work lives in the embedding type.
type StepCore struct {
	Observable

	logger zerolog.Logger

	id    uuid.UUID
	name  string
	asset string

	// mu guards status, interrupted and errs. It is never held across calls
	// into other elements or observers.
	mu          sync.Mutex
	status      Status
	interrupted bool
	errs        []string
}

// NewStepCore creates step state with the given initial status. The asset
// identifies the physical resource the step's work touches; it may be empty.
func NewStepCore(name string, initial Status, asset string, logger zerolog.Logger) *StepCore {
	c := &StepCore{
		logger: logger.With().Str("step", name).Logger(),
		id:     uuid.New(),
		name:   name,
		asset:  asset,
		status: initial,
	}
	c.logger.Info().Str("status", string(initial)).Msg("Initialized step status")
	return c
}

// ID returns the step's unique identifier.
func (c *StepCore) ID() uuid.UUID {
	return c.id
}

// Name returns the step's name.
func (c *StepCore) Name() string {
	return c.name
}

// Asset returns the asset identifier this step's work touches.
func (c *StepCore) Asset() string {
	return c.asset
}

// Status returns the step's current status. An interrupted step which would
// otherwise report PENDING or PREPARED reports WAITING instead; interruption
// never masks COMPLETE or ERROR.
func (c *StepCore) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interrupted && (c.status == StatusPending || c.status == StatusPrepared) {
		return StatusWaiting
	}
	return c.status
}

// SetStatus updates the raw status and returns the prior value. Observers
// are notified outside the lock, and only when the status actually changed.
func (c *StepCore) SetStatus(newStatus Status) Status {
	c.mu.Lock()
	oldStatus := c.status
	c.status = newStatus
	interrupted := c.interrupted
	c.mu.Unlock()

	if oldStatus != newStatus {
		c.logger.Info().
			Str("from", string(oldStatus)).
			Str("to", string(newStatus)).
			Bool("interrupted", interrupted).
			Msg("Step status changed")
		c.notifyObservers(c)
	} else {
		c.logger.Debug().
			Str("status", string(oldStatus)).
			Bool("interrupted", interrupted).
			Msg("No change to step status")
	}
	return oldStatus
}

// setStatusGetChanged applies SetStatus and reports this step as changed only
// if the status actually differed.
func (c *StepCore) setStatusGetChanged(newStatus Status) []Element {
	if c.SetStatus(newStatus) == newStatus {
		return nil
	}
	return []Element{c}
}

// Errors returns a copy of the step's recorded errors.
func (c *StepCore) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errs...)
}

// Fail records the error and moves the step to ERROR.
func (c *StepCore) Fail(err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err.Error())
	c.mu.Unlock()

	c.logger.Error().Err(err).Msg("Step failed")
	c.SetStatus(StatusError)
}

// Update ignores the task status. Steps which own launched tasks override
// this to advance their status on confirmation.
func (c *StepCore) Update(status TaskStatus) {
	c.logger.Debug().
		Str("task_id", status.TaskID).
		Str("state", string(status.State)).
		Msg("Step ignoring task status")
}

// UpdateParameters ignores the parameters. Steps which template launches
// from parameters override this.
func (c *StepCore) UpdateParameters(parameters map[string]string) {}

// Start does nothing. Concrete steps embedding StepCore implement the actual
// unit of work.
func (c *StepCore) Start() {}

// Interrupt sets the interrupted flag, returning true if it was not already
// set.
func (c *StepCore) Interrupt() bool {
	return c.setInterruptedGetChanged(true)
}

// Proceed clears the interrupted flag, returning true if it was set.
func (c *StepCore) Proceed() bool {
	return c.setInterruptedGetChanged(false)
}

// IsInterrupted reports whether the step is interrupted.
func (c *StepCore) IsInterrupted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interrupted
}

func (c *StepCore) setInterruptedGetChanged(interrupt bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.interrupted
	c.interrupted = interrupt
	return was != interrupt
}

// IsEligible reports whether work may be performed against this step: it
// must not be interrupted and its asset must not be claimed elsewhere.
func (c *StepCore) IsEligible(dirtyAssets AssetSet) bool {
	return !c.IsInterrupted() && !dirtyAssets.Contains(c.asset)
}

// Restart forces the step back to PENDING. Recorded errors are cleared so
// the re-run is not poisoned by the previous attempt.
func (c *StepCore) Restart() []Element {
	c.logger.Warn().Str("id", c.id.String()).Msg("Restarting step")
	c.mu.Lock()
	c.errs = nil
	c.mu.Unlock()
	return c.setStatusGetChanged(StatusPending)
}

// ForceComplete forces the step to COMPLETE.
func (c *StepCore) ForceComplete() []Element {
	c.logger.Warn().Str("id", c.id.String()).Msg("Forcing completion of step")
	return c.setStatusGetChanged(StatusComplete)
}

// Logger returns the step's component logger for use by embedding types.
func (c *StepCore) Logger() *zerolog.Logger {
	return &c.logger
}

func (c *StepCore) String() string {
	return fmt.Sprintf("Step(name=%s,status=%s)", c.name, c.Status())
}
