package plan

import "github.com/rs/zerolog"

// Phase is an ordered list of Steps with a Strategy governing which of them
// may be worked on at once.
type Phase struct {
	*composite[Step]
}

// NewPhase creates a phase over the given steps. The step list and strategy
// are fixed for the phase's lifetime; errs carries any validation errors
// found while constructing the steps.
func NewPhase(name string, steps []Step, strategy Strategy[Step], errs []string, logger zerolog.Logger) *Phase {
	return &Phase{
		composite: newComposite(name, steps, strategy, errs,
			logger.With().Str("phase", name).Logger()),
	}
}
