package plan

import "github.com/rs/zerolog"

// Plan is the root of the element tree: an ordered list of Phases governed
// by a Strategy. It is the Observable that external subscribers attach to;
// updates from steps and phases are forwarded through it.
type Plan struct {
	*composite[*Phase]
}

// NewPlan creates a plan over the given phases. The phase list and strategy
// are fixed for the plan's lifetime; errs carries plan-level validation
// errors, surfaced ahead of any phase errors by Errors.
func NewPlan(name string, phases []*Phase, strategy Strategy[*Phase], errs []string, logger zerolog.Logger) *Plan {
	return &Plan{
		composite: newComposite(name, phases, strategy, errs,
			logger.With().Str("plan", name).Logger()),
	}
}

// IsComplete reports whether every phase of the plan is complete. An empty
// plan is complete.
func (p *Plan) IsComplete() bool {
	return p.Status().IsComplete()
}
