package plan

// PlanManager owns exactly one Plan and mediates candidate selection for it
// against the set of assets already claimed by other concurrently-running
// plans. Multiple managers share one asset pool cooperatively: the caller
// must supply every manager the same up-to-date dirty-assets snapshot within
// a scheduling cycle, or double-dispatch of an asset becomes possible.
type PlanManager interface {
	// Plan returns the managed plan for read and status access.
	Plan() *Plan

	// Candidates returns the leaf steps currently eligible for work, after
	// applying the plan-level and phase-level strategies and excluding any
	// step whose asset is in dirtyAssets.
	Candidates(dirtyAssets AssetSet) []Step

	// Update fans a task status confirmation into the plan tree.
	Update(status TaskStatus)
}

// DefaultPlanManager is the standard PlanManager. Construction interrupts
// the plan, so a freshly built plan does not run until a caller explicitly
// proceeds it (via the control surface's start or continue commands).
type DefaultPlanManager struct {
	plan *Plan
}

// NewDefaultPlanManager wraps the given plan. The plan is interrupted once
// as part of construction.
func NewDefaultPlanManager(p *Plan) *DefaultPlanManager {
	p.Interrupt()
	return &DefaultPlanManager{plan: p}
}

// Plan returns the managed plan.
func (m *DefaultPlanManager) Plan() *Plan {
	return m.plan
}

// Candidates selects candidate phases with the plan's strategy, then
// candidate steps within each with the phase's strategy, passing the same
// dirty-asset set through both levels. A step is returned only if its whole
// path is eligible: neither it, its phase, nor the plan may be interrupted,
// and its asset must not be claimed elsewhere.
func (m *DefaultPlanManager) Candidates(dirtyAssets AssetSet) []Step {
	if !m.plan.IsEligible(dirtyAssets) {
		return nil
	}

	var steps []Step
	for _, phase := range m.plan.Strategy().Candidates(m.plan.Children(), dirtyAssets) {
		if !phase.IsEligible(dirtyAssets) {
			continue
		}
		for _, step := range phase.Strategy().Candidates(phase.Children(), dirtyAssets) {
			if step.IsEligible(dirtyAssets) {
				steps = append(steps, step)
			}
		}
	}
	return steps
}

// Update fans the task status into the plan tree.
func (m *DefaultPlanManager) Update(status TaskStatus) {
	m.plan.Update(status)
}
