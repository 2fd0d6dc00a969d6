package api

import "github.com/planwheel/planwheel/pkg/plan"

// StepInfo is a point-in-time snapshot of one step.
type StepInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

// PhaseInfo is a point-in-time snapshot of one phase and its steps.
type PhaseInfo struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   string     `json:"status"`
	Strategy string     `json:"strategy"`
	Steps    []StepInfo `json:"steps"`
}

// PlanInfo is a point-in-time snapshot of a whole plan tree. Statuses are
// captured level by level; since aggregation is computed fresh on every
// call, a snapshot is internally consistent only approximately.
type PlanInfo struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Strategy string      `json:"strategy"`
	Errors   []string    `json:"errors,omitempty"`
	Phases   []PhaseInfo `json:"phases"`
}

// NewPlanInfo captures a snapshot of the plan tree.
func NewPlanInfo(p *plan.Plan) PlanInfo {
	phases := make([]PhaseInfo, 0, len(p.Children()))
	for _, phase := range p.Children() {
		steps := make([]StepInfo, 0, len(phase.Children()))
		for _, step := range phase.Children() {
			steps = append(steps, StepInfo{
				ID:     step.ID().String(),
				Name:   step.Name(),
				Status: string(step.Status()),
				Errors: step.Errors(),
			})
		}
		phases = append(phases, PhaseInfo{
			ID:       phase.ID().String(),
			Name:     phase.Name(),
			Status:   string(phase.Status()),
			Strategy: phase.Strategy().Name(),
			Steps:    steps,
		})
	}

	return PlanInfo{
		ID:       p.ID().String(),
		Name:     p.Name(),
		Status:   string(p.Status()),
		Strategy: p.Strategy().Name(),
		Errors:   p.Errors(),
		Phases:   phases,
	}
}

// ElementRef identifies one element mutated by a command.
type ElementRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CommandResponse is the payload returned by plan commands.
type CommandResponse struct {
	Message  string       `json:"message"`
	Elements []ElementRef `json:"elements,omitempty"`
}

func elementRef(e plan.Element) ElementRef {
	return ElementRef{
		ID:   e.ID().String(),
		Name: e.Name(),
		Type: elementType(e),
	}
}

func elementRefs(elems []plan.Element) []ElementRef {
	refs := make([]ElementRef, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for _, e := range elems {
		id := e.ID().String()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, elementRef(e))
	}
	return refs
}

func elementType(e plan.Element) string {
	switch e.(type) {
	case *plan.Plan:
		return "plan"
	case *plan.Phase:
		return "phase"
	default:
		return "step"
	}
}
