package deploy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/config"
	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/plan/strategy"
	"github.com/planwheel/planwheel/pkg/stores"
)

// Builder assembles plans from the declarative plan definitions in a service
// spec.
type Builder struct {
	spec     *config.ServiceSpec
	launcher TaskLauncher
	store    stores.StateStore
	logger   zerolog.Logger
}

// NewBuilder creates a deploy plan builder for the given service spec.
func NewBuilder(spec *config.ServiceSpec, launcher TaskLauncher, store stores.StateStore, logger zerolog.Logger) *Builder {
	return &Builder{
		spec:     spec,
		launcher: launcher,
		store:    store,
		logger:   logger.With().Str("component", "deploy").Logger(),
	}
}

// Build produces the named plan from the spec. Each phase targets one pod
// type and gets one launch step per pod instance, named "<pod>-<index>".
func (b *Builder) Build(planName string) (*plan.Plan, error) {
	planSpec, ok := b.spec.Plan(planName)
	if !ok {
		return nil, fmt.Errorf("plan %q not defined in service spec", planName)
	}

	phases := make([]*plan.Phase, 0, len(planSpec.Phases))
	for _, phaseSpec := range planSpec.Phases {
		phase, err := b.buildPhase(phaseSpec)
		if err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}

	return plan.NewPlan(planSpec.Name, phases, phaseStrategy(planSpec.Strategy), nil, b.logger), nil
}

func (b *Builder) buildPhase(phaseSpec config.PhaseSpec) (*plan.Phase, error) {
	pod, ok := b.spec.Pod(phaseSpec.Pod)
	if !ok {
		return nil, fmt.Errorf("phase %q references unknown pod %q", phaseSpec.Name, phaseSpec.Pod)
	}

	steps := make([]plan.Step, 0, pod.Count)
	for i := 0; i < pod.Count; i++ {
		instance := fmt.Sprintf("%s-%d", pod.Name, i)
		steps = append(steps, NewLaunchStep(instance, pod.Command, pod.Env, b.launcher, b.store, b.logger))
	}

	return plan.NewPhase(phaseSpec.Name, steps, stepStrategy(phaseSpec.Strategy), nil, b.logger), nil
}

// stepStrategy maps a spec strategy name to a step strategy. The empty
// string defaults to serial.
func stepStrategy(name string) plan.Strategy[plan.Step] {
	if name == "parallel" {
		return strategy.NewParallel[plan.Step]()
	}
	return strategy.NewSerial[plan.Step]()
}

func phaseStrategy(name string) plan.Strategy[*plan.Phase] {
	if name == "parallel" {
		return strategy.NewParallel[*plan.Phase]()
	}
	return strategy.NewSerial[*plan.Phase]()
}
