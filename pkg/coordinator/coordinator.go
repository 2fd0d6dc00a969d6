package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/telemetry"
)

// Coordinator owns an ordered list of plan managers and runs the scheduling
// cycle: compute the set of assets already claimed by in-flight work, ask
// each manager in priority order for candidate steps, and start them.
// Managers earlier in the list win conflicts: a step started for one plan
// dirties its asset for every manager queried after it in the same cycle.
type Coordinator struct {
	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	// mu guards managers.
	mu       sync.Mutex
	managers []plan.PlanManager
}

// New creates a coordinator over the given managers, highest priority first.
// metrics and tracer may be nil.
func New(managers []plan.PlanManager, metrics *telemetry.Metrics, tracer *telemetry.Tracer, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		logger:   logger.With().Str("component", "coordinator").Logger(),
		metrics:  metrics,
		tracer:   tracer,
		managers: append([]plan.PlanManager(nil), managers...),
	}
}

// Managers returns the managers in priority order.
func (c *Coordinator) Managers() []plan.PlanManager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]plan.PlanManager(nil), c.managers...)
}

// SetManagers replaces the managed plans, highest priority first.
func (c *Coordinator) SetManagers(managers []plan.PlanManager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.managers = append([]plan.PlanManager(nil), managers...)
}

// Plans returns the managed plans in priority order.
func (c *Coordinator) Plans() []*plan.Plan {
	managers := c.Managers()
	plans := make([]*plan.Plan, 0, len(managers))
	for _, m := range managers {
		plans = append(plans, m.Plan())
	}
	return plans
}

// ProcessCycle runs one scheduling cycle and returns the steps started.
func (c *Coordinator) ProcessCycle(ctx context.Context) []plan.Step {
	start := time.Now()
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.StartCycleSpan(ctx)
		defer span.End()
	}

	managers := c.Managers()
	dirty := c.dirtyAssets(managers)

	var started []plan.Step
	for _, m := range managers {
		p := m.Plan()
		candidates := m.Candidates(dirty)
		if c.metrics != nil {
			c.metrics.RecordCandidates(p.Name(), len(candidates))
		}

		for _, step := range candidates {
			c.logger.Info().
				Str("plan", p.Name()).
				Str("step", step.Name()).
				Msg("Starting step")
			step.Start()
			started = append(started, step)
			dirty.Add(step.Asset())
			if c.metrics != nil {
				c.metrics.RecordStepStarted(p.Name(), phaseOf(p, step))
			}
		}

		if c.metrics != nil {
			c.metrics.SetPlanComplete(p.Name(), p.IsComplete())
		}
	}

	if c.metrics != nil {
		c.metrics.RecordCycle(time.Since(start))
	}
	return started
}

// Update fans a task status confirmation into every managed plan.
func (c *Coordinator) Update(status plan.TaskStatus) {
	if c.metrics != nil {
		c.metrics.RecordTaskUpdate()
	}
	for _, m := range c.Managers() {
		m.Update(status)
	}
}

// Run processes scheduling cycles at the given interval until the context is
// cancelled.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info().Dur("interval", interval).Msg("Coordinator started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Coordinator stopped")
			return
		case <-ticker.C:
			c.ProcessCycle(ctx)
		}
	}
}

// dirtyAssets collects the assets of every step currently being worked on
// across all managed plans.
func (c *Coordinator) dirtyAssets(managers []plan.PlanManager) plan.AssetSet {
	dirty := plan.NewAssetSet()
	for _, m := range managers {
		for _, phase := range m.Plan().Children() {
			for _, step := range phase.Children() {
				switch step.Status() {
				case plan.StatusPrepared, plan.StatusStarting, plan.StatusInProgress:
					dirty.Add(step.Asset())
				}
			}
		}
	}
	return dirty
}

// phaseOf returns the name of the phase containing the step, for labelling.
func phaseOf(p *plan.Plan, step plan.Step) string {
	for _, phase := range p.Children() {
		for _, s := range phase.Children() {
			if s.ID() == step.ID() {
				return phase.Name()
			}
		}
	}
	return ""
}
