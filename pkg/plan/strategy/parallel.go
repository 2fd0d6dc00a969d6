package strategy

import "github.com/planwheel/planwheel/pkg/plan"

// Parallel is a Strategy which makes every incomplete, eligible child
// available for work at once. Ordering of the returned candidates carries no
// significance.
type Parallel[C plan.Element] struct {
	interruptible
}

// NewParallel creates a parallel strategy.
func NewParallel[C plan.Element]() *Parallel[C] {
	return &Parallel[C]{}
}

// Candidates returns every incomplete child which is eligible. While the
// strategy is interrupted it returns nothing.
func (p *Parallel[C]) Candidates(elems []C, dirtyAssets plan.AssetSet) []C {
	if p.IsInterrupted() {
		return nil
	}
	var candidates []C
	for _, e := range elems {
		if e.Status().IsComplete() {
			continue
		}
		if e.IsEligible(dirtyAssets) {
			candidates = append(candidates, e)
		}
	}
	return candidates
}

// Name returns "parallel".
func (p *Parallel[C]) Name() string {
	return "parallel"
}
