package strategy

import "github.com/planwheel/planwheel/pkg/plan"

// Serial is a Strategy which processes children one at a time, in
// declaration order. It never skips a blocked head: if the first incomplete
// child is ineligible (interrupted, or touching a dirty asset), no candidate
// is returned at all rather than falling through to a later child.
type Serial[C plan.Element] struct {
	interruptible
}

// NewSerial creates a serial strategy.
func NewSerial[C plan.Element]() *Serial[C] {
	return &Serial[C]{}
}

// Candidates returns at most the first incomplete child, and only if it is
// eligible. While the strategy is interrupted it returns nothing.
func (s *Serial[C]) Candidates(elems []C, dirtyAssets plan.AssetSet) []C {
	if s.IsInterrupted() {
		return nil
	}
	for _, e := range elems {
		if e.Status().IsComplete() {
			continue
		}
		if e.IsEligible(dirtyAssets) {
			return []C{e}
		}
		return nil
	}
	return nil
}

// Name returns "serial".
func (s *Serial[C]) Name() string {
	return "serial"
}
