package plan

import (
	"github.com/google/uuid"
)

// Interruptible is implemented by plan components which may be flagged as
// interrupted. The interrupt flag is an override on top of whatever internal
// status the component otherwise has: it suppresses candidacy and progress
// until Proceed is called, but never rewrites a COMPLETE or ERROR status.
type Interruptible interface {
	// Interrupt flags the component so that it does not continue work beyond
	// the current point. It returns true if the call changed state, false if
	// the component was already interrupted.
	Interrupt() bool

	// Proceed clears a previous Interrupt call so pending work may resume.
	// It returns true if the call changed state, false if the component was
	// already proceeding.
	Proceed() bool

	// IsInterrupted reports whether the component is currently interrupted.
	IsInterrupted() bool
}

// AssetSet is a set of asset identifiers which already have work in progress
// somewhere, and which must therefore be excluded from candidate selection to
// prevent double-dispatch across plans.
type AssetSet map[string]struct{}

// NewAssetSet builds an AssetSet from the given asset identifiers.
func NewAssetSet(assets ...string) AssetSet {
	s := make(AssetSet, len(assets))
	for _, a := range assets {
		s.Add(a)
	}
	return s
}

// Add inserts an asset identifier. Empty identifiers are ignored: an element
// with no asset never conflicts with anything.
func (s AssetSet) Add(asset string) {
	if asset == "" {
		return
	}
	s[asset] = struct{}{}
}

// Contains reports whether the asset identifier is in the set. An empty
// identifier is never contained.
func (s AssetSet) Contains(asset string) bool {
	if asset == "" {
		return false
	}
	_, ok := s[asset]
	return ok
}

// Element is any node in the plan tree: a Plan, a Phase, or a Step.
type Element interface {
	Interruptible

	// Subscribe registers an observer for state-change notifications. A
	// child element registers with its parent at construction time.
	Subscribe(obs Observer)

	// ID returns the element's opaque unique identifier. It is stable for
	// the lifetime of the object.
	ID() uuid.UUID

	// Name returns the element's human-readable name, unique within its
	// parent's children.
	Name() string

	// Status returns the element's current derived status. Two consecutive
	// calls may return different values; callers must not cache the result.
	Status() Status

	// Errors returns validation and runtime errors associated with this
	// element and, for composites, all of its descendants. Ordering is the
	// element's own errors first, then each child's in declaration order.
	Errors() []string

	// Update fans a task status confirmation into the element. Composites
	// forward to every child unconditionally; steps react only to updates
	// for work they own.
	Update(status TaskStatus)

	// UpdateParameters merges the given parameters into the element and all
	// of its descendants, to be picked up the next time work is launched.
	UpdateParameters(parameters map[string]string)

	// Restart resets the element (and for composites, every descendant) to
	// PENDING, and returns the elements whose state actually changed.
	Restart() []Element

	// ForceComplete forces the element (and for composites, every
	// descendant) to COMPLETE, and returns the elements whose state
	// actually changed.
	ForceComplete() []Element

	// IsEligible reports whether the element may currently have work
	// performed against it, given the set of assets already claimed
	// elsewhere.
	IsEligible(dirtyAssets AssetSet) bool
}

// Strategy decides which child elements of a composite are ready to be
// processed. A strategy carries its own interrupted flag, independent of any
// child's: while interrupted it yields no candidates at all.
type Strategy[C Element] interface {
	Interruptible

	// Candidates returns the subset of elems which may have work performed
	// against them now. Children which are already COMPLETE, and children
	// whose asset is in dirtyAssets, are never returned.
	Candidates(elems []C, dirtyAssets AssetSet) []C

	// Name returns the strategy's short name ("serial", "parallel") for
	// status reporting.
	Name() string
}
