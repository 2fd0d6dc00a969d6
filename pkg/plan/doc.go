// Package plan implements the plan execution engine at the heart of
// planwheel: a hierarchical, interruptible, resumable model of multi-step
// rollout work for long-running services.
//
// A Plan is an ordered collection of Phases, and a Phase is an ordered
// collection of Steps. Every node in that tree is an Element: it has a
// stable identity, a derived Status, a list of errors, and a small set of
// lifecycle operations (interrupt, proceed, restart, force-complete).
// Strategies attached to each composite decide which children are eligible
// for work on any given scheduling cycle, and a PlanManager mediates
// candidate selection for one Plan against the set of assets already
// claimed by other concurrently-running plans.
//
// Status for composite elements is never cached: it is recomputed from
// child state on every call, which makes it safe to poll concurrently from
// both the offer-processing loop and the HTTP control surface.
package plan
