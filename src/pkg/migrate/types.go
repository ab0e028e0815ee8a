package migrate

import "context"

// Version identifies a data shape in the migration graph. Any comparable
// value works: two Versions denote the same graph node iff they are equal
// under Go ==. Using a non-comparable value (slice, map, func) as a Version
// panics on the first equality check, same as using it as a map key.
type Version any

// Direction selects which of the two registries a migration resolves
// against. Forward and backward chains are structurally identical and
// independently populated.
type Direction string

const (
	// Forward migrates towards newer versions.
	Forward Direction = "forward"
	// Backward migrates towards older versions.
	Backward Direction = "backward"
)

// StepFunc transforms an object into its adjacent-version equivalent.
// The returned object becomes the exact input of the next step in the chain.
type StepFunc func(obj any) (any, error)

// StepFuncContext is a StepFunc that may suspend, e.g. while waiting on
// external data needed to compute the transformation. Chains containing
// context steps can only run through the context call surface.
type StepFuncContext func(ctx context.Context, obj any) (any, error)

// Step is one registered directed edge of the migration graph: the target
// version and the transformation producing it. Exactly one of Run and
// RunContext is set, depending on how the step was registered.
type Step struct {
	To         Version
	Run        StepFunc
	RunContext StepFuncContext
}

// run applies the step. A nil ctx marks the synchronous surface, which the
// executor only uses after checking that the whole chain is context-free.
func (s Step) run(ctx context.Context, obj any) (any, error) {
	if s.Run != nil {
		return s.Run(obj)
	}
	return s.RunContext(ctx, obj)
}

// Result is the outcome of a successful migration call. Changed is false
// iff the requested source and target versions were equal, in which case
// Value is the untouched input instance.
type Result struct {
	Value   any
	Changed bool
}
