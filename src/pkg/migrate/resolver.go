//go:generate go run go.uber.org/mock/mockgen -package migrate -destination mock_test.go github.com/vermigrate/vermigrate/src/pkg/migrate Resolver
package migrate

// StepLookup returns the single registered step leaving from in the
// direction being resolved.
type StepLookup func(from Version) (Step, bool)

// Resolver computes the ordered step chain connecting two versions. The
// Migrator consults its cache first and only calls the Resolver on a miss,
// which makes this the seam for observing and counting chain resolutions
// (the tests substitute a gomock Resolver for exactly that).
type Resolver interface {
	Resolve(from, to Version, lookup StepLookup) ([]Step, error)
}

// chainResolver walks the single adjacency chain starting at from. Each
// version has at most one outgoing step per direction, so resolution is a
// deterministic walk, not a search: follow step.To until the target is hit
// or the chain runs out. The from == to case never reaches the resolver;
// the Migrator short-circuits it.
type chainResolver struct{}

func (chainResolver) Resolve(from, to Version, lookup StepLookup) ([]Step, error) {
	var chain []Step
	visited := map[Version]bool{from: true}
	cur := from
	for {
		step, ok := lookup(cur)
		if !ok {
			// Dead end, or no step registered at the origin at all.
			break
		}
		chain = append(chain, step)
		if step.To == to {
			return chain, nil
		}
		if visited[step.To] {
			// Cycle without reaching the target.
			break
		}
		visited[step.To] = true
		cur = step.To
	}
	return nil, &NoStepsError{From: from, To: to}
}
