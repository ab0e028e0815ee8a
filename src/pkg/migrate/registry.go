package migrate

// registry stores, per direction, the single step leaving each version.
// It holds no derived state; chains are computed from it by the resolver.
// Like the step functions themselves, the maps are written during setup and
// only read afterwards, so lookups need no locking.
type registry struct {
	forward  map[Version]Step
	backward map[Version]Step
}

func newRegistry() *registry {
	return &registry{
		forward:  make(map[Version]Step),
		backward: make(map[Version]Step),
	}
}

func (r *registry) steps(d Direction) map[Version]Step {
	if d == Backward {
		return r.backward
	}
	return r.forward
}

// put records the step leaving from in the given direction, silently
// overwriting any previously registered step for that origin.
func (r *registry) put(d Direction, from Version, s Step) {
	r.steps(d)[from] = s
}

func (r *registry) lookup(d Direction, from Version) (Step, bool) {
	s, ok := r.steps(d)[from]
	return s, ok
}
