package migrate

import (
	"context"
	"fmt"

	"github.com/bluele/gcache"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// DefaultCacheSize is the default capacity of the resolved-chain cache.
// Chains are tiny, so the cache is sized for pair count, not memory.
const DefaultCacheSize = 1024

// chainKey addresses one resolved chain in the cache. Forward and backward
// resolutions of coincidentally swapped pairs get distinct keys because the
// direction is part of the key.
type chainKey struct {
	direction Direction
	from      Version
	to        Version
}

// Migrator owns one migration graph: the per-direction step registries, the
// resolved-chain cache and the resolver. Separate Migrator instances share
// nothing.
type Migrator struct {
	registry  *registry
	resolver  Resolver
	cache     gcache.Cache
	cacheSize int
	logger    logrus.FieldLogger
	metrics   *Metrics
}

// Option configures a Migrator at construction time.
type Option func(*Migrator)

// WithLogger replaces the default component logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Migrator) {
		m.logger = logger
	}
}

// WithResolver replaces the default chain resolver. Used by tests to
// intercept and count resolutions.
func WithResolver(r Resolver) Option {
	return func(m *Migrator) {
		m.resolver = r
	}
}

// WithCacheSize overrides DefaultCacheSize for the resolved-chain cache.
func WithCacheSize(n int) Option {
	return func(m *Migrator) {
		m.cacheSize = n
	}
}

// WithMetrics attaches a Prometheus counter set to the Migrator.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Migrator) {
		m.metrics = metrics
	}
}

// New creates an empty Migrator. Register all steps before the first
// migration call.
func New(opts ...Option) *Migrator {
	m := &Migrator{
		registry:  newRegistry(),
		resolver:  chainResolver{},
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logrus.WithField("component", "migrator")
	}
	m.logger = m.logger.WithField("migrator_id", uuid.Must(uuid.NewV4()).String()[:8])
	m.cache = gcache.New(m.cacheSize).LRU().Build()
	return m
}

// Register records a forward step from → to and, when backward is non-nil,
// the matching backward step to → from. Re-registering an origin silently
// overwrites the previous step for that direction; already-cached chains are
// not invalidated.
func (m *Migrator) Register(from, to Version, forward StepFunc, backward StepFunc) {
	m.registry.put(Forward, from, Step{To: to, Run: forward})
	if backward != nil {
		m.registry.put(Backward, to, Step{To: from, Run: backward})
	}
	m.logRegistered(from, to, backward != nil)
}

// RegisterContext is Register for steps that may suspend. Chains containing
// such steps can only run through ForwardContext / BackwardContext.
func (m *Migrator) RegisterContext(from, to Version, forward StepFuncContext, backward StepFuncContext) {
	m.registry.put(Forward, from, Step{To: to, RunContext: forward})
	if backward != nil {
		m.registry.put(Backward, to, Step{To: from, RunContext: backward})
	}
	m.logRegistered(from, to, backward != nil)
}

func (m *Migrator) logRegistered(from, to Version, bidirectional bool) {
	m.logger.WithFields(logrus.Fields{
		"from":          fmt.Sprintf("%v", from),
		"to":            fmt.Sprintf("%v", to),
		"bidirectional": bidirectional,
	}).Debug("registered migration step")
}

// Forward migrates obj from version from to version to along the forward
// chain. Every step in the chain must have been registered with Register;
// chains containing context steps make it fail fast with
// ErrStepRequiresContext before any step runs.
func (m *Migrator) Forward(obj any, from, to Version) (Result, error) {
	return m.migrate(nil, obj, from, to, Forward)
}

// Backward is Forward against the backward registry.
func (m *Migrator) Backward(obj any, from, to Version) (Result, error) {
	return m.migrate(nil, obj, from, to, Backward)
}

// ForwardContext migrates obj forward, accepting any mixture of plain and
// context-registered steps. Each suspending step completes before the next
// one starts; the chain is never reordered or parallelized. ctx must be
// non-nil and is checked between steps.
func (m *Migrator) ForwardContext(ctx context.Context, obj any, from, to Version) (Result, error) {
	return m.migrate(ctx, obj, from, to, Forward)
}

// BackwardContext is ForwardContext against the backward registry.
func (m *Migrator) BackwardContext(ctx context.Context, obj any, from, to Version) (Result, error) {
	return m.migrate(ctx, obj, from, to, Backward)
}

// IsCached reports whether the chain for the given pair has already been
// resolved and cached in the given direction.
func (m *Migrator) IsCached(d Direction, from, to Version) bool {
	_, err := m.cache.GetIFPresent(chainKey{direction: d, from: from, to: to})
	return err == nil
}

// migrate is the shared execution pipeline behind all four call surfaces.
// A nil ctx marks the synchronous surface.
func (m *Migrator) migrate(ctx context.Context, obj any, from, to Version, d Direction) (res Result, err error) {
	defer func() { m.metrics.migration(d, err) }()

	// Identity short-circuit: the input instance is returned untouched,
	// without resolution, regardless of what is registered for the version.
	if from == to {
		return Result{Value: obj, Changed: false}, nil
	}

	chain, err := m.chain(d, from, to)
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"direction": d,
			"from":      fmt.Sprintf("%v", from),
			"to":        fmt.Sprintf("%v", to),
		}).Warn("no migration chain")
		return Result{}, err
	}

	if ctx == nil {
		// Contract check up front so a context step never aborts the chain
		// halfway through.
		for _, s := range chain {
			if s.Run == nil {
				return Result{}, fmt.Errorf("cannot migrate from %v to %v synchronously: %w",
					from, to, ErrStepRequiresContext)
			}
		}
	}

	current := obj
	for i, s := range chain {
		if ctx != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
		}
		next, stepErr := s.run(ctx, current)
		if stepErr != nil {
			m.logger.WithError(stepErr).WithFields(logrus.Fields{
				"direction":  d,
				"from":       fmt.Sprintf("%v", from),
				"to":         fmt.Sprintf("%v", to),
				"step_index": i,
			}).Warn("migration step failed")
			return Result{}, &MigrationError{From: from, To: to, Err: stepErr}
		}
		current = next
		m.metrics.stepApplied(d)
	}
	return Result{Value: current, Changed: true}, nil
}

// chain returns the cached step chain for the pair, resolving and caching it
// on a miss. Only validated chains are ever stored; a cached chain is
// returned without recomputation or re-validation. Two concurrent misses for
// the same pair may both resolve it; the later Set wins, which is harmless
// because resolution is a pure function of the registry contents.
func (m *Migrator) chain(d Direction, from, to Version) ([]Step, error) {
	key := chainKey{direction: d, from: from, to: to}
	if cached, err := m.cache.GetIFPresent(key); err == nil {
		m.metrics.cacheHit()
		return cached.([]Step), nil
	}
	m.metrics.cacheMiss()
	m.metrics.resolution(d)

	chain, err := m.resolver.Resolve(from, to, func(v Version) (Step, bool) {
		return m.registry.lookup(d, v)
	})
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, chain)
	m.logger.WithFields(logrus.Fields{
		"direction": d,
		"from":      fmt.Sprintf("%v", from),
		"to":        fmt.Sprintf("%v", to),
		"steps":     len(chain),
	}).Debug("resolved migration chain")
	return chain, nil
}
