package migrate

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// seqDoc records the versions it passed through, so tests can observe chain
// order and length.
type seqDoc struct {
	Sequence []int
}

func newTestMigrator(t *testing.T, opts ...Option) *Migrator {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

// registerSeqChain registers bidirectional steps lo→lo+1→…→hi, each step
// appending its target version to the document's sequence.
func registerSeqChain(m *Migrator, lo, hi int) {
	for v := lo; v < hi; v++ {
		from, to := v, v+1
		m.Register(from, to,
			func(obj any) (any, error) {
				doc := obj.(*seqDoc)
				doc.Sequence = append(doc.Sequence, to)
				return doc, nil
			},
			func(obj any) (any, error) {
				doc := obj.(*seqDoc)
				doc.Sequence = append(doc.Sequence, from)
				return doc, nil
			})
	}
}

func TestMigrator_IdentityShortCircuit(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 5)

	doc := &seqDoc{Sequence: []int{3}}
	for _, d := range []Direction{Forward, Backward} {
		var res Result
		var err error
		if d == Forward {
			res, err = m.Forward(doc, 3, 3)
		} else {
			res, err = m.Backward(doc, 3, 3)
		}
		require.NoError(t, err)
		assert.False(t, res.Changed)
		// The exact same instance, not a copy.
		assert.Same(t, doc, res.Value)
		assert.Equal(t, []int{3}, doc.Sequence)
	}
	// Identity never resolves, so nothing got cached.
	assert.False(t, m.IsCached(Forward, 3, 3))
}

func TestMigrator_ForwardChain(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 5)

	res, err := m.Forward(&seqDoc{Sequence: []int{1}}, 1, 5)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.Value.(*seqDoc).Sequence)
}

func TestMigrator_BackwardChain(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 5)

	res, err := m.Backward(&seqDoc{Sequence: []int{5}}, 5, 1)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, res.Value.(*seqDoc).Sequence)
}

func TestMigrator_PartialChain(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 5)

	res, err := m.Forward(&seqDoc{Sequence: []int{2}}, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, res.Value.(*seqDoc).Sequence)
}

func TestMigrator_MissingPath(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 5)

	_, err := m.Forward(&seqDoc{}, 1, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSteps)

	var noSteps *NoStepsError
	require.ErrorAs(t, err, &noSteps)
	assert.Equal(t, 1, noSteps.From)
	assert.Equal(t, -1, noSteps.To)

	// Failed resolutions are never cached.
	assert.False(t, m.IsCached(Forward, 1, -1))
}

func TestMigrator_NoStepsAtOrigin(t *testing.T) {
	m := newTestMigrator(t)

	_, err := m.Forward(&seqDoc{}, 7, 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSteps)
}

func TestMigrator_StepFailureWrapsCause(t *testing.T) {
	m := newTestMigrator(t)
	errBoom := errors.New("forward")

	calls := 0
	m.Register(1, 2, func(obj any) (any, error) {
		calls++
		return obj, nil
	}, nil)
	m.Register(2, 3, func(obj any) (any, error) {
		calls++
		return nil, errBoom
	}, nil)
	m.Register(3, 4, func(obj any) (any, error) {
		calls++
		return obj, nil
	}, nil)

	_, err := m.Forward(&seqDoc{}, 1, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationFailed)
	// The original failure is the nested cause.
	assert.ErrorIs(t, err, errBoom)

	var migErr *MigrationError
	require.ErrorAs(t, err, &migErr)
	// The overall requested pair, not the failing step's own pair.
	assert.Equal(t, 1, migErr.From)
	assert.Equal(t, 4, migErr.To)

	// Execution halted at the failing step.
	assert.Equal(t, 2, calls)
}

func TestMigrator_CacheReuse(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockResolver(ctrl)

	chain := []Step{
		{To: 2, Run: func(obj any) (any, error) {
			doc := obj.(*seqDoc)
			doc.Sequence = append(doc.Sequence, 2)
			return doc, nil
		}},
	}
	// Exactly one resolution for the pair; the repeat is served from cache.
	resolver.EXPECT().Resolve(1, 2, gomock.Any()).Times(1).Return(chain, nil)

	m := newTestMigrator(t, WithResolver(resolver))

	assert.False(t, m.IsCached(Forward, 1, 2))

	res, err := m.Forward(&seqDoc{Sequence: []int{1}}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Value.(*seqDoc).Sequence)
	assert.True(t, m.IsCached(Forward, 1, 2))

	res, err = m.Forward(&seqDoc{Sequence: []int{1}}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Value.(*seqDoc).Sequence)
}

func TestMigrator_DirectionsCacheIndependently(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 3)

	_, err := m.Forward(&seqDoc{}, 1, 2)
	require.NoError(t, err)

	assert.True(t, m.IsCached(Forward, 1, 2))
	// A backward resolution with coincidentally swapped identifiers is a
	// distinct cache entry.
	assert.False(t, m.IsCached(Backward, 1, 2))
	assert.False(t, m.IsCached(Backward, 2, 1))

	_, err = m.Backward(&seqDoc{}, 2, 1)
	require.NoError(t, err)
	assert.True(t, m.IsCached(Backward, 2, 1))
}

func TestMigrator_MixedContextChain(t *testing.T) {
	m := newTestMigrator(t)

	appendStep := func(to int) StepFunc {
		return func(obj any) (any, error) {
			doc := obj.(*seqDoc)
			doc.Sequence = append(doc.Sequence, to)
			return doc, nil
		}
	}
	appendCtxStep := func(to int) StepFuncContext {
		return func(ctx context.Context, obj any) (any, error) {
			// Simulate a suspension point before transforming.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			doc := obj.(*seqDoc)
			doc.Sequence = append(doc.Sequence, to)
			return doc, nil
		}
	}

	m.Register(1, 2, appendStep(2), nil)
	m.RegisterContext(2, 3, appendCtxStep(3), nil)
	m.Register(3, 4, appendStep(4), nil)
	m.RegisterContext(4, 5, appendCtxStep(5), nil)

	res, err := m.ForwardContext(context.Background(), &seqDoc{Sequence: []int{1}}, 1, 5)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	// Same composed result an all-synchronous chain would produce.
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.Value.(*seqDoc).Sequence)
}

func TestMigrator_SyncSurfaceRejectsContextSteps(t *testing.T) {
	m := newTestMigrator(t)

	ran := false
	m.Register(1, 2, func(obj any) (any, error) {
		ran = true
		return obj, nil
	}, nil)
	m.RegisterContext(2, 3, func(ctx context.Context, obj any) (any, error) {
		ran = true
		return obj, nil
	}, nil)

	_, err := m.Forward(&seqDoc{}, 1, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepRequiresContext)
	// Fails fast: no step ran, not even the synchronous first one.
	assert.False(t, ran)

	// The context surface runs the same chain fine.
	_, err = m.ForwardContext(context.Background(), &seqDoc{}, 1, 3)
	require.NoError(t, err)
}

func TestMigrator_ContextCancelled(t *testing.T) {
	m := newTestMigrator(t)
	registerSeqChain(m, 1, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.ForwardContext(ctx, &seqDoc{}, 1, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMigrator_RegisterOverwritesLastWins(t *testing.T) {
	m := newTestMigrator(t)

	m.Register(1, 2, func(obj any) (any, error) {
		return "first", nil
	}, nil)
	m.Register(1, 2, func(obj any) (any, error) {
		return "second", nil
	}, nil)

	res, err := m.Forward("input", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Value)
}

func TestMigrator_StringVersions(t *testing.T) {
	m := newTestMigrator(t)

	m.Register("v1", "v2", func(obj any) (any, error) {
		return obj.(string) + "+v2", nil
	}, func(obj any) (any, error) {
		return obj.(string) + "-v1", nil
	})

	res, err := m.Forward("doc", "v1", "v2")
	require.NoError(t, err)
	assert.Equal(t, "doc+v2", res.Value)

	res, err = m.Backward("doc", "v2", "v1")
	require.NoError(t, err)
	assert.Equal(t, "doc-v1", res.Value)
}
