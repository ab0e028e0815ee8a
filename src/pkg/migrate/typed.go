package migrate

import "context"

// The typed surface is a thin adapter over the explicit two-version calls:
// it derives the source tag from the object's own runtime type and forwards.
// The core contract stays unambiguous; only this layer infers anything.

// ForwardTyped migrates obj forward to the target type tag, using
// TypeKey(obj) as the source version.
func (m *Migrator) ForwardTyped(obj any, to Version) (Result, error) {
	return m.Forward(obj, TypeKey(obj), to)
}

// BackwardTyped migrates obj backward to the target type tag, using
// TypeKey(obj) as the source version.
func (m *Migrator) BackwardTyped(obj any, to Version) (Result, error) {
	return m.Backward(obj, TypeKey(obj), to)
}

// ForwardTypedContext is ForwardTyped on the context surface.
func (m *Migrator) ForwardTypedContext(ctx context.Context, obj any, to Version) (Result, error) {
	return m.ForwardContext(ctx, obj, TypeKey(obj), to)
}

// BackwardTypedContext is BackwardTyped on the context surface.
func (m *Migrator) BackwardTypedContext(ctx context.Context, obj any, to Version) (Result, error) {
	return m.BackwardContext(ctx, obj, TypeKey(obj), to)
}
