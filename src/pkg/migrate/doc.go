// Package migrate provides linear, in-memory version migration for data
// objects.
//
// A Migrator owns a directed migration graph: single-hop transformation steps
// registered between adjacent version identifiers, one forward and one
// backward step at most per origin. Migrating an object from one version to
// another resolves the chain of registered steps connecting the two versions,
// caches it, and applies each step in order, threading one step's output into
// the next.
//
// Basic usage:
//
//	m := migrate.New()
//	m.Register(1, 2, renameTitle, restoreName)
//	m.Register(2, 3, splitOwner, joinOwner)
//
//	res, err := m.Forward(doc, 1, 3)
//	if err != nil {
//	    // errors.Is(err, migrate.ErrNoSteps) / migrate.ErrMigrationFailed
//	}
//	doc = res.Value
//
// Steps that need to wait on external data are registered with
// RegisterContext and run through the context surface (ForwardContext /
// BackwardContext), which accepts any mixture of plain and context-aware
// steps. The synchronous surface (Forward / Backward) is only valid when
// every step in the requested chain was registered without a context; it
// fails fast otherwise.
//
// Version identifiers are opaque comparable values: ints, strings,
// reflect.Type tags (TypeKey) or normalized semver strings (SemverKey).
// All registration is expected to complete before migrations begin; the
// registry is not guarded against concurrent mutation.
package migrate
