package migrate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSteps is matched by NoStepsError: no valid step chain connects
	// the requested versions in the requested direction.
	ErrNoSteps = errors.New("no migration steps")
	// ErrMigrationFailed is matched by MigrationError: a step's
	// transformation failed during chain execution.
	ErrMigrationFailed = errors.New("migration failed")
	// ErrStepRequiresContext is returned by the synchronous surface when the
	// resolved chain contains a step registered with RegisterContext. No
	// steps are executed in that case.
	ErrStepRequiresContext = errors.New("step requires context execution")
)

// NoStepsError reports that no registered chain connects From to To. It
// covers both "no step registered at all from this origin" and "the chain
// dead-ends before reaching the target". Callers fix it by registering the
// missing steps; the engine never retries.
type NoStepsError struct {
	From Version
	To   Version
}

func (e *NoStepsError) Error() string {
	return fmt.Sprintf("no migration steps from %v to %v", e.From, e.To)
}

// Is lets errors.Is(err, ErrNoSteps) match this kind.
func (e *NoStepsError) Is(target error) bool {
	return target == ErrNoSteps
}

// MigrationError reports that a step failed while executing the chain from
// From to To (the overall requested versions, not the failing step's own
// pair). The step's failure is the wrapped cause; steps applied before it
// are not rolled back.
type MigrationError struct {
	From Version
	To   Version
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration from %v to %v failed: %v", e.From, e.To, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMigrationFailed) match this kind.
func (e *MigrationError) Is(target error) bool {
	return target == ErrMigrationFailed
}
