// Package simerr defines the typed errors the simulation core can produce.
//
// Per the error handling policy, the core never panics on caller input.
// IdConflict is the only kind actually returned by a command; UnknownID and
// OutOfBounds describe conditions that are handled silently (dropped order,
// clamped coordinate) and exist here only so logging call sites can report
// a consistent reason. LimitExceeded and SerializeFailure are not returned
// by any command either.
package simerr

import "fmt"

// IdConflict is returned by spawn_squad/spawn_mass when the requested id
// already exists. The command is rejected and no squads are created.
type IdConflict struct {
	ID uint32
}

func (e *IdConflict) Error() string {
	return fmt.Sprintf("simerr: squad id %d already exists", e.ID)
}

// UnknownID describes an order addressed to a non-existent or dead squad.
// Never returned to a caller — order commands are idempotent no-ops against
// unknown ids — but used internally to give a dropped order a reason for
// logging.
type UnknownID struct {
	ID uint32
}

func (e *UnknownID) Error() string {
	return fmt.Sprintf("simerr: no live squad with id %d", e.ID)
}

// OutOfBounds describes a target coordinate outside the terrain rectangle.
// Never returned — the coordinate is coerced to the clamped boundary point.
type OutOfBounds struct {
	X, Y               float64
	ClampedX, ClampedY float64
}

func (e *OutOfBounds) Error() string {
	return fmt.Sprintf("simerr: (%.2f, %.2f) out of bounds, clamped to (%.2f, %.2f)",
		e.X, e.Y, e.ClampedX, e.ClampedY)
}

// LimitExceeded describes the soft squad-count cap being crossed. Non-fatal:
// nothing is blocked. No command returns it; Simulation.Step instead logs a
// warning with the count and limit at the end of every call while the store
// holds more squads than the cap, not just the first time.
type LimitExceeded struct {
	Count int
	Limit int
}

func (e *LimitExceeded) Error() string {
	return fmt.Sprintf("simerr: active squad count %d exceeds soft limit %d", e.Count, e.Limit)
}

// SerializeFailure wraps a resource-allocation failure encountered while
// producing a snapshot. Tick state is left intact; the caller may retry.
type SerializeFailure struct {
	Err error
}

func (e *SerializeFailure) Error() string {
	return fmt.Sprintf("simerr: snapshot serialization failed: %v", e.Err)
}

func (e *SerializeFailure) Unwrap() error { return e.Err }

// Assertf panics if cond is false. It guards internal invariants that a bug
// in the core itself would violate (never caller input) — there is nothing
// a caller could pass to trigger one, so there is no error value worth
// returning.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("simerr: assertion failed: "+format, args...))
	}
}
