// Package clock provides ports.Scheduler implementations: Real, backed by
// time.AfterFunc, and Virtual, a manually advanced clock for deterministic tests
// and dry runs.
package clock
