// Package output carries the user-facing text lines produced during a run.
//
// Channel is append-only for producers (the executor worker and the
// sequencer) and drain-only for a single consumer that polls at a fixed
// cadence or awaits new lines. Lines keep their publish order; sinks such as
// the run transcript observe every line in that same order.
package output
