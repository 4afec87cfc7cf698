// Package services defines shared utilities consumed by the sequencer, the
// stage implementations, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and step
//     indexes for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     messages uniform across stages and the run engine.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error classification, observability) stays uniform across the pipeline.
package services
