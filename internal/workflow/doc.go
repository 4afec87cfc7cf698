// Package workflow runs the staged stages one at a time.
//
// The Sequencer walks the staging list in order, chaining each stage's output
// directory into the next stage's input, and hands every command to a process
// runner that executes one process at a time. A run moves through
// Validating, Running, and then exactly one terminal state: Completed,
// Failed, or Aborted.
//
// Pre-run checks happen synchronously inside Run. The steps themselves are
// driven by a single control goroutine; process completion is delivered to it
// over a channel so every state transition happens on that goroutine. Status
// listeners and observers are called synchronously from it as well.
//
// Every failure path publishes at least one line on the output channel in
// addition to the structured log.
package workflow
