// Package executor runs at most one external process at a time.
//
// The process's stderr shares a pipe with its stdout so the combined stream
// keeps the order the process wrote it in. A worker goroutine forwards every
// line, unmodified, to the output channel, waits for exit, and then invokes
// the completion continuation with the exit code. Stop asks the process group
// to terminate with SIGTERM; the worker keeps draining until the stream ends.
package executor
