// Package history persists sequencer runs and their steps in SQLite.
//
// Store owns the database and its embedded migrations. Recorder adapts the
// store to the workflow observer interface so every run started through the
// CLI is recorded without the sequencer knowing about persistence.
package history
