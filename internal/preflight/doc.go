// Package preflight provides readiness checks for the filesystem paths and
// external tools Stagehand depends on.
//
// These checks run in two contexts:
//   - The sequencer calls CheckEnvironment once at run start. Any failure
//     aborts the run before a process is spawned.
//   - The CLI "stagehand doctor" command uses RunAll and CheckSystemDeps to
//     display overall health.
package preflight
