// Package main hosts the Stagehand CLI entrypoint and command graph.
//
// Every invocation rebuilds the stage catalog, applies the project document
// (global context, settings bags, staged order) and, for mutating commands,
// writes the document back. The run command drives the sequencer in-process
// and prints the output channel until the run ends.
package main
