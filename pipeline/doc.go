// Package pipeline provides the stage-graph executor that drives a
// conversational turn from its entry stage to a terminal halt or a pause.
//
// The topology is fixed at build time: stages are typed identifiers wired
// into an explicit transition table of unconditional edges and conditional
// routes. Execution is single-pass and strictly sequential; there is no
// parallel stage execution and no automatic retry. A stage failure is
// recorded on the state and routed to the configured error stage, a pause
// (both pause flags inspected after the run) suspends the pipeline with a
// resume anchor, and everything else runs through to Halt.
package pipeline
