// Package conversation defines the shared conversation-state record that is
// threaded through every pipeline stage and checkpointed between turns.
//
// A State is created on a thread's first turn, loaded from the checkpoint
// store on every subsequent turn, mutated in place stage by stage, and
// persisted whenever the pipeline pauses for human input. The record is
// plain data with JSON tags; serialization is owned by the store backends.
package conversation
