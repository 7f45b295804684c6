// Package resolver implements the ambiguity and confidence decision engine.
//
// Given the upstream interpreter's structured proposal and the raw
// question, the resolver picks one of three outcomes: proceed unattended,
// pause for a yes/no confirmation, or pause with a choice between
// competing columns. High-confidence interpretations with an explicit
// column choice and relationship-intent questions skip ambiguity detection
// entirely. Every internal failure fails open to auto-proceed; a broken
// resolver must degrade to the pipeline simply not pausing, never to a
// blocked user.
package resolver
