// Package interrupt implements the human side of the pause protocol: the
// response types a caller submits after a pause, and the handler that
// merges a response back into the suspended conversation state before the
// pipeline resumes.
//
// The pause payload itself lives on the state as a
// conversation.PendingRequest and is returned to the caller verbatim.
package interrupt
