// Package log provides the logging surface for queryflow.
//
// The core never fails a user turn because of an internal logging or
// observability problem, so all diagnostic output funnels through the small
// Logger interface here: a stdlib-backed DefaultLogger, a NoOpLogger, and a
// kataras/golog binding for embedders with an existing golog setup.
package log
