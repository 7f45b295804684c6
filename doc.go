// Package queryflow is a workflow orchestration core for conversational
// data querying: it drives a natural-language question through a fixed
// graph of processing stages, pauses for human confirmation or
// disambiguation when the proposed interpretation is uncertain, and
// resumes an interrupted conversation from a checkpoint once the human
// answers.
//
// The interesting packages are engine (the turn contract), pipeline (the
// stage executor), resolver (the ambiguity decision engine), interrupt
// (the human response protocol) and store (checkpoint persistence with
// memory, file, SQLite, Redis and PostgreSQL backends).
package queryflow
