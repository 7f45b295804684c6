// Package engine exposes the conversational turn contract: RunTurn drives
// a question through the fixed stage topology (domain check, intent
// inference, ambiguity analysis, the two human gates, then the downstream
// query pipeline), checkpoints the conversation whenever it pauses for a
// human, and resumes it when the caller supplies the human's answer.
//
// The engine owns orchestration only. Language understanding, schema
// lookup and query execution are injected collaborators; see the adapter
// packages for ready-made implementations.
package engine
