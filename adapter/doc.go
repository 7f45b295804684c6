// Package adapter groups ready-made implementations of the engine's
// collaborator contracts: langchaingo-backed interpretation and domain
// checking (adapter/llm), a direct OpenAI domain checker (adapter/openai),
// and a database/sql query-execution stage (adapter/sqlexec).
//
// None of these are required by the core; any embedder can supply its own
// implementations of the interfaces in the engine package.
package adapter
