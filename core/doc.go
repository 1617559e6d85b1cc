// Package core provides the foundational domain types and interfaces used by
// the agent runtime. It defines the core abstractions for:
//
//   - Memories (inbound turns and agent responses) and their Content
//   - State (the per-turn context composed from providers)
//   - Components: Provider, Action, Evaluator, Service, TaskWorker, Route
//   - Model handlers keyed by ModelType
//   - Plugins bundling components for registration
//   - The Runtime interface that components receive on every call
//   - The optional DatabaseAdapter collaborator
//
// The package keeps implementation concerns (composition, dispatch, model
// selection) out of scope, exposing small interfaces so the engine packages
// and third-party plugins can meet in one place.
package core
