// Package model routes generation requests to registered model handlers.
//
// Handlers are registered per model kind with a provider tag and a priority.
// UseModel resolves the effective kind (applying the global LLM mode to
// text-generation kinds), picks the highest-priority handler (first
// registered wins on ties), optionally narrowed to one provider, and invokes
// it. Calls made during a trajectory step are reported to the observer.
//
// Vendor adapters live in the openai and anthropic subpackages; MockModel is
// a scripted handler for tests and examples.
package model
