package core

import (
	"context"
	"strings"
)

// ModelType identifies the kind of generation a handler performs.
type ModelType string

// Model kinds known to the runtime. Plugins may register additional kinds.
const (
	ModelTextSmall          ModelType = "TEXT_SMALL"
	ModelTextLarge          ModelType = "TEXT_LARGE"
	ModelTextReasoningSmall ModelType = "TEXT_REASONING_SMALL"
	ModelTextReasoningLarge ModelType = "TEXT_REASONING_LARGE"
	ModelTextCompletion     ModelType = "TEXT_COMPLETION"
	ModelTextEmbedding      ModelType = "TEXT_EMBEDDING"
	ModelObjectSmall        ModelType = "OBJECT_SMALL"
	ModelObjectLarge        ModelType = "OBJECT_LARGE"
	ModelImage              ModelType = "IMAGE"
	ModelTranscription      ModelType = "TRANSCRIPTION"
)

// IsTextGeneration reports whether the kind is subject to the global LLM mode override.
func (m ModelType) IsTextGeneration() bool {
	switch m {
	case ModelTextSmall, ModelTextLarge, ModelTextReasoningSmall, ModelTextReasoningLarge, ModelTextCompletion:
		return true
	}
	return false
}

// LLMMode is the global text-generation override.
type LLMMode string

// Supported LLM modes.
const (
	LLMModeDefault LLMMode = "DEFAULT"
	LLMModeSmall   LLMMode = "SMALL"
	LLMModeLarge   LLMMode = "LARGE"
)

// ParseLLMMode converts a case-insensitive mode name; unknown values yield DEFAULT.
func ParseLLMMode(s string) LLMMode {
	switch LLMMode(strings.ToUpper(strings.TrimSpace(s))) {
	case LLMModeSmall:
		return LLMModeSmall
	case LLMModeLarge:
		return LLMModeLarge
	default:
		return LLMModeDefault
	}
}

// ModelParams is the normalized input of a model call.
type ModelParams struct {
	Prompt        string
	System        string
	Temperature   *float64
	MaxTokens     int
	StopSequences []string
	// Extra carries kind-specific inputs (e.g. "text" for embeddings).
	Extra map[string]any
}

// ModelHandler performs a generation request. The result is opaque to the runtime.
type ModelHandler func(ctx context.Context, rt Runtime, params ModelParams) (any, error)

// StreamingModelHandler yields incremental text chunks. The chunk channel is
// closed when the stream ends; the error channel carries at most one error.
type StreamingModelHandler func(ctx context.Context, rt Runtime, params ModelParams) (<-chan string, <-chan error)

// ModelRegistration is a handler registered for a model kind.
type ModelRegistration struct {
	Handler  ModelHandler
	Provider string
	Priority int
}

// StreamingModelRegistration is a streaming handler registered for a model kind.
type StreamingModelRegistration struct {
	Handler  StreamingModelHandler
	Provider string
	Priority int
}
