package core

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrActionNotFound is returned when a response names an unregistered action.
	ErrActionNotFound = errors.New("action not found")
	// ErrTaskWorkerNotFound is returned when no task worker is registered under a name.
	ErrTaskWorkerNotFound = errors.New("task worker not found")
	// ErrNoModelHandler is returned when no handler is registered for a model kind.
	ErrNoModelHandler = errors.New("no handler registered for model type")
	// ErrNoProviderHandler is returned when no handler for the model kind matches the requested provider.
	ErrNoProviderHandler = errors.New("no handler registered for model provider")
	// ErrNoCapabilityFactory is the cause of a ConfigurationError when capability
	// settings are given without a factory to build the plugin from.
	ErrNoCapabilityFactory = errors.New("no capability plugin factory configured")
	// ErrDuplicateComponent is returned when a component name is registered twice.
	ErrDuplicateComponent = errors.New("component already registered")
	// ErrNoDatabase is the cause of a ConfigurationError for missing persistence.
	ErrNoDatabase = errors.New("no database adapter configured")
)

// ConfigurationError reports a missing or invalid collaborator. It is surfaced to callers.
type ConfigurationError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LookupError reports an unknown action or model handler. It is fatal for the call.
type LookupError struct {
	Kind     string // "action", "model", "streaming_model"
	Name     string
	Provider string
	Err      error
}

func (e *LookupError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %q (provider %q): %v", e.Kind, e.Name, e.Provider, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ValidationError describes one parameter schema violation. It is soft: the
// dispatcher records it and continues.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Field, e.Message)
}

// HandlerError wraps a failure inside an action, evaluator or event handler.
type HandlerError struct {
	Component string // "action", "evaluator", "event"
	Name      string
	Err       error
	Stack     []byte
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Component, e.Name, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// NewPanicError converts a recovered panic value into a HandlerError with a stack snapshot.
func NewPanicError(component, name string, r any) *HandlerError {
	return &HandlerError{
		Component: component,
		Name:      name,
		Err:       fmt.Errorf("panic recovered: %v", r),
		Stack:     debug.Stack(),
	}
}
