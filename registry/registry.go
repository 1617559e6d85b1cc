// Package registry holds the runtime's typed component collections.
//
// Collections are append-only: components are registered once while plugins
// load and are never removed. Every method is safe for concurrent use.
package registry

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agentruntime/core"
)

// Registry stores providers, actions, evaluators, model handlers, streaming
// model handlers, task workers, event handlers, services and routes.
type Registry struct {
	mu sync.RWMutex

	providers       []core.Provider
	actions         []core.Action
	actionIndex     map[string]core.Action
	evaluators      []core.Evaluator
	models          map[core.ModelType][]core.ModelRegistration
	streamingModels map[core.ModelType][]core.StreamingModelRegistration
	taskWorkers     map[string]core.TaskWorker
	events          map[string][]core.EventHandler
	services        map[string]core.Service
	serviceOrder    []string
	routes          []core.Route
	plugins         []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		actionIndex:     make(map[string]core.Action),
		models:          make(map[core.ModelType][]core.ModelRegistration),
		streamingModels: make(map[core.ModelType][]core.StreamingModelRegistration),
		taskWorkers:     make(map[string]core.TaskWorker),
		events:          make(map[string][]core.EventHandler),
		services:        make(map[string]core.Service),
	}
}

// AddProvider appends a provider. Names must be unique.
func (r *Registry) AddProvider(p core.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.Name() == p.Name() {
			return fmt.Errorf("provider %q: %w", p.Name(), core.ErrDuplicateComponent)
		}
	}

	r.providers = append(r.providers, p)

	return nil
}

// Providers returns providers in registration order.
func (r *Registry) Providers() []core.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.Provider(nil), r.providers...)
}

// AddAction appends an action. Names must be unique.
func (r *Registry) AddAction(a core.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.actionIndex[a.Name()]; ok {
		return fmt.Errorf("action %q: %w", a.Name(), core.ErrDuplicateComponent)
	}

	r.actions = append(r.actions, a)
	r.actionIndex[a.Name()] = a

	return nil
}

// Action looks up an action by exact, case-sensitive name.
func (r *Registry) Action(name string) (core.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actionIndex[name]

	return a, ok
}

// Actions returns actions in registration order.
func (r *Registry) Actions() []core.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.Action(nil), r.actions...)
}

// AddEvaluator appends an evaluator. Names must be unique.
func (r *Registry) AddEvaluator(e core.Evaluator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.evaluators {
		if existing.Name() == e.Name() {
			return fmt.Errorf("evaluator %q: %w", e.Name(), core.ErrDuplicateComponent)
		}
	}

	r.evaluators = append(r.evaluators, e)

	return nil
}

// Evaluators returns evaluators in registration order.
func (r *Registry) Evaluators() []core.Evaluator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.Evaluator(nil), r.evaluators...)
}

// AddModel appends a model handler registration for a kind.
func (r *Registry) AddModel(kind core.ModelType, reg core.ModelRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[kind] = append(r.models[kind], reg)
}

// Models returns registrations for a kind in registration order.
func (r *Registry) Models(kind core.ModelType) []core.ModelRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.ModelRegistration(nil), r.models[kind]...)
}

// AddStreamingModel appends a streaming model handler registration for a kind.
func (r *Registry) AddStreamingModel(kind core.ModelType, reg core.StreamingModelRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streamingModels[kind] = append(r.streamingModels[kind], reg)
}

// StreamingModels returns streaming registrations for a kind in registration order.
func (r *Registry) StreamingModels(kind core.ModelType) []core.StreamingModelRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.StreamingModelRegistration(nil), r.streamingModels[kind]...)
}

// AddTaskWorker registers a worker by name. A later worker replaces an earlier one.
func (r *Registry) AddTaskWorker(w core.TaskWorker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.taskWorkers[w.Name] = w
}

// TaskWorker looks up a worker by name.
func (r *Registry) TaskWorker(name string) (core.TaskWorker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.taskWorkers[name]

	return w, ok
}

// AddEventHandler appends a handler for an event name.
func (r *Registry) AddEventHandler(name string, h core.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[name] = append(r.events[name], h)
}

// EventHandlers returns the handlers for an event in registration order.
func (r *Registry) EventHandlers(name string) []core.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.EventHandler(nil), r.events[name]...)
}

// AddService registers a service by type. A second service of the same type is rejected.
func (r *Registry) AddService(s core.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[s.Type()]; ok {
		return fmt.Errorf("service %q: %w", s.Type(), core.ErrDuplicateComponent)
	}

	r.services[s.Type()] = s
	r.serviceOrder = append(r.serviceOrder, s.Type())

	return nil
}

// Service looks up a service by type.
func (r *Registry) Service(serviceType string) (core.Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.services[serviceType]

	return s, ok
}

// Services returns services in registration order.
func (r *Registry) Services() []core.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Service, 0, len(r.serviceOrder))
	for _, t := range r.serviceOrder {
		out = append(out, r.services[t])
	}

	return out
}

// AddRoute appends a plugin route.
func (r *Registry) AddRoute(route core.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes = append(r.routes, route)
}

// Routes returns routes in registration order.
func (r *Registry) Routes() []core.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]core.Route(nil), r.routes...)
}

// MarkPlugin records a plugin name. It reports false when the name was already recorded.
func (r *Registry) MarkPlugin(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.plugins {
		if p == name {
			return false
		}
	}

	r.plugins = append(r.plugins, name)

	return true
}

// Plugins returns registered plugin names in registration order.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.plugins...)
}
