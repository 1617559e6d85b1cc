// Package engine implements the agent runtime.
//
// The Engine owns the component registry and wires every runtime collaborator
// around it. It implements core.Runtime, so providers, actions, evaluators,
// model handlers and event handlers all receive the engine on each call.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│                  HandleMessage (turn)                   │
//	├─────────────────────────────────────────────────────────┤
//	│  ┌─────────────┐ ┌─────────────┐ ┌─────────────────┐    │
//	│  │   state     │ │    model    │ │     action      │    │
//	│  │  Composer   │ │   Gateway   │ │   Dispatcher    │    │
//	│  └─────────────┘ └─────────────┘ └─────────────────┘    │
//	│  ┌─────────────┐ ┌─────────────┐ ┌─────────────────┐    │
//	│  │  evaluator  │ │    event    │ │     plugin      │    │
//	│  │   Runner    │ │     Bus     │ │     Loader      │    │
//	│  └─────────────┘ └─────────────┘ └─────────────────┘    │
//	├─────────────────────────────────────────────────────────┤
//	│                 registry.Registry                       │
//	├─────────────────────────────────────────────────────────┤
//	│   DatabaseAdapter (optional)   Observer (optional)      │
//	└─────────────────────────────────────────────────────────┘
//
// # Turn Lifecycle
//
// DefaultMessageHandler processes one inbound message:
//
//  1. emit MESSAGE_RECEIVED and persist the message (no-op without a database)
//  2. emit RUN_STARTED
//  3. compose state from the registered providers
//  4. render DefaultMessageTemplate and call TEXT_LARGE
//  5. parse the <response> plan; recompose when it names extra providers
//  6. deliver a lone REPLY directly, otherwise dispatch the planned actions
//  7. run evaluators and emit RUN_ENDED
//
// Replace the strategy with Options.MessageHandler.
//
// # Usage
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Character = core.Character{Name: "Eliza"}
//	    o.Plugins = []*core.Plugin{openai.NewPlugin(openai.NewHandler())}
//	    o.Logger = logging.NewDefaultSlogLogger()
//	})
//
//	if err := eng.Initialize(ctx); err != nil {
//	    return err
//	}
//
//	turn, err := eng.HandleMessage(ctx, message, func(ctx context.Context, c core.Content) ([]*core.Memory, error) {
//	    fmt.Println(c.Text)
//	    return nil, nil
//	})
//
// # Concurrency Model
//
//   - Registries, caches and the result store are safe for concurrent use
//   - Within a turn every step runs sequentially on the calling goroutine
//   - Config.MaxConcurrentTurns bounds concurrent HandleMessage calls
//   - StopRun cancels a single turn; Stop cancels all of them and stops services
//
// # Error Handling
//
//   - Initialize returns the first plugin registration failure
//   - Provider, action, evaluator and event handler failures are isolated and logged
//   - Model lookup failures abort the turn with a *core.LookupError
//   - Database returns a *core.ConfigurationError when no adapter is configured
package engine
