package engine

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/internal/util"
	"github.com/hupe1980/agentruntime/logging"
	"github.com/hupe1980/agentruntime/model"
	"github.com/hupe1980/agentruntime/observability"
	"github.com/hupe1980/agentruntime/params"
)

// Run statuses reported with RUN_ENDED.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Turn summarizes one handled message.
type Turn struct {
	RunID string
	// Responses are the agent responses planned by the model.
	Responses  []*core.Memory
	State      *core.State
	Results    []core.ActionResult
	Evaluators []core.Evaluator
	// DidRespond reports whether the callback delivered any content.
	DidRespond bool
}

// MessageHandler is the strategy HandleMessage runs for each turn.
type MessageHandler func(ctx context.Context, e *Engine, runID string, message *core.Memory, callback core.HandlerCallback) (*Turn, error)

// DefaultMessageHandler persists the message, composes state, asks TEXT_LARGE
// for a <response> plan, dispatches the planned actions and runs evaluators.
// A plan consisting of a single REPLY with text is delivered directly.
func DefaultMessageHandler(ctx context.Context, e *Engine, runID string, message *core.Memory, callback core.HandlerCallback) (*Turn, error) {
	turn := &Turn{}
	log := logging.With(logging.ForRoom(e.logger, e.agentID, message.RoomID), "run_id", runID)

	emit := func(data map[string]any, name string) {
		if err := e.EmitEvent(ctx, core.EventPayload{Source: "engine", Message: message, Data: data}, name); err != nil {
			log.Warn("engine.event.failed", "event", name, "error", err.Error())
		}
	}

	emit(nil, core.EventMessageReceived)
	e.persistInbound(ctx, log, message)

	if err := e.composer.Invalidate(ctx, message.RoomID); err != nil {
		log.Debug("engine.state.invalidate_failed", "error", err.Error())
	}

	emit(map[string]any{"runId": runID}, core.EventRunStarted)

	fail := func(err error) (*Turn, error) {
		emit(map[string]any{"runId": runID, "status": RunFailed, "error": err.Error()}, core.EventRunEnded)
		return turn, err
	}

	st, err := e.ComposeState(ctx, message, core.ComposeOptions{})
	if err != nil {
		return fail(fmt.Errorf("compose state: %w", err))
	}
	turn.State = st

	prompt, err := util.RenderTemplate(e.messageTemplate, e.promptValues(st))
	if err != nil {
		return fail(err)
	}

	result, err := e.UseModel(ctx, core.ModelTextLarge, core.ModelParams{
		Prompt: prompt,
		Extra:  map[string]any{model.PurposeKey: observability.PurposeAction},
	}, "")
	if err != nil {
		return fail(fmt.Errorf("plan response: %w", err))
	}

	content := ParseResponse(model.ResponseText(result))
	content.InReplyTo = message.ID

	if len(content.Providers) > 0 {
		refreshed, err := e.ComposeState(ctx, message, core.ComposeOptions{Include: content.Providers, SkipCache: true})
		if err != nil {
			return fail(fmt.Errorf("compose state: %w", err))
		}
		st = refreshed
		turn.State = st
	}

	response := core.NewMemory(message.RoomID, e.agentID, content)
	response.AgentID = e.agentID
	response.WorldID = message.WorldID
	turn.Responses = []*core.Memory{response}

	var responded atomic.Bool

	deliver := func(ctx context.Context, c core.Content) ([]*core.Memory, error) {
		responded.Store(true)

		out := core.NewMemory(message.RoomID, e.agentID, c)
		out.AgentID = e.agentID
		out.WorldID = message.WorldID
		if out.Content.InReplyTo == "" {
			out.Content.InReplyTo = message.ID
		}

		if _, err := e.DatabaseOrNoop().CreateMemory(ctx, out, core.TableMessages); err != nil {
			log.Warn("engine.memory.create_failed", "error", err.Error())
		}

		if callback == nil {
			return []*core.Memory{out}, nil
		}

		return callback(ctx, c)
	}

	if isSimpleReply(content) {
		if _, err := deliver(ctx, content); err != nil {
			return fail(fmt.Errorf("deliver reply: %w", err))
		}
	} else if err := e.ProcessActions(ctx, message, turn.Responses, st, deliver); err != nil {
		turn.Results = e.ActionResults(message.ID)
		return fail(fmt.Errorf("process actions: %w", err))
	}

	turn.Results = e.ActionResults(message.ID)
	turn.DidRespond = responded.Load()
	turn.Evaluators = e.Evaluate(ctx, message, st, turn.DidRespond, deliver, turn.Responses)

	emit(map[string]any{"runId": runID, "status": RunCompleted}, core.EventRunEnded)

	return turn, nil
}

// ParseResponse reads a model's <response> block. Actions and providers are
// comma separated lists. A <params> block is kept as markup parameters.
// Output without any markup is treated as plain reply text.
func ParseResponse(raw string) core.Content {
	root, err := params.ParseMarkup(raw)
	if err != nil {
		text := strings.TrimSpace(raw)
		if text == "" {
			return core.Content{}
		}
		return core.Content{Text: text, Actions: []string{"REPLY"}}
	}

	field := func(name string) string {
		if n, ok := root.Find(name); ok {
			return n.Text
		}
		return ""
	}

	content := core.Content{
		Thought:   field("thought"),
		Text:      field("text"),
		Actions:   splitList(field("actions")),
		Providers: splitList(field("providers")),
	}

	if strings.Contains(raw, "<params") {
		content.Params = core.MarkupParams(raw)
	}

	return content
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func isSimpleReply(c core.Content) bool {
	return len(c.Actions) == 1 && c.Actions[0] == "REPLY" && c.Text != "" && c.Params == nil
}

func (e *Engine) promptValues(st *core.State) map[string]any {
	values := map[string]any{}
	if st != nil {
		maps.Copy(values, st.Values)
	}
	if name, ok := values["agentName"].(string); !ok || name == "" {
		values["agentName"] = e.character.Name
	}
	return values
}

func (e *Engine) persistInbound(ctx context.Context, log logging.Logger, message *core.Memory) {
	db := e.DatabaseOrNoop()

	if err := db.EnsureRoom(ctx, core.Room{ID: message.RoomID, WorldID: message.WorldID, Source: message.Content.Source}); err != nil {
		log.Warn("engine.room.ensure_failed", "error", err.Error())
	}

	for _, entityID := range []string{e.agentID, message.EntityID} {
		if entityID == "" {
			continue
		}
		ok, err := db.IsRoomParticipant(ctx, message.RoomID, entityID)
		if err == nil && !ok {
			err = db.AddParticipant(ctx, message.RoomID, entityID)
		}
		if err != nil {
			log.Warn("engine.participant.failed", "entity_id", entityID, "error", err.Error())
		}
	}

	if _, err := db.CreateMemory(ctx, message, core.TableMessages); err != nil {
		log.Warn("engine.memory.create_failed", "error", err.Error())
	}
}
