package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentruntime/component"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/internal/util"
	"github.com/hupe1980/agentruntime/model"
	"github.com/hupe1980/agentruntime/observability"
	"github.com/hupe1980/agentruntime/params"
)

// ReflectionKey is the State.Values key the REFLECTION evaluator writes.
const ReflectionKey = "reflection"

func (c *capability) reflectionEvaluator() core.Evaluator {
	return component.NewEvaluator("REFLECTION", func(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State, _ core.HandlerCallback, _ []*core.Memory) error {
		prompt, err := util.RenderTemplate(c.opts.ReflectionTemplate, promptValues(rt, state))
		if err != nil {
			return err
		}

		result, err := rt.UseModel(ctx, core.ModelTextSmall, core.ModelParams{
			Prompt: prompt,
			Extra:  map[string]any{model.PurposeKey: observability.PurposeEvaluation},
		}, "")
		if err != nil {
			return fmt.Errorf("reflect: %w", err)
		}

		raw := model.ResponseText(result)

		thought := params.Field(raw, "thought")
		if thought == "" {
			thought = strings.TrimSpace(raw)
		}

		if state != nil {
			state.Values[ReflectionKey] = thought
		}

		reflection := core.NewMemory(message.RoomID, rt.AgentID(), core.Content{
			Thought:   thought,
			InReplyTo: message.ID,
			Source:    "REFLECTION",
		})
		reflection.AgentID = rt.AgentID()

		if _, err := rt.DatabaseOrNoop().CreateMemory(ctx, reflection, core.TableReflections); err != nil {
			return fmt.Errorf("store reflection: %w", err)
		}

		return nil
	}, func(o *component.EvaluatorOptions) {
		o.Description = "Records a short reflection on the agent's latest exchange"
		o.Validate = func(_ context.Context, _ core.Runtime, message *core.Memory, _ *core.State) (bool, error) {
			return message != nil && strings.TrimSpace(message.Content.Text) != "", nil
		}
	})
}
