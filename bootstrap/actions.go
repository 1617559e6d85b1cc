package bootstrap

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/agentruntime/component"
	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/internal/util"
	"github.com/hupe1980/agentruntime/model"
	"github.com/hupe1980/agentruntime/observability"
	"github.com/hupe1980/agentruntime/params"
)

// promptValues returns the state values with agentName filled from the runtime.
func promptValues(rt core.Runtime, state *core.State) map[string]any {
	values := map[string]any{}
	if state != nil {
		maps.Copy(values, state.Values)
	}

	if name, ok := values["agentName"].(string); !ok || name == "" {
		values["agentName"] = rt.Character().Name
	}

	return values
}

func (c *capability) replyAction() core.Action {
	return component.NewAction("REPLY", func(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State, _ *core.HandlerOptions, callback core.HandlerCallback, _ []*core.Memory) (*core.ActionResult, error) {
		prompt, err := util.RenderTemplate(c.opts.ReplyTemplate, promptValues(rt, state))
		if err != nil {
			return nil, err
		}

		result, err := rt.UseModel(ctx, core.ModelTextSmall, core.ModelParams{
			Prompt: prompt,
			Extra:  map[string]any{model.PurposeKey: observability.PurposeAction},
		}, "")
		if err != nil {
			return nil, fmt.Errorf("generate reply: %w", err)
		}

		raw := model.ResponseText(result)

		text := params.Field(raw, "text")
		if text == "" {
			text = raw
		}

		content := core.Content{
			Text:      text,
			Thought:   params.Field(raw, "thought"),
			Actions:   []string{"REPLY"},
			InReplyTo: message.ID,
		}

		if callback != nil {
			if _, err := callback(ctx, content); err != nil {
				return nil, fmt.Errorf("send reply: %w", err)
			}
		}

		return &core.ActionResult{
			Success: true,
			Text:    text,
			Values:  map[string]any{"lastReply": text},
			Data:    map[string]any{"thought": content.Thought},
		}, nil
	}, func(o *component.ActionOptions) {
		o.Description = "Reply to the current conversation with a message"
		o.Similes = []string{"GREET", "RESPOND", "RESPONSE"}
	})
}

func ignoreAction() core.Action {
	return component.NewAction("IGNORE", func(ctx context.Context, _ core.Runtime, _ *core.Memory, _ *core.State, _ *core.HandlerOptions, callback core.HandlerCallback, responses []*core.Memory) (*core.ActionResult, error) {
		if callback != nil && len(responses) > 0 && responses[0] != nil {
			if _, err := callback(ctx, responses[0].Content); err != nil {
				return nil, err
			}
		}

		return &core.ActionResult{Success: true, Values: map[string]any{"ignored": true}}, nil
	}, func(o *component.ActionOptions) {
		o.Description = "Stop responding; use when the conversation is over or the message is not addressed to the agent"
		o.Similes = []string{"STOP_TALKING", "STOP_CONVERSATION"}
	})
}

func noneAction() core.Action {
	return component.NewAction("NONE", func(context.Context, core.Runtime, *core.Memory, *core.State, *core.HandlerOptions, core.HandlerCallback, []*core.Memory) (*core.ActionResult, error) {
		return &core.ActionResult{Success: true}, nil
	}, func(o *component.ActionOptions) {
		o.Description = "Respond without taking any additional action"
		o.Similes = []string{"NO_ACTION", "PASS"}
	})
}

// chooseOptionArgs declares the CHOOSE_OPTION parameters.
type chooseOptionArgs struct {
	Option string `json:"option" description:"Identifier of the selected option"`
}

func chooseOptionAction() core.Action {
	return component.NewActionFromStruct("CHOOSE_OPTION", "Select one option from a pending choice", chooseOptionArgs{},
		func(_ context.Context, _ core.Runtime, _ *core.Memory, _ *core.State, opts *core.HandlerOptions, _ core.HandlerCallback, _ []*core.Memory) (*core.ActionResult, error) {
			if opts == nil || opts.Parameters == nil {
				var problems []string
				if opts != nil {
					problems = opts.ParameterErrors
				}
				return &core.ActionResult{
					Success: false,
					Error:   "no option selected",
					Data:    map[string]any{"parameterErrors": problems},
				}, nil
			}

			option, _ := opts.Parameters["option"].(string)

			return &core.ActionResult{
				Success: true,
				Text:    "Selected option " + option,
				Values:  map[string]any{"selectedOption": option},
			}, nil
		})
}
