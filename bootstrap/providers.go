package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentruntime/component"
	"github.com/hupe1980/agentruntime/core"
)

func characterProvider() core.Provider {
	return component.NewProvider("CHARACTER", func(_ context.Context, rt core.Runtime, _ *core.Memory, _ *core.State) (*core.ProviderResult, error) {
		ch := rt.Character()

		var sb strings.Builder
		fmt.Fprintf(&sb, "# About %s", ch.Name)
		if len(ch.Bio) > 0 {
			sb.WriteString("\n" + strings.Join(ch.Bio, "\n"))
		}
		if len(ch.Adjectives) > 0 {
			fmt.Fprintf(&sb, "\n%s is %s.", ch.Name, strings.Join(ch.Adjectives, ", "))
		}
		if len(ch.Topics) > 0 {
			fmt.Fprintf(&sb, "\n%s is interested in %s.", ch.Name, strings.Join(ch.Topics, ", "))
		}
		if ch.System != "" {
			sb.WriteString("\n" + ch.System)
		}

		return &core.ProviderResult{
			Text: sb.String(),
			Values: map[string]any{
				"agentName": ch.Name,
				"bio":       strings.Join(ch.Bio, "\n"),
				"system":    ch.System,
			},
			Data: map[string]any{"character": ch},
		}, nil
	}, func(o *component.ProviderOptions) {
		o.Description = "Character name, bio and persona"
		o.Position = -100
	})
}

func actionsProvider() core.Provider {
	return component.NewProvider("ACTIONS", func(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (*core.ProviderResult, error) {
		var (
			names []string
			lines []string
		)

		for _, a := range rt.Actions() {
			ok, err := a.Validate(ctx, rt, message, state)
			if err != nil || !ok {
				continue
			}

			names = append(names, a.Name())
			lines = append(lines, fmt.Sprintf("- %s: %s", a.Name(), a.Description()))
		}

		if len(names) == 0 {
			return &core.ProviderResult{Values: map[string]any{"actionNames": ""}}, nil
		}

		return &core.ProviderResult{
			Text: "# Available Actions\n" + strings.Join(lines, "\n"),
			Values: map[string]any{
				"actionNames": "Possible response actions: " + strings.Join(names, ", "),
			},
			Data: map[string]any{"actions": names},
		}, nil
	}, func(o *component.ProviderOptions) {
		o.Description = "Actions the agent can take for this message"
		o.Position = -1
	})
}

func timeProvider(now func() time.Time) core.Provider {
	return component.NewProvider("TIME", func(context.Context, core.Runtime, *core.Memory, *core.State) (*core.ProviderResult, error) {
		t := now().UTC()
		formatted := t.Format(time.RFC1123)

		return &core.ProviderResult{
			Text:   "The current date and time is " + formatted + ".",
			Values: map[string]any{"time": formatted},
			Data:   map[string]any{"timestamp": t.UnixMilli()},
		}, nil
	}, func(o *component.ProviderOptions) {
		o.Description = "Current UTC date and time"
	})
}

func (c *capability) recentMessagesProvider() core.Provider {
	return component.NewProvider("RECENT_MESSAGES", func(ctx context.Context, rt core.Runtime, message *core.Memory, _ *core.State) (*core.ProviderResult, error) {
		memories, err := rt.DatabaseOrNoop().GetMemories(ctx, core.MemoryQuery{
			TableName: core.TableMessages,
			RoomID:    message.RoomID,
			Count:     c.current().RecentMessageCount,
		})
		if err != nil {
			return nil, fmt.Errorf("recent messages: %w", err)
		}

		if len(memories) == 0 {
			return &core.ProviderResult{Values: map[string]any{"recentMessages": ""}}, nil
		}

		agentName := rt.Character().Name
		lines := make([]string, 0, len(memories))
		for _, m := range memories {
			speaker := m.EntityID
			if m.EntityID == rt.AgentID() {
				speaker = agentName
			}
			lines = append(lines, fmt.Sprintf("%s: %s", speaker, m.Content.Text))
		}

		text := strings.Join(lines, "\n")

		return &core.ProviderResult{
			Text:   "# Conversation Messages\n" + text,
			Values: map[string]any{"recentMessages": text},
			Data:   map[string]any{"messageCount": len(memories)},
		}, nil
	}, func(o *component.ProviderOptions) {
		o.Description = "Recent messages in the room"
		o.Position = 100
	})
}

func actionStateProvider() core.Provider {
	return component.NewProvider("ACTION_STATE", func(_ context.Context, rt core.Runtime, message *core.Memory, state *core.State) (*core.ProviderResult, error) {
		results := rt.ActionResults(message.ID)
		if len(results) == 0 && state != nil {
			results = state.Data.ActionResults
		}

		if len(results) == 0 {
			return &core.ProviderResult{Values: map[string]any{"actionResults": ""}}, nil
		}

		lines := make([]string, 0, len(results))
		for i, r := range results {
			status := "succeeded"
			if !r.Success {
				status = "failed"
			}

			line := fmt.Sprintf("%d. %s %s", i+1, r.ActionName, status)
			if r.Text != "" {
				line += ": " + r.Text
			}
			if r.Error != "" {
				line += " (" + r.Error + ")"
			}

			lines = append(lines, line)
		}

		text := strings.Join(lines, "\n")

		return &core.ProviderResult{
			Text:   "# Previous Action Results\n" + text,
			Values: map[string]any{"actionResults": text},
			Data:   map[string]any{"actionResults": results},
		}, nil
	}, func(o *component.ProviderOptions) {
		o.Description = "Results of actions already executed for this message"
		o.Position = 150
	})
}
