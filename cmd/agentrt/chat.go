package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentruntime/core"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var roomID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, cfg, err := opts.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(ctx) }()

			if !rt.HasModel(core.ModelTextLarge) {
				return fmt.Errorf("no %s model registered; pass --model-provider", core.ModelTextLarge)
			}

			out := cmd.OutOrStdout()
			reply := func(_ context.Context, c core.Content) ([]*core.Memory, error) {
				if c.Text != "" {
					fmt.Fprintf(out, "%s: %s\n", cfg.Character.Name, c.Text)
				}
				return nil, nil
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/quit" {
					break
				}

				msg := core.NewMemory(roomID, "cli-user", core.Content{Text: line, Source: "cli"})
				if _, err := rt.HandleMessage(ctx, msg, reply); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			}

			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "cli", "Room id of the conversation")

	return cmd
}
