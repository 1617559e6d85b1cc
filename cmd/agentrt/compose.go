package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentruntime/core"
)

func newComposeCmd(opts *rootOptions) *cobra.Command {
	var (
		roomID  string
		text    string
		include []string
		only    bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose the state for a message and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, _, err := opts.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			msg := core.NewMemory(roomID, "cli-user", core.Content{Text: text, Source: "cli"})

			st, err := rt.ComposeState(cmd.Context(), msg, core.ComposeOptions{Include: include, OnlyInclude: only, SkipCache: true})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), st.Text)
			return err
		},
	}

	cmd.Flags().StringVar(&roomID, "room", "cli", "Room id of the message")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Message text")
	cmd.Flags().StringSliceVar(&include, "include", nil, "Providers to include")
	cmd.Flags().BoolVar(&only, "only", false, "Run only the included providers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full state as JSON")

	return cmd
}
