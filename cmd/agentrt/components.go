package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newComponentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List registered plugins, providers, actions and evaluators",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, _, err := opts.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(cmd.Context()) }()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintf(w, "PLUGINS\t%s\n", strings.Join(rt.Registry().Plugins(), ", "))

			for _, p := range rt.Providers() {
				visibility := ""
				if p.Private() {
					visibility = " (private)"
				}
				fmt.Fprintf(w, "provider\t%s\t%d%s\n", p.Name(), p.Position(), visibility)
			}

			for _, a := range rt.Actions() {
				var params []string
				for _, s := range a.Parameters() {
					params = append(params, fmt.Sprintf("%s:%s", s.Name, s.Type))
				}
				fmt.Fprintf(w, "action\t%s\t%s\n", a.Name(), strings.Join(params, " "))
			}

			for _, e := range rt.Evaluators() {
				fmt.Fprintf(w, "evaluator\t%s\talways_run=%t\n", e.Name(), e.AlwaysRun())
			}

			return w.Flush()
		},
	}
}
