package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/leeforge/hookkit/json"
	"github.com/spf13/cobra"
)

func newPluginsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Bootstrap plugins once and print their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := startHost(cmd.Context(), root.configOptions(), builtinPlugins())
			if err != nil {
				return err
			}
			statuses := h.runtime.Status()
			if err := h.stop(context.WithoutCancel(cmd.Context())); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				raw, err := json.MarshalIndent(statuses, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATE\tHOOKS\tERROR")
			for _, s := range statuses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.State, s.Hooks, s.Error)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
