package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

func (a *App) statusesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "statuses",
		Aliases: []string{"states"},
		Short:   "Inspect workflow states",
	}
	cmd.AddCommand(a.statusesListCmd())
	return cmd
}

func (a *App) statusesListCmd() *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the workflow states of a team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if team == "" {
				return apperr.General("--team is required")
			}
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			teamID, err := api.ResolveTeamID(ctx, client, team, a.metaCache())
			if err != nil {
				return err
			}

			result, err := client.Query(ctx, `
				query($teamId: String!) {
					team(id: $teamId) {
						states { nodes { id name type position } }
					}
				}`, map[string]any{"teamId": teamID})
			if err != nil {
				return err
			}
			states, _ := api.PathArray(result, "data", "team", "states", "nodes")

			if a.outputOptions().IsJSON() {
				return a.printJSON(states)
			}
			rows := make([][]string, 0, len(states))
			for _, item := range states {
				state, ok := item.(map[string]any)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					api.String(state, "name", ""),
					api.String(state, "type", "-"),
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Name", "Type"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVarP(&team, "team", "t", "", "Team key or name (required)")
	return cmd
}
