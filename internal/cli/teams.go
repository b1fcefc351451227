package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

func (a *App) teamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "teams",
		Aliases: []string{"team"},
		Short:   "Manage teams",
	}
	cmd.AddCommand(a.teamsListCmd(), a.teamsGetCmd())
	return cmd
}

func (a *App) teamsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key-or-name>",
		Short: "Show a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			teamID, err := api.ResolveTeamID(ctx, client, args[0], a.metaCache())
			if err != nil {
				return err
			}
			result, err := client.Query(ctx, `
				query($id: String!) {
					team(id: $id) {
						id key name description private issueCount cycleDuration
						members { nodes { name } }
					}
				}`, map[string]any{"id": teamID})
			if err != nil {
				return err
			}
			team, _ := api.Path(result, "data", "team")

			if a.outputOptions().IsJSON() {
				return a.printJSON(team)
			}
			w := a.stdout
			fmt.Fprintf(w, "%s (%s)\n", api.String(team, "name", "-"), api.String(team, "key", "-"))
			if desc := api.String(team, "description", ""); desc != "" {
				fmt.Fprintf(w, "%s\n", desc)
			}
			if members, ok := api.PathArray(team, "members", "nodes"); ok {
				fmt.Fprintf(w, "Members: %d\n", len(members))
			}
			return nil
		},
	}
}

func (a *App) teamsListCmd() *cobra.Command {
	var page paginationFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List teams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			teams, err := api.Paginate(ctx, client, `
				query($first: Int, $after: String, $last: Int, $before: String) {
					teams(first: $first, after: $after, last: $last, before: $before) {
						nodes { id key name description issueCount }
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, nil,
				[]string{"data", "teams", "nodes"},
				[]string{"data", "teams", "pageInfo"},
				page.options().WithDefaultLimit(100), 100)
			if err != nil {
				return err
			}

			opts := a.outputOptions()
			if opts.IsJSON() {
				return a.printJSON(teams)
			}
			rows := make([][]string, 0, len(teams))
			for _, item := range teams {
				team, ok := item.(map[string]any)
				if !ok {
					continue
				}
				count := "-"
				if n, ok := team["issueCount"].(float64); ok {
					count = fmt.Sprintf("%d", int(n))
				}
				rows = append(rows, []string{
					api.String(team, "key", "-"),
					api.String(team, "name", ""),
					count,
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Key", "Name", "Issues"}, rows))
			return nil
		},
	}
	page.register(cmd.Flags())
	return cmd
}
