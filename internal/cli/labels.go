package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

func (a *App) labelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "labels",
		Aliases: []string{"label"},
		Short:   "Manage issue labels",
	}
	cmd.AddCommand(a.labelsListCmd(), a.labelsCreateCmd(), a.labelsDeleteCmd())
	return cmd
}

func (a *App) labelsDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := a.confirm("Delete label " + args[0] + "?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.stderr, "Aborted.")
					return nil
				}
			}
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			labelID, err := api.ResolveLabelID(ctx, client, args[0], a.metaCache())
			if err != nil {
				return err
			}
			result, err := client.Query(ctx, `
				mutation($id: String!) {
					issueLabelDelete(id: $id) { success }
				}`, map[string]any{"id": labelID})
			if err != nil {
				return err
			}
			if ok, _ := api.PathBool(result, "data", "issueLabelDelete", "success"); !ok {
				return apperr.General("Failed to delete label: " + args[0])
			}
			if !a.quiet {
				fmt.Fprintf(a.stdout, "Deleted label %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

func (a *App) labelsListCmd() *cobra.Command {
	var page paginationFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issue labels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			labels, err := api.Paginate(ctx, client, `
				query($first: Int, $after: String, $last: Int, $before: String) {
					issueLabels(first: $first, after: $after, last: $last, before: $before) {
						nodes { id name color team { key } }
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, nil,
				[]string{"data", "issueLabels", "nodes"},
				[]string{"data", "issueLabels", "pageInfo"},
				page.options().WithDefaultLimit(100), 100)
			if err != nil {
				return err
			}

			if a.outputOptions().IsJSON() {
				return a.printJSON(labels)
			}
			rows := make([][]string, 0, len(labels))
			for _, item := range labels {
				label, ok := item.(map[string]any)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					api.String(label, "name", ""),
					api.String(label["team"], "key", "workspace"),
					api.String(label, "color", "-"),
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Name", "Team", "Color"}, rows))
			return nil
		},
	}
	page.register(cmd.Flags())
	return cmd
}

func (a *App) labelsCreateCmd() *cobra.Command {
	var (
		team  string
		color string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}

			inp := map[string]any{"name": args[0]}
			if team != "" {
				teamID, err := api.ResolveTeamID(ctx, client, team, a.metaCache())
				if err != nil {
					return err
				}
				inp["teamId"] = teamID
			}
			if color != "" {
				inp["color"] = color
			}

			result, err := client.Query(ctx, `
				mutation($input: IssueLabelCreateInput!) {
					issueLabelCreate(input: $input) {
						success
						issueLabel { id name color }
					}
				}`, map[string]any{"input": inp})
			if err != nil {
				return err
			}
			label, _ := api.Path(result, "data", "issueLabelCreate", "issueLabel")
			if a.outputOptions().IsJSON() && !a.idOnly {
				return a.printJSON(label)
			}
			id := api.String(label, "id", "")
			return a.printResult(id, "Created label "+args[0])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&team, "team", "t", "", "Create a team-scoped label (default: workspace)")
	f.StringVar(&color, "color", "", "Label color as #rrggbb")
	return cmd
}
