package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
	"github.com/ink-splatters/linear-cli-sub001/internal/text"
)

func (a *App) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Full-text search",
	}
	cmd.AddCommand(a.searchIssuesCmd(), a.searchProjectsCmd())
	return cmd
}

func (a *App) searchIssuesCmd() *cobra.Command {
	var (
		team string
		page paginationFlags
	)
	cmd := &cobra.Command{
		Use:   "issues <query...>",
		Short: "Search issues by text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}

			vars := map[string]any{"term": strings.Join(args, " ")}
			if team != "" {
				teamID, err := api.ResolveTeamID(ctx, client, team, a.metaCache())
				if err != nil {
					return err
				}
				vars["filter"] = map[string]any{
					"team": map[string]any{"id": map[string]any{"eq": teamID}},
				}
			}

			issues, err := api.Paginate(ctx, client, `
				query($term: String!, $filter: IssueFilter, $first: Int, $after: String, $last: Int, $before: String) {
					searchIssues(term: $term, filter: $filter, first: $first, after: $after, last: $last, before: $before) {
						nodes {`+issueFields+`}
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, vars,
				[]string{"data", "searchIssues", "nodes"},
				[]string{"data", "searchIssues", "pageInfo"},
				page.options().WithDefaultLimit(25), 25)
			if err != nil {
				return err
			}
			return a.printIssues(issues)
		},
	}
	cmd.Flags().StringVarP(&team, "team", "t", "", "Restrict to a team")
	page.register(cmd.Flags())
	return cmd
}

func (a *App) searchProjectsCmd() *cobra.Command {
	var page paginationFlags
	cmd := &cobra.Command{
		Use:   "projects <query...>",
		Short: "Search projects by text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}

			projects, err := api.Paginate(ctx, client, `
				query($term: String!, $first: Int, $after: String, $last: Int, $before: String) {
					searchProjects(term: $term, first: $first, after: $after, last: $last, before: $before) {
						nodes { id name slugId state progress targetDate lead { name } }
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, map[string]any{"term": strings.Join(args, " ")},
				[]string{"data", "searchProjects", "nodes"},
				[]string{"data", "searchProjects", "pageInfo"},
				page.options().WithDefaultLimit(25), 25)
			if err != nil {
				return err
			}

			if a.outputOptions().IsJSON() {
				return a.printJSON(projects)
			}
			rows := make([][]string, 0, len(projects))
			for _, item := range projects {
				project, ok := item.(map[string]any)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					text.Truncate(api.String(project, "name", ""), 40),
					api.String(project, "state", "-"),
					api.String(project["lead"], "name", "-"),
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Name", "State", "Lead"}, rows))
			return nil
		},
	}
	page.register(cmd.Flags())
	return cmd
}
