package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/dates"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
	"github.com/ink-splatters/linear-cli-sub001/internal/text"
)

func (a *App) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(a.projectsListCmd(), a.projectsGetCmd(), a.projectsCreateCmd())
	return cmd
}

func (a *App) projectsCreateCmd() *cobra.Command {
	var (
		team        string
		description string
		targetDate  string
	)
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			inp := map[string]any{
				"name":    args[0],
				"teamIds": []string{teamID},
			}
			if description != "" {
				inp["description"] = description
			}
			if targetDate != "" {
				due, ok := dates.ParseDueDate(targetDate)
				if !ok {
					return apperr.General("Invalid target date: " + targetDate)
				}
				inp["targetDate"] = due
			}

			result, err := client.Query(ctx, `
				mutation($input: ProjectCreateInput!) {
					projectCreate(input: $input) {
						success
						project { id name url }
					}
				}`, map[string]any{"input": inp})
			if err != nil {
				return err
			}
			project, _ := api.Path(result, "data", "projectCreate", "project")
			if project == nil {
				return apperr.General("Project creation failed")
			}
			if a.outputOptions().IsJSON() && !a.idOnly {
				return a.printJSON(project)
			}
			id := api.String(project, "id", "")
			return a.printResult(id, fmt.Sprintf("Created project %s: %s",
				args[0], api.String(project, "url", "")))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&team, "team", "t", "", "Team to attach the project to (required)")
	f.StringVarP(&description, "description", "d", "", "Project description")
	f.StringVar(&targetDate, "target-date", "", "Target date (YYYY-MM-DD or shorthand)")
	return cmd
}

func (a *App) projectsListCmd() *cobra.Command {
	var page paginationFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			projects, err := api.Paginate(ctx, client, `
				query($first: Int, $after: String, $last: Int, $before: String) {
					projects(first: $first, after: $after, last: $last, before: $before) {
						nodes { id name slugId state progress targetDate lead { name } }
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, nil,
				[]string{"data", "projects", "nodes"},
				[]string{"data", "projects", "pageInfo"},
				page.options().WithDefaultLimit(50), 50)
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
				progress := "-"
				if p, ok := project["progress"].(float64); ok {
					progress = fmt.Sprintf("%.0f%%", p*100)
				}
				rows = append(rows, []string{
					text.Truncate(api.String(project, "name", ""), 40),
					api.String(project, "state", "-"),
					progress,
					api.String(project["lead"], "name", "-"),
					api.String(project, "targetDate", "-"),
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Name", "State", "Progress", "Lead", "Target"}, rows))
			return nil
		},
	}
	page.register(cmd.Flags())
	return cmd
}

func (a *App) projectsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name-or-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			projectID, err := api.ResolveProjectID(ctx, client, args[0], a.metaCache())
			if err != nil {
				return err
			}

			result, err := client.Query(ctx, `
				query($id: String!) {
					project(id: $id) {
						id name slugId description state progress
						startDate targetDate url
						lead { name }
						teams { nodes { key name } }
					}
				}`, map[string]any{"id": projectID})
			if err != nil {
				return err
			}
			project, _ := api.Path(result, "data", "project")

			if a.outputOptions().IsJSON() {
				return a.printJSON(project)
			}
			w := a.stdout
			fmt.Fprintf(w, "%s\n", api.String(project, "name", "-"))
			fmt.Fprintf(w, "State:    %s\n", api.String(project, "state", "-"))
			lead, _ := api.Path(project, "lead")
			fmt.Fprintf(w, "Lead:     %s\n", api.String(lead, "name", "-"))
			fmt.Fprintf(w, "Target:   %s\n", api.String(project, "targetDate", "-"))
			fmt.Fprintf(w, "URL:      %s\n", api.String(project, "url", ""))
			if desc := api.String(project, "description", ""); desc != "" {
				fmt.Fprintf(w, "\n%s\n", text.StripMarkdown(desc))
			}
			return nil
		},
	}
}
