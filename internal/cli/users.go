package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

func (a *App) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage workspace users",
	}
	cmd.AddCommand(a.usersListCmd(), a.usersMeCmd())
	return cmd
}

func (a *App) usersListCmd() *cobra.Command {
	var page paginationFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			users, err := api.Paginate(ctx, client, `
				query($first: Int, $after: String, $last: Int, $before: String) {
					users(first: $first, after: $after, last: $last, before: $before) {
						nodes { id name displayName email active admin }
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, nil,
				[]string{"data", "users", "nodes"},
				[]string{"data", "users", "pageInfo"},
				page.options().WithDefaultLimit(100), 100)
			if err != nil {
				return err
			}

			opts := a.outputOptions()
			if opts.IsJSON() {
				return a.printJSON(users)
			}
			rows := make([][]string, 0, len(users))
			for _, item := range users {
				user, ok := item.(map[string]any)
				if !ok {
					continue
				}
				active := "yes"
				if on, ok := user["active"].(bool); ok && !on {
					active = "no"
				}
				rows = append(rows, []string{
					api.String(user, "name", ""),
					api.String(user, "email", "-"),
					active,
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Name", "Email", "Active"}, rows))
			return nil
		},
	}
	page.register(cmd.Flags())
	return cmd
}

func (a *App) usersMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			result, err := client.Query(ctx, `
				query {
					viewer { id name displayName email admin organization { name urlKey } }
				}`, nil)
			if err != nil {
				return err
			}
			viewer, _ := api.Path(result, "data", "viewer")
			if a.outputOptions().IsJSON() {
				return a.printJSON(viewer)
			}
			fmt.Fprintf(a.stdout, "%s <%s>\n", api.String(viewer, "name", "-"), api.String(viewer, "email", "-"))
			if org, ok := api.PathString(viewer, "organization", "name"); ok {
				fmt.Fprintf(a.stdout, "Workspace: %s\n", org)
			}
			return nil
		},
	}
}
