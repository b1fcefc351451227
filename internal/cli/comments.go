package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/input"
	"github.com/ink-splatters/linear-cli-sub001/internal/text"
)

func (a *App) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Manage issue comments",
	}
	cmd.AddCommand(a.commentsListCmd(), a.commentsCreateCmd())
	return cmd
}

func (a *App) commentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <issue-id>",
		Short: "List the comments on an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			result, err := client.Query(ctx, `
				query($id: String!) {
					issue(id: $id) {
						identifier
						comments { nodes { id body createdAt user { name } } }
					}
				}`, map[string]any{"id": args[0]})
			if err != nil {
				return err
			}
			issue, ok := api.Path(result, "data", "issue")
			if !ok || issue == nil {
				return apperr.NotFound("Issue not found: " + args[0])
			}
			comments, _ := api.PathArray(issue, "comments", "nodes")

			if a.outputOptions().IsJSON() {
				return a.printJSON(comments)
			}
			for _, c := range comments {
				user, _ := api.Path(c, "user")
				fmt.Fprintf(a.stdout, "%s (%s)\n%s\n\n",
					api.String(user, "name", "-"),
					api.String(c, "createdAt", ""),
					text.StripMarkdown(api.String(c, "body", "")))
			}
			if !a.quiet {
				fmt.Fprintf(a.stderr, "%d comment(s)\n", len(comments))
			}
			return nil
		},
	}
}

func (a *App) commentsCreateCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "create [issue-id...]",
		Short: "Comment on issues (pass - to read IDs from stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if body == "" {
				return apperr.General("--body is required")
			}
			ids := input.FromReader(args, a.stdin)
			if len(ids) == 0 {
				return apperr.General("No issue IDs provided. Pass IDs as arguments or pipe them via stdin.")
			}
			if body == "-" {
				// Body and IDs cannot both come from stdin.
				if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
					return apperr.General("--body - cannot be combined with reading IDs from stdin")
				}
				raw, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("reading body from stdin: %w", err)
				}
				body = strings.TrimRight(string(raw), "\n")
			}

			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			for _, id := range ids {
				result, err := client.Query(ctx, `
					mutation($input: CommentCreateInput!) {
						commentCreate(input: $input) {
							success
							comment { id }
						}
					}`, map[string]any{"input": map[string]any{"issueId": id, "body": body}})
				if err != nil {
					return err
				}
				if ok, _ := api.PathBool(result, "data", "commentCreate", "success"); !ok {
					return apperr.General("Failed to comment on issue: " + id)
				}
				if !a.quiet {
					fmt.Fprintf(a.stdout, "Commented on %s\n", id)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&body, "body", "b", "", "Comment body in markdown (- reads from stdin)")
	return cmd
}
