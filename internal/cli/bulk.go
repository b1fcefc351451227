package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/input"
)

func (a *App) bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one change to many issues (IDs as arguments or - for stdin)",
	}
	cmd.AddCommand(
		a.bulkUpdateStateCmd(),
		a.bulkAssignCmd(),
		a.bulkUnassignCmd(),
		a.bulkLabelCmd(),
	)
	return cmd
}

// bulkResult is the per-issue outcome reported in JSON mode.
type bulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// runBulk applies update to every issue, continuing past failures so a
// partial batch still lands.
func (a *App) runBulk(ctx context.Context, ids []string, update func(ctx context.Context, id string) error) error {
	results := make([]bulkResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		err := update(ctx, id)
		r := bulkResult{ID: id, Success: err == nil}
		if err != nil {
			r.Error = err.Error()
			failed++
		}
		results = append(results, r)
	}

	if a.outputOptions().IsJSON() {
		items := make([]any, len(results))
		for i, r := range results {
			items[i] = map[string]any{"id": r.ID, "success": r.Success, "error": r.Error}
		}
		if err := a.printJSON(items); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Success {
				fmt.Fprintf(a.stdout, "ok   %s\n", r.ID)
			} else {
				fmt.Fprintf(a.stdout, "fail %s: %s\n", r.ID, r.Error)
			}
		}
		if !a.quiet {
			fmt.Fprintf(a.stderr, "%d succeeded, %d failed\n", len(results)-failed, failed)
		}
	}
	if failed > 0 {
		return apperr.General(fmt.Sprintf("%d of %d updates failed", failed, len(ids)))
	}
	return nil
}

func (a *App) bulkIssueUpdate(ctx context.Context, client *api.Client, id string, inp map[string]any) error {
	result, err := client.Query(ctx, `
		mutation($id: String!, $input: IssueUpdateInput!) {
			issueUpdate(id: $id, input: $input) { success }
		}`, map[string]any{"id": id, "input": inp})
	if err != nil {
		return err
	}
	if ok, _ := api.PathBool(result, "data", "issueUpdate", "success"); !ok {
		return apperr.General("update rejected")
	}
	return nil
}

func (a *App) bulkUpdateStateCmd() *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "update-state [id...]",
		Short: "Move issues to a workflow state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if state == "" {
				return apperr.General("--state is required")
			}
			ids := input.FromReader(args, a.stdin)
			if len(ids) == 0 {
				return apperr.General("No issue IDs provided. Pass IDs as arguments or pipe them via stdin.")
			}
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}

			// States are team-scoped, so the state name is resolved per
			// issue against that issue's team.
			meta := a.metaCache()
			stateCache := map[string]string{}
			return a.runBulk(ctx, ids, func(ctx context.Context, id string) error {
				issue, err := fetchIssue(ctx, client, id, false)
				if err != nil {
					return err
				}
				teamID, ok := api.PathString(issue, "team", "id")
				if !ok {
					return apperr.General("could not determine issue team")
				}
				stateID, ok := stateCache[teamID]
				if !ok {
					stateID, err = api.ResolveStateID(ctx, client, teamID, state, meta)
					if err != nil {
						return err
					}
					stateCache[teamID] = stateID
				}
				return a.bulkIssueUpdate(ctx, client, id, map[string]any{"stateId": stateID})
			})
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "Target workflow state name")
	return cmd
}

func (a *App) bulkAssignCmd() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "assign [id...]",
		Short: "Assign issues to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if assignee == "" {
				return apperr.General("--assignee is required")
			}
			ids := input.FromReader(args, a.stdin)
			if len(ids) == 0 {
				return apperr.General("No issue IDs provided. Pass IDs as arguments or pipe them via stdin.")
			}
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			userID, err := api.ResolveUserID(ctx, client, assignee, a.metaCache())
			if err != nil {
				return err
			}
			return a.runBulk(ctx, ids, func(ctx context.Context, id string) error {
				return a.bulkIssueUpdate(ctx, client, id, map[string]any{"assigneeId": userID})
			})
		},
	}
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "Assignee name, email, or 'me'")
	return cmd
}

func (a *App) bulkUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign [id...]",
		Short: "Remove the assignee from issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := input.FromReader(args, a.stdin)
			if len(ids) == 0 {
				return apperr.General("No issue IDs provided. Pass IDs as arguments or pipe them via stdin.")
			}
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			return a.runBulk(ctx, ids, func(ctx context.Context, id string) error {
				return a.bulkIssueUpdate(ctx, client, id, map[string]any{"assigneeId": nil})
			})
		},
	}
}

func (a *App) bulkLabelCmd() *cobra.Command {
	var labels []string
	cmd := &cobra.Command{
		Use:   "label [id...]",
		Short: "Add labels to issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(labels) == 0 {
				return apperr.General("--label is required")
			}
			ids := input.FromReader(args, a.stdin)
			if len(ids) == 0 {
				return apperr.General("No issue IDs provided. Pass IDs as arguments or pipe them via stdin.")
			}
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			labelIDs, err := resolveLabelIDs(ctx, client, labels, a.metaCache())
			if err != nil {
				return err
			}
			return a.runBulk(ctx, ids, func(ctx context.Context, id string) error {
				return a.bulkIssueUpdate(ctx, client, id, map[string]any{"addedLabelIds": labelIDs})
			})
		},
	}
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Label to add (repeatable)")
	return cmd
}
