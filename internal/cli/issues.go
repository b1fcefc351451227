package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/dates"
	"github.com/ink-splatters/linear-cli-sub001/internal/input"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
	"github.com/ink-splatters/linear-cli-sub001/internal/text"
)

const issueFields = `
	id
	identifier
	title
	description
	priority
	estimate
	dueDate
	url
	createdAt
	updatedAt
	state { id name type }
	assignee { id name email }
	team { id key name }
	labels { nodes { id name } }
	project { id name }`

const defaultIssueLimit = 50

func (a *App) issuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue", "i"},
		Short:   "Manage issues",
	}
	cmd.AddCommand(
		a.issuesListCmd(),
		a.issuesGetCmd(),
		a.issuesCreateCmd(),
		a.issuesUpdateCmd(),
		a.issuesCloseCmd(),
		a.issuesDeleteCmd(),
	)
	return cmd
}

func (a *App) issuesListCmd() *cobra.Command {
	var (
		team      string
		state     string
		assignee  string
		mine      bool
		project   string
		label     string
		countOnly bool
		page      paginationFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			meta := a.metaCache()

			if mine {
				assignee = "me"
			}

			filter := map[string]any{}
			if team != "" {
				id, err := api.ResolveTeamID(ctx, client, team, meta)
				if err != nil {
					return err
				}
				filter["team"] = map[string]any{"id": map[string]any{"eq": id}}
			}
			if state != "" {
				filter["state"] = map[string]any{"name": map[string]any{"eqIgnoreCase": state}}
			}
			if assignee != "" {
				id, err := api.ResolveUserID(ctx, client, assignee, meta)
				if err != nil {
					return err
				}
				filter["assignee"] = map[string]any{"id": map[string]any{"eq": id}}
			}
			if project != "" {
				id, err := api.ResolveProjectID(ctx, client, project, meta)
				if err != nil {
					return err
				}
				filter["project"] = map[string]any{"id": map[string]any{"eq": id}}
			}
			if label != "" {
				filter["labels"] = map[string]any{"name": map[string]any{"eqIgnoreCase": label}}
			}

			query := fmt.Sprintf(`
				query($filter: IssueFilter, $first: Int, $after: String, $last: Int, $before: String) {
					issues(filter: $filter, first: $first, after: $after, last: $last, before: $before) {
						nodes {%s}
						pageInfo { hasNextPage endCursor hasPreviousPage startCursor }
					}
				}`, issueFields)

			vars := map[string]any{}
			if len(filter) > 0 {
				vars["filter"] = filter
			}
			issues, err := api.Paginate(ctx, client, query, vars,
				[]string{"data", "issues", "nodes"},
				[]string{"data", "issues", "pageInfo"},
				page.options().WithDefaultLimit(defaultIssueLimit), defaultIssueLimit)
			if err != nil {
				return err
			}

			if countOnly {
				_, err := fmt.Fprintln(a.stdout, len(issues))
				return err
			}
			return a.printIssues(issues)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&team, "team", "t", "", "Filter by team key or name")
	f.StringVarP(&state, "state", "s", "", "Filter by workflow state name")
	f.StringVarP(&assignee, "assignee", "a", "", "Filter by assignee name, email, or 'me'")
	f.BoolVar(&mine, "mine", false, "Only issues assigned to you")
	f.StringVar(&project, "project", "", "Filter by project name")
	f.StringVarP(&label, "label", "l", "", "Filter by label name")
	f.BoolVar(&countOnly, "count", false, "Print only the number of matching issues")
	page.register(f)
	return cmd
}

func (a *App) issuesGetCmd() *cobra.Command {
	var withComments bool
	cmd := &cobra.Command{
		Use:   "get [id...]",
		Short: "Show one or more issues (pass - to read IDs from stdin)",
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

			var issues []any
			for _, id := range ids {
				issue, err := fetchIssue(ctx, client, id, withComments)
				if err != nil {
					return err
				}
				issues = append(issues, issue)
			}

			if a.outputOptions().IsJSON() {
				if len(issues) == 1 {
					return a.printJSON(issues[0])
				}
				return a.printJSON(issues)
			}
			for i, issue := range issues {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				a.printIssueDetail(issue)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withComments, "comments", false, "Include issue comments")
	return cmd
}

func fetchIssue(ctx context.Context, client *api.Client, id string, withComments bool) (map[string]any, error) {
	fields := issueFields
	if withComments {
		fields += `
	comments { nodes { id body createdAt user { name } } }`
	}
	query := fmt.Sprintf(`
		query($id: String!) {
			issue(id: $id) {%s}
		}`, fields)
	result, err := client.Query(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	issueAny, ok := api.Path(result, "data", "issue")
	issue, isMap := issueAny.(map[string]any)
	if !ok || !isMap || issue == nil {
		return nil, apperr.NotFound("Issue not found: " + id)
	}
	return issue, nil
}

func (a *App) issuesCreateCmd() *cobra.Command {
	var (
		team        string
		description string
		priority    int
		state       string
		assignee    string
		labels      []string
		dueDate     string
		estimate    float64
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an issue",
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
			meta := a.metaCache()

			inp := map[string]any{"title": args[0]}
			teamID, err := api.ResolveTeamID(ctx, client, team, meta)
			if err != nil {
				return err
			}
			inp["teamId"] = teamID

			if description == "-" {
				body, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("reading description from stdin: %w", err)
				}
				description = strings.TrimRight(string(body), "\n")
			}
			if description != "" {
				inp["description"] = description
			}
			if cmd.Flags().Changed("priority") {
				if priority < 0 || priority > 4 {
					return apperr.General("Priority must be between 0 (none) and 4 (low)")
				}
				inp["priority"] = priority
			}
			if state != "" {
				stateID, err := api.ResolveStateID(ctx, client, teamID, state, meta)
				if err != nil {
					return err
				}
				inp["stateId"] = stateID
			}
			if assignee != "" {
				userID, err := api.ResolveUserID(ctx, client, assignee, meta)
				if err != nil {
					return err
				}
				inp["assigneeId"] = userID
			}
			if len(labels) > 0 {
				labelIDs, err := resolveLabelIDs(ctx, client, labels, meta)
				if err != nil {
					return err
				}
				inp["labelIds"] = labelIDs
			}
			if dueDate != "" {
				due, ok := dates.ParseDueDate(dueDate)
				if !ok {
					return apperr.General("Invalid due date: " + dueDate)
				}
				inp["dueDate"] = due
			}
			if cmd.Flags().Changed("estimate") {
				inp["estimate"] = estimate
			}

			result, err := client.Query(ctx, fmt.Sprintf(`
				mutation($input: IssueCreateInput!) {
					issueCreate(input: $input) {
						success
						issue {%s}
					}
				}`, issueFields), map[string]any{"input": inp})
			if err != nil {
				return err
			}
			issueAny, _ := api.Path(result, "data", "issueCreate", "issue")
			issue, _ := issueAny.(map[string]any)
			if issue == nil {
				return apperr.General("Issue creation failed")
			}
			if a.outputOptions().IsJSON() && !a.idOnly {
				return a.printJSON(issue)
			}
			identifier := api.String(issue, "identifier", "")
			url := api.String(issue, "url", "")
			return a.printResult(identifier, fmt.Sprintf("Created %s: %s", identifier, url))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&team, "team", "t", "", "Team key or name (required)")
	f.StringVarP(&description, "description", "d", "", "Issue description (- reads from stdin)")
	f.IntVarP(&priority, "priority", "p", 0, "Priority: 0 none, 1 urgent, 2 high, 3 normal, 4 low")
	f.StringVarP(&state, "state", "s", "", "Initial workflow state")
	f.StringVarP(&assignee, "assignee", "a", "", "Assignee name, email, or 'me'")
	f.StringSliceVarP(&labels, "label", "l", nil, "Label to apply (repeatable)")
	f.StringVar(&dueDate, "due-date", "", "Due date (YYYY-MM-DD, 'friday', '+3d', ...)")
	f.Float64VarP(&estimate, "estimate", "e", 0, "Estimate in points")
	return cmd
}

func (a *App) issuesUpdateCmd() *cobra.Command {
	var (
		title       string
		description string
		priority    int
		state       string
		assignee    string
		labels      []string
		dueDate     string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}
			meta := a.metaCache()

			inp := map[string]any{}
			if title != "" {
				inp["title"] = title
			}
			if cmd.Flags().Changed("description") {
				inp["description"] = description
			}
			if cmd.Flags().Changed("priority") {
				if priority < 0 || priority > 4 {
					return apperr.General("Priority must be between 0 (none) and 4 (low)")
				}
				inp["priority"] = priority
			}
			if assignee != "" {
				userID, err := api.ResolveUserID(ctx, client, assignee, meta)
				if err != nil {
					return err
				}
				inp["assigneeId"] = userID
			}
			if len(labels) > 0 {
				labelIDs, err := resolveLabelIDs(ctx, client, labels, meta)
				if err != nil {
					return err
				}
				inp["labelIds"] = labelIDs
			}
			if dueDate != "" {
				due, ok := dates.ParseDueDate(dueDate)
				if !ok {
					return apperr.General("Invalid due date: " + dueDate)
				}
				inp["dueDate"] = due
			}
			if state != "" {
				// State names are team-scoped, so look up the issue's
				// team first.
				issue, err := fetchIssue(ctx, client, args[0], false)
				if err != nil {
					return err
				}
				teamID, ok := api.PathString(issue, "team", "id")
				if !ok {
					return apperr.General("Could not determine issue team")
				}
				stateID, err := api.ResolveStateID(ctx, client, teamID, state, meta)
				if err != nil {
					return err
				}
				inp["stateId"] = stateID
			}
			if len(inp) == 0 {
				return apperr.General("Nothing to update - pass at least one flag")
			}

			issue, err := updateIssue(ctx, client, args[0], inp)
			if err != nil {
				return err
			}
			if a.outputOptions().IsJSON() && !a.idOnly {
				return a.printJSON(issue)
			}
			identifier := api.String(issue, "identifier", args[0])
			return a.printResult(identifier, "Updated "+identifier)
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "New title")
	f.StringVarP(&description, "description", "d", "", "New description")
	f.IntVarP(&priority, "priority", "p", 0, "Priority: 0 none, 1 urgent, 2 high, 3 normal, 4 low")
	f.StringVarP(&state, "state", "s", "", "New workflow state")
	f.StringVarP(&assignee, "assignee", "a", "", "New assignee name, email, or 'me'")
	f.StringSliceVarP(&labels, "label", "l", nil, "Replace labels (repeatable)")
	f.StringVar(&dueDate, "due-date", "", "New due date")
	return cmd
}

func updateIssue(ctx context.Context, client *api.Client, id string, inp map[string]any) (map[string]any, error) {
	result, err := client.Query(ctx, fmt.Sprintf(`
		mutation($id: String!, $input: IssueUpdateInput!) {
			issueUpdate(id: $id, input: $input) {
				success
				issue {%s}
			}
		}`, issueFields), map[string]any{"id": id, "input": inp})
	if err != nil {
		return nil, err
	}
	issueAny, _ := api.Path(result, "data", "issueUpdate", "issue")
	issue, _ := issueAny.(map[string]any)
	if issue == nil {
		return nil, apperr.NotFound("Issue not found: " + id)
	}
	return issue, nil
}

func (a *App) issuesCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close [id...]",
		Short: "Move issues to their team's completed state (pass - to read IDs from stdin)",
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

			// Completed-state UUID per team, resolved once.
			doneStates := map[string]string{}
			for _, id := range ids {
				issue, err := fetchIssue(ctx, client, id, false)
				if err != nil {
					return err
				}
				teamID, ok := api.PathString(issue, "team", "id")
				if !ok {
					return apperr.General("Could not determine team for issue: " + id)
				}
				stateID, ok := doneStates[teamID]
				if !ok {
					stateID, err = completedStateID(ctx, client, teamID)
					if err != nil {
						return err
					}
					doneStates[teamID] = stateID
				}
				if _, err := updateIssue(ctx, client, id, map[string]any{"stateId": stateID}); err != nil {
					return err
				}
				if !a.quiet {
					fmt.Fprintf(a.stdout, "Closed %s\n", api.String(issue, "identifier", id))
				}
			}
			return nil
		},
	}
}

// completedStateID finds the team's first workflow state of type
// "completed".
func completedStateID(ctx context.Context, client *api.Client, teamID string) (string, error) {
	result, err := client.Query(ctx, `
		query($teamId: String!) {
			team(id: $teamId) {
				states { nodes { id name type position } }
			}
		}`, map[string]any{"teamId": teamID})
	if err != nil {
		return "", err
	}
	states, _ := api.PathArray(result, "data", "team", "states", "nodes")
	for _, s := range states {
		if kind, _ := api.PathString(s, "type"); kind == "completed" {
			if id, ok := api.PathString(s, "id"); ok {
				return id, nil
			}
		}
	}
	return "", apperr.NotFound("Team has no completed workflow state")
}

func (a *App) issuesDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete issues (pass - to read IDs from stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := input.FromReader(args, a.stdin)
			if len(ids) == 0 {
				return apperr.General("No issue IDs provided. Pass IDs as arguments or pipe them via stdin.")
			}
			if !force {
				ok, err := a.confirm(fmt.Sprintf("Delete %d issue(s)?", len(ids)))
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
			for _, id := range ids {
				result, err := client.Query(ctx, `
					mutation($id: String!) {
						issueDelete(id: $id) { success }
					}`, map[string]any{"id": id})
				if err != nil {
					return err
				}
				if ok, _ := api.PathBool(result, "data", "issueDelete", "success"); !ok {
					return apperr.General("Failed to delete issue: " + id)
				}
				if !a.quiet {
					fmt.Fprintf(a.stdout, "Deleted %s\n", id)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

// confirm prompts interactively. Quiet mode declines instead of
// hanging a non-interactive session.
func (a *App) confirm(title string) (bool, error) {
	if a.confirmOverride != nil {
		return a.confirmOverride(title), nil
	}
	if a.quiet {
		return false, apperr.General("Confirmation required - re-run with --force")
	}
	var ok bool
	err := huh.NewConfirm().Title(title).Value(&ok).Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func resolveLabelIDs(ctx context.Context, client *api.Client, labels []string, meta api.MetadataCache) ([]string, error) {
	ids := make([]string, 0, len(labels))
	for _, label := range labels {
		id, err := api.ResolveLabelID(ctx, client, label, meta)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *App) printIssues(issues []any) error {
	opts := a.outputOptions()
	if opts.IsJSON() {
		return a.printJSON(issues)
	}
	rows := make([][]string, 0, len(issues))
	for _, item := range issues {
		issue, ok := item.(map[string]any)
		if !ok {
			continue
		}
		assignee := api.String(issue["assignee"], "name", "-")
		state := api.String(issue["state"], "name", "-")
		rows = append(rows, []string{
			api.String(issue, "identifier", "-"),
			text.Truncate(api.String(issue, "title", ""), 60),
			state,
			output.Priority(issue["priority"]),
			assignee,
		})
	}
	fmt.Fprintln(a.stdout, output.Table([]string{"ID", "Title", "State", "Priority", "Assignee"}, rows))
	if !opts.Quiet {
		fmt.Fprintf(a.stderr, "%d issue(s)\n", len(rows))
	}
	return nil
}

func (a *App) printIssueDetail(item any) {
	issue, ok := item.(map[string]any)
	if !ok {
		return
	}
	w := a.stdout
	fmt.Fprintf(w, "%s  %s\n", api.String(issue, "identifier", "-"), api.String(issue, "title", ""))
	fmt.Fprintf(w, "State:    %s\n", api.String(issue["state"], "name", "-"))
	fmt.Fprintf(w, "Priority: %s\n", output.Priority(issue["priority"]))
	fmt.Fprintf(w, "Assignee: %s\n", api.String(issue["assignee"], "name", "-"))
	fmt.Fprintf(w, "Team:     %s\n", api.String(issue["team"], "name", "-"))
	if due := api.String(issue, "dueDate", ""); due != "" {
		fmt.Fprintf(w, "Due:      %s\n", due)
	}
	if labels, ok := api.PathArray(issue, "labels", "nodes"); ok && len(labels) > 0 {
		names := make([]string, 0, len(labels))
		for _, l := range labels {
			names = append(names, api.String(l, "name", ""))
		}
		fmt.Fprintf(w, "Labels:   %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "URL:      %s\n", api.String(issue, "url", ""))
	if desc := api.String(issue, "description", ""); desc != "" {
		fmt.Fprintf(w, "\n%s\n", text.StripMarkdown(desc))
	}
	if comments, ok := api.PathArray(issue, "comments", "nodes"); ok {
		fmt.Fprintf(w, "\nComments (%d):\n", len(comments))
		for _, c := range comments {
			user, _ := api.Path(c, "user")
			author := api.String(user, "name", "-")
			created := api.String(c, "createdAt", "")
			fmt.Fprintf(w, "- %s (%s): %s\n", author, created,
				text.Truncate(api.String(c, "body", ""), 120))
		}
	}
}
