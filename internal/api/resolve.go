package api

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/cache"
	"github.com/ink-splatters/linear-cli-sub001/internal/text"
)

// MetadataCache is the subset of the cache the resolvers need.
// *cache.Cache satisfies it; a nil-returning stub disables caching.
type MetadataCache interface {
	Get(ctx context.Context, kind cache.Kind) (json.RawMessage, bool)
	Set(ctx context.Context, kind cache.Kind, data json.RawMessage) error
}

// resolverSpec drives the shared resolution strategy: try the cache,
// then a filtered query, then a full paginated scan.
type resolverSpec struct {
	kind            cache.Kind
	filteredQuery   string
	filteredVarName string
	filteredPath    []string
	paginatedQuery  string
	paginatedPath   []string
	pageInfoPath    []string
	notFound        string
	find            func(nodes []any, input string) (string, bool)
}

func resolveID(ctx context.Context, client *Client, input string, meta MetadataCache, spec resolverSpec) (string, error) {
	if meta != nil {
		if raw, ok := meta.Get(ctx, spec.kind); ok {
			var nodes []any
			if err := json.Unmarshal(raw, &nodes); err == nil {
				if id, ok := spec.find(nodes, input); ok {
					return id, nil
				}
			}
		}
	}

	// Filtered query first: one round trip for the common case.
	result, err := client.Query(ctx, spec.filteredQuery, map[string]any{spec.filteredVarName: input})
	if err != nil {
		return "", err
	}
	if nodes, ok := PathArray(result, spec.filteredPath...); ok {
		if id, ok := spec.find(nodes, input); ok {
			return id, nil
		}
	}

	// Fall back to a full paginated scan, and cache it for next time.
	all, err := Paginate(ctx, client, spec.paginatedQuery, nil,
		spec.paginatedPath, spec.pageInfoPath,
		PaginateOptions{All: true, PageSize: 250}, 250)
	if err != nil {
		return "", err
	}

	if meta != nil {
		if raw, err := json.Marshal(all); err == nil {
			_ = meta.Set(ctx, spec.kind, raw)
		}
	}

	if id, ok := spec.find(all, input); ok {
		return id, nil
	}
	return "", apperr.NotFound(spec.notFound)
}

// ResolveTeamID resolves a team key (like "ENG") or name to a UUID.
// UUIDs pass through untouched.
func ResolveTeamID(ctx context.Context, client *Client, team string, meta MetadataCache) (string, error) {
	if text.IsUUID(team) {
		return team, nil
	}
	return resolveID(ctx, client, team, meta, resolverSpec{
		kind: cache.Teams,
		filteredQuery: `
			query($team: String!) {
				teams(first: 50, filter: { or: [{ key: { eqIgnoreCase: $team } }, { name: { eqIgnoreCase: $team } }] }) {
					nodes { id key name }
				}
			}`,
		filteredVarName: "team",
		filteredPath:    []string{"data", "teams", "nodes"},
		paginatedQuery: `
			query($first: Int, $after: String) {
				teams(first: $first, after: $after) {
					nodes { id key name }
					pageInfo { hasNextPage endCursor }
				}
			}`,
		paginatedPath: []string{"data", "teams", "nodes"},
		pageInfoPath:  []string{"data", "teams", "pageInfo"},
		notFound:      "Team not found: " + team + ". Use linear teams list to see available teams.",
		find:          findTeamID,
	})
}

// ResolveUserID resolves "me", a name, or an email to a user UUID.
func ResolveUserID(ctx context.Context, client *Client, user string, meta MetadataCache) (string, error) {
	if strings.EqualFold(user, "me") {
		result, err := client.Query(ctx, `query { viewer { id } }`, nil)
		if err != nil {
			return "", err
		}
		id, ok := PathString(result, "data", "viewer", "id")
		if !ok {
			return "", apperr.General("Could not fetch current user ID")
		}
		return id, nil
	}
	if text.IsUUID(user) {
		return user, nil
	}
	return resolveID(ctx, client, user, meta, resolverSpec{
		kind: cache.Users,
		filteredQuery: `
			query($user: String!) {
				users(first: 50, filter: { or: [{ name: { eqIgnoreCase: $user } }, { email: { eqIgnoreCase: $user } }] }) {
					nodes { id name email }
				}
			}`,
		filteredVarName: "user",
		filteredPath:    []string{"data", "users", "nodes"},
		paginatedQuery: `
			query($first: Int, $after: String) {
				users(first: $first, after: $after) {
					nodes { id name email }
					pageInfo { hasNextPage endCursor }
				}
			}`,
		paginatedPath: []string{"data", "users", "nodes"},
		pageInfoPath:  []string{"data", "users", "pageInfo"},
		notFound:      "User not found: " + user,
		find:          findUserID,
	})
}

// ResolveLabelID resolves a label name to a UUID.
func ResolveLabelID(ctx context.Context, client *Client, label string, meta MetadataCache) (string, error) {
	if text.IsUUID(label) {
		return label, nil
	}
	return resolveID(ctx, client, label, meta, resolverSpec{
		kind: cache.Labels,
		filteredQuery: `
			query($label: String!) {
				issueLabels(first: 50, filter: { name: { eqIgnoreCase: $label } }) {
					nodes { id name }
				}
			}`,
		filteredVarName: "label",
		filteredPath:    []string{"data", "issueLabels", "nodes"},
		paginatedQuery: `
			query($first: Int, $after: String) {
				issueLabels(first: $first, after: $after) {
					nodes { id name }
					pageInfo { hasNextPage endCursor }
				}
			}`,
		paginatedPath: []string{"data", "issueLabels", "nodes"},
		pageInfoPath:  []string{"data", "issueLabels", "pageInfo"},
		notFound:      "Label not found: " + label,
		find:          findLabelID,
	})
}

// ResolveProjectID resolves a project name or slug to a UUID.
func ResolveProjectID(ctx context.Context, client *Client, project string, meta MetadataCache) (string, error) {
	if text.IsUUID(project) {
		return project, nil
	}
	return resolveID(ctx, client, project, meta, resolverSpec{
		kind: cache.Projects,
		filteredQuery: `
			query($project: String!) {
				projects(first: 50, filter: { name: { eqIgnoreCase: $project } }) {
					nodes { id name slugId }
				}
			}`,
		filteredVarName: "project",
		filteredPath:    []string{"data", "projects", "nodes"},
		paginatedQuery: `
			query($first: Int, $after: String) {
				projects(first: $first, after: $after) {
					nodes { id name slugId }
					pageInfo { hasNextPage endCursor }
				}
			}`,
		paginatedPath: []string{"data", "projects", "nodes"},
		pageInfoPath:  []string{"data", "projects", "pageInfo"},
		notFound:      "Project not found: " + project + ". Use linear projects list to see available projects.",
		find:          findProjectID,
	})
}

// ResolveStateID resolves a workflow state name within a team. States
// are team-scoped in Linear, so the team UUID is required; the state
// list is cached per team.
func ResolveStateID(ctx context.Context, client *Client, teamID, state string, meta MetadataCache) (string, error) {
	if text.IsUUID(state) {
		return state, nil
	}

	kind := cache.StatusesFor(teamID)
	if meta != nil {
		if raw, ok := meta.Get(ctx, kind); ok {
			var nodes []any
			if err := json.Unmarshal(raw, &nodes); err == nil {
				if id, ok := findStateID(nodes, state); ok {
					return id, nil
				}
			}
		}
	}

	result, err := client.Query(ctx, `
		query($teamId: String!) {
			team(id: $teamId) {
				states { nodes { id name type } }
			}
		}`, map[string]any{"teamId": teamID})
	if err != nil {
		return "", err
	}
	states, _ := PathArray(result, "data", "team", "states", "nodes")

	if meta != nil {
		if raw, err := json.Marshal(states); err == nil {
			_ = meta.Set(ctx, kind, raw)
		}
	}

	if id, ok := findStateID(states, state); ok {
		return id, nil
	}
	return "", apperr.NotFound("State '" + state + "' not found for team")
}

func findStateID(states []any, state string) (string, bool) {
	for _, s := range states {
		if name, ok := PathString(s, "name"); ok && strings.EqualFold(name, state) {
			if id, ok := PathString(s, "id"); ok {
				return id, true
			}
		}
	}
	return "", false
}

func findTeamID(teams []any, team string) (string, bool) {
	for _, t := range teams {
		if key, ok := PathString(t, "key"); ok && strings.EqualFold(key, team) {
			if id, ok := PathString(t, "id"); ok {
				return id, true
			}
		}
	}
	for _, t := range teams {
		if name, ok := PathString(t, "name"); ok && strings.EqualFold(name, team) {
			if id, ok := PathString(t, "id"); ok {
				return id, true
			}
		}
	}
	return "", false
}

func findUserID(users []any, user string) (string, bool) {
	for _, u := range users {
		name, _ := PathString(u, "name")
		email, _ := PathString(u, "email")
		if strings.EqualFold(name, user) || strings.EqualFold(email, user) {
			if id, ok := PathString(u, "id"); ok {
				return id, true
			}
		}
	}
	return "", false
}

func findLabelID(labels []any, label string) (string, bool) {
	for _, l := range labels {
		if name, ok := PathString(l, "name"); ok && strings.EqualFold(name, label) {
			if id, ok := PathString(l, "id"); ok {
				return id, true
			}
		}
	}
	return "", false
}

func findProjectID(projects []any, project string) (string, bool) {
	for _, p := range projects {
		if name, ok := PathString(p, "name"); ok && strings.EqualFold(name, project) {
			if id, ok := PathString(p, "id"); ok {
				return id, true
			}
		}
	}
	for _, p := range projects {
		if slug, ok := PathString(p, "slugId"); ok && strings.EqualFold(slug, project) {
			if id, ok := PathString(p, "id"); ok {
				return id, true
			}
		}
	}
	return "", false
}
