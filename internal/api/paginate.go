package api

import (
	"context"
)

// PaginateOptions carries the pagination flags shared by list commands.
type PaginateOptions struct {
	// Limit caps the total number of items. Zero means "use the
	// command's default" unless All is set.
	Limit int

	// After and Before are opaque cursors. When both are set, Before
	// is ignored and paging goes forward.
	After  string
	Before string

	// PageSize overrides the per-request batch size.
	PageSize int

	// All fetches every page, ignoring Limit.
	All bool
}

// WithDefaultLimit returns a copy with Limit filled in when neither
// --all nor an explicit limit was given.
func (o PaginateOptions) WithDefaultLimit(defaultLimit int) PaginateOptions {
	if !o.All && o.Limit == 0 {
		o.Limit = defaultLimit
	}
	return o
}

func (o PaginateOptions) effectivePageSize(defaultPageSize int) int {
	size := o.PageSize
	if size == 0 {
		size = defaultPageSize
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Paginate walks a Relay-style connection, collecting nodes until the
// limit is reached or the cursor chain ends. nodesPath and
// pageInfoPath address into the response (e.g. "data", "issues",
// "nodes").
func Paginate(
	ctx context.Context,
	client *Client,
	query string,
	variables map[string]any,
	nodesPath []string,
	pageInfoPath []string,
	opts PaginateOptions,
	defaultPageSize int,
) ([]any, error) {
	vars := map[string]any{}
	for k, v := range variables {
		vars[k] = v
	}

	var items []any
	limit := 0
	if !opts.All {
		limit = opts.Limit
	}
	after := opts.After
	before := opts.Before
	forward := before == ""
	if opts.After != "" && opts.Before != "" {
		before = ""
		forward = true
	}
	pageSize := opts.effectivePageSize(defaultPageSize)

	for {
		batch := pageSize
		if limit > 0 {
			if remaining := limit - len(items); remaining < batch {
				batch = remaining
			}
		}
		if batch < 1 {
			batch = 1
		}

		if forward {
			vars["first"] = batch
			if after != "" {
				vars["after"] = after
			} else {
				delete(vars, "after")
			}
			delete(vars, "last")
			delete(vars, "before")
		} else {
			vars["last"] = batch
			if before != "" {
				vars["before"] = before
			} else {
				delete(vars, "before")
			}
			delete(vars, "first")
			delete(vars, "after")
		}

		result, err := client.Query(ctx, query, vars)
		if err != nil {
			return nil, err
		}

		if nodes, ok := PathArray(result, nodesPath...); ok {
			items = append(items, nodes...)
		}

		if limit > 0 && len(items) >= limit {
			items = items[:limit]
			break
		}

		// A bare single-page request stops after one fetch.
		if !opts.All && opts.Limit == 0 {
			break
		}

		pageInfo, ok := Path(result, pageInfoPath...)
		if !ok {
			break
		}

		if forward {
			hasNext, _ := PathBool(pageInfo, "hasNextPage")
			if !hasNext {
				break
			}
			cursor, ok := PathString(pageInfo, "endCursor")
			if !ok || cursor == "" {
				break
			}
			after = cursor
		} else {
			hasPrev, _ := PathBool(pageInfo, "hasPreviousPage")
			if !hasPrev {
				break
			}
			cursor, ok := PathString(pageInfo, "startCursor")
			if !ok || cursor == "" {
				break
			}
			before = cursor
		}
	}

	return items, nil
}
