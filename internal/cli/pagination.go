package cli

import (
	"github.com/spf13/pflag"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
)

// paginationFlags is the flag set shared by every list command.
type paginationFlags struct {
	limit    int
	all      bool
	after    string
	before   string
	pageSize int
}

func (p *paginationFlags) register(f *pflag.FlagSet) {
	f.IntVarP(&p.limit, "limit", "n", 0, "Maximum number of items to fetch")
	f.BoolVar(&p.all, "all", false, "Fetch every page")
	f.StringVar(&p.after, "after", "", "Start after this cursor")
	f.StringVar(&p.before, "before", "", "Page backwards before this cursor")
	f.IntVar(&p.pageSize, "page-size", 0, "Items per request")
}

func (p *paginationFlags) options() api.PaginateOptions {
	return api.PaginateOptions{
		Limit:    p.limit,
		All:      p.all,
		After:    p.after,
		Before:   p.before,
		PageSize: p.pageSize,
	}
}
