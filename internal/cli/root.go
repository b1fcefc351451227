// Package cli wires the command tree for the linear binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/cache"
	"github.com/ink-splatters/linear-cli-sub001/internal/config"
	"github.com/ink-splatters/linear-cli-sub001/internal/oauth"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

// BuildInfo carries the ldflags version variables from main.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App holds the global flag state and the streams commands write to.
type App struct {
	build BuildInfo

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	// Global flags.
	formatFlag string
	quiet      bool
	idOnly     bool
	compact    bool
	fields     []string
	sortBy     string
	orderFlag  string
	noCache    bool
	cacheTTL   time.Duration
	noRetry    bool

	// Test seams. When nil the real implementations are used.
	clientOverride  *api.Client
	cacheOverride   api.MetadataCache
	confirmOverride func(title string) bool
}

// NewRootCmd builds the full command tree.
func NewRootCmd(build BuildInfo) *cobra.Command {
	app := &App{
		build:  build,
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	}
	return app.rootCmd()
}

func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linear",
		Short:         "A CLI for Linear.app - manage issues, projects, and more from your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if _, err := output.ParseFormat(a.formatFlag); err != nil {
				return err
			}
			level := slog.LevelInfo
			if a.quiet {
				level = slog.LevelError
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
				Level: level,
			})))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.formatFlag, "output", "o", "table", "Output format (table or json)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress decorative output - for scripting")
	pf.BoolVar(&a.idOnly, "id-only", false, "Only output IDs of created/updated resources")
	pf.BoolVar(&a.compact, "compact", false, "Single-line JSON output")
	pf.StringSliceVar(&a.fields, "fields", nil, "Restrict JSON output to these dotted paths")
	pf.StringVar(&a.sortBy, "sort", "", "Sort JSON arrays by this field")
	pf.StringVar(&a.orderFlag, "order", "asc", "Sort order (asc or desc)")
	pf.BoolVar(&a.noCache, "no-cache", false, "Bypass the metadata cache")
	pf.DurationVar(&a.cacheTTL, "cache-ttl", 0, "Metadata cache TTL (default 1h)")
	pf.BoolVar(&a.noRetry, "no-retry", false, "Fail immediately instead of retrying transient errors")

	root.AddCommand(
		a.versionCmd(),
		a.authCmd(),
		a.configCmd(),
		a.issuesCmd(),
		a.teamsCmd(),
		a.usersCmd(),
		a.labelsCmd(),
		a.statusesCmd(),
		a.projectsCmd(),
		a.commentsCmd(),
		a.searchCmd(),
		a.bulkCmd(),
		a.cacheCmd(),
		a.watchCmd(),
		a.apiCmd(),
	)
	return root
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "linear %s (commit: %s, built: %s)\n",
				a.build.Version, a.build.Commit, a.build.Date)
		},
	}
}

// outputOptions snapshots the global flags.
func (a *App) outputOptions() output.Options {
	format, _ := output.ParseFormat(a.formatFlag)
	order := output.Asc
	if a.orderFlag == string(output.Desc) {
		order = output.Desc
	}
	return output.Options{
		Format: format,
		Quiet:  a.quiet,
		IDOnly: a.idOnly,
		JSON: output.JSONOptions{
			Compact:     a.compact,
			Fields:      a.fields,
			Sort:        a.sortBy,
			Order:       order,
			DefaultSort: true,
		},
	}
}

func (a *App) cacheOptions() cache.Options {
	return cache.Options{TTL: a.cacheTTL, Disabled: a.noCache}
}

// client builds the API client from the resolved credential,
// refreshing near-expiry OAuth tokens on the way.
func (a *App) client() (*api.Client, error) {
	if a.clientOverride != nil {
		return a.clientOverride, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	key, err := cfg.FreshAPIKey(context.Background(), oauth.NewExchanger())
	if err != nil {
		return nil, err
	}
	opts := []api.Option{}
	if a.noRetry {
		opts = append(opts, api.WithRetryPolicy(api.NoRetry()))
	}
	return api.NewClient(key, opts...), nil
}

// metaCache opens the metadata cache, or returns nil when disabled or
// unavailable (resolution still works, just without caching).
func (a *App) metaCache() api.MetadataCache {
	if a.cacheOverride != nil {
		return a.cacheOverride
	}
	if a.noCache {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil
	}
	c, err := cache.OpenDefault(cfg.Profile(), a.cacheOptions().EffectiveTTL())
	if err != nil {
		slog.Warn("metadata cache unavailable", "error", err)
		return nil
	}
	return c
}

// openCache opens the cache for the cache subcommands, which need the
// concrete type.
func (a *App) openCache() (*cache.Cache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cache.OpenDefault(cfg.Profile(), a.cacheOptions().EffectiveTTL())
}

func (a *App) printJSON(v any) error {
	return output.PrintJSON(a.stdout, v, a.outputOptions().JSON)
}

// printResult prints a created/updated resource honoring --id-only.
func (a *App) printResult(id string, line string) error {
	if a.idOnly {
		_, err := fmt.Fprintln(a.stdout, id)
		return err
	}
	if a.outputOptions().IsJSON() {
		return nil
	}
	_, err := fmt.Fprintln(a.stdout, line)
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
