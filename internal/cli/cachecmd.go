package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/cache"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

func (a *App) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the metadata cache",
	}
	cmd.AddCommand(a.cacheStatusCmd(), a.cacheClearCmd())
	return cmd
}

func (a *App) cacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cached metadata and its age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := c.Status(commandContext(cmd))
			if err != nil {
				return err
			}

			if a.outputOptions().IsJSON() {
				items := make([]any, 0, len(entries))
				for _, e := range entries {
					items = append(items, map[string]any{
						"kind":  string(e.Kind),
						"age":   e.Age.String(),
						"valid": e.Valid,
						"size":  e.Size,
					})
				}
				return a.printJSON(items)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				fresh := "fresh"
				if !e.Valid {
					fresh = "expired"
				}
				rows = append(rows, []string{
					e.Kind.DisplayName(),
					e.Age.String(),
					fresh,
					fmt.Sprintf("%d B", e.Size),
				})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"Kind", "Age", "State", "Size"}, rows))
			return nil
		},
	}
}

func (a *App) cacheClearCmd() *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached metadata (all kinds by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			var targets []cache.Kind
			for _, k := range kinds {
				targets = append(targets, cache.Kind(k))
			}
			if err := c.Clear(commandContext(cmd), targets...); err != nil {
				return err
			}
			if !a.quiet {
				fmt.Fprintln(a.stdout, "Cache cleared.")
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only clear these kinds (teams, users, ...)")
	return cmd
}
