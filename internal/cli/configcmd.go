package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/config"
	"github.com/ink-splatters/linear-cli-sub001/internal/keyring"
	"github.com/ink-splatters/linear-cli-sub001/internal/output"
)

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration and workspaces",
	}
	cmd.AddCommand(
		a.configSetKeyCmd(),
		a.configGetKeyCmd(),
		a.configPathCmd(),
		a.configWorkspaceCmd(),
	)
	return cmd
}

func (a *App) configSetKeyCmd() *cobra.Command {
	var noKeyring bool
	cmd := &cobra.Command{
		Use:   "set-key <api-key>",
		Short: "Store the API key for the active workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			profile := cfg.Profile()

			// Prefer the OS keyring; the config file is the fallback.
			if !noKeyring {
				if err := keyring.Set(profile, args[0]); err == nil {
					if _, ok := cfg.Workspaces[profile]; !ok {
						cfg.SetAPIKey("")
						if err := config.Save(cfg); err != nil {
							return err
						}
					}
					fmt.Fprintf(a.stdout, "API key stored in the OS keyring for workspace %q.\n", profile)
					return nil
				}
				fmt.Fprintln(a.stderr, "Keyring unavailable, falling back to the config file.")
			}

			cfg.SetAPIKey(args[0])
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "API key saved for workspace %q.\n", profile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noKeyring, "no-keyring", false, "Write to the config file instead of the OS keyring")
	return cmd
}

func (a *App) configGetKeyCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get-key",
		Short: "Show the resolved API key (masked by default)",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			key, err := cfg.APIKey()
			if err != nil {
				return err
			}
			if reveal {
				fmt.Fprintln(a.stdout, key)
				return nil
			}
			fmt.Fprintln(a.stdout, maskKey(key))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the key in full")
	return cmd
}

func (a *App) configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
}

func (a *App) configWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage named workspaces",
	}

	add := &cobra.Command{
		Use:   "add <name> <api-key>",
		Short: "Add a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, exists := cfg.Workspaces[args[0]]; exists {
				return apperr.General("Workspace already exists: " + args[0])
			}
			cfg.Workspaces[args[0]] = config.Workspace{APIKey: args[1]}
			if cfg.Current == "" {
				cfg.Current = args[0]
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Added workspace %q.\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(cfg.Workspaces))
			for name := range cfg.Workspaces {
				names = append(names, name)
			}
			sort.Strings(names)

			active := cfg.Profile()
			if a.outputOptions().IsJSON() {
				items := make([]any, 0, len(names))
				for _, name := range names {
					ws := cfg.Workspaces[name]
					items = append(items, map[string]any{
						"name":   name,
						"active": name == active,
						"oauth":  ws.OAuth != nil && ws.OAuth.AccessToken != "",
					})
				}
				return a.printJSON(items)
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				marker := ""
				if name == active {
					marker = "*"
				}
				auth := "api key"
				if ws := cfg.Workspaces[name]; ws.OAuth != nil && ws.OAuth.AccessToken != "" {
					auth = "oauth"
				}
				rows = append(rows, []string{marker, name, auth})
			}
			fmt.Fprintln(a.stdout, output.Table([]string{"", "Name", "Auth"}, rows))
			return nil
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch <name>",
		Short: "Switch the active workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if _, ok := cfg.Workspaces[args[0]]; !ok {
				return apperr.NotFound("Workspace not found: " + args[0])
			}
			cfg.Current = args[0]
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Switched to workspace %q.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, switchCmd)
	return cmd
}
