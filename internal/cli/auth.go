package cli

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/config"
	"github.com/ink-splatters/linear-cli-sub001/internal/oauth"
)

const defaultCallbackPort = 8484

func (a *App) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Linear",
	}
	cmd.AddCommand(a.authLoginCmd(), a.authLogoutCmd(), a.authStatusCmd())
	return cmd
}

func (a *App) authLoginCmd() *cobra.Command {
	var (
		clientID string
		port     int
		scopes   string
		noOpen   bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in via OAuth (browser flow with PKCE)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			profile := cfg.Profile()
			if ws := cfg.Workspaces[profile]; ws.OAuth != nil && ws.OAuth.AccessToken != "" {
				ok, err := a.confirm(fmt.Sprintf("Workspace %q already has OAuth tokens. Replace them?", profile))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.stderr, "Aborted.")
					return nil
				}
			}

			pkce, err := oauth.GeneratePKCE()
			if err != nil {
				return err
			}
			state, err := oauth.GenerateState()
			if err != nil {
				return err
			}

			redirectURI := fmt.Sprintf("http://localhost:%d/callback", port)
			authURL := oauth.BuildAuthorizeURL(clientID, redirectURI, scopes, state, pkce)

			fmt.Fprintln(a.stderr, "Opening the Linear consent page in your browser...")
			fmt.Fprintf(a.stderr, "If nothing opens, visit:\n\n  %s\n\n", authURL)
			if !noOpen {
				if err := openBrowser(authURL); err != nil {
					fmt.Fprintf(a.stderr, "Could not open browser: %v\n", err)
				}
			}

			code, err := oauth.WaitForCallback(ctx, port, state)
			if err != nil {
				return err
			}

			tokens, err := oauth.NewExchanger().ExchangeCode(ctx, clientID, redirectURI, code, pkce.Verifier)
			if err != nil {
				return err
			}

			ws := cfg.Workspaces[profile]
			ws.OAuth = &config.OAuth{
				ClientID:     clientID,
				AccessToken:  tokens.AccessToken,
				RefreshToken: tokens.RefreshToken,
				ExpiresAt:    tokens.ExpiresAt,
				TokenType:    tokens.TokenType,
				Scopes:       strings.Split(scopes, ","),
			}
			cfg.Workspaces[profile] = ws
			if cfg.Current == "" {
				cfg.Current = profile
			}
			if err := config.Save(cfg); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Logged in. Tokens saved to workspace %q.\n", profile)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&clientID, "client-id", oauth.DefaultClientID, "OAuth client ID")
	f.IntVar(&port, "port", defaultCallbackPort, "Localhost callback port")
	f.StringVar(&scopes, "scopes", "read,write", "Requested scopes, comma-separated")
	f.BoolVar(&noOpen, "no-open", false, "Print the URL instead of opening a browser")
	return cmd
}

func (a *App) authLogoutCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke OAuth tokens and remove them from the config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			profile := cfg.Profile()
			ws, ok := cfg.Workspaces[profile]
			if !ok || ws.OAuth == nil || ws.OAuth.AccessToken == "" {
				return apperr.General("Not logged in via OAuth on workspace " + profile)
			}
			if !force {
				confirmed, err := a.confirm("Revoke OAuth tokens for workspace " + profile + "?")
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(a.stderr, "Aborted.")
					return nil
				}
			}

			if err := oauth.NewExchanger().Revoke(commandContext(cmd), ws.OAuth.AccessToken); err != nil {
				// Still drop the local copy: an already-expired token
				// fails revocation but should not block logout.
				fmt.Fprintf(a.stderr, "Revocation failed: %v\n", err)
			}

			ws.OAuth = nil
			cfg.Workspaces[profile] = ws
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Logged out of workspace %q.\n", profile)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

func (a *App) authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credential would be used",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			profile := cfg.Profile()
			fmt.Fprintf(a.stdout, "Workspace: %s\n", profile)

			if key := os.Getenv(config.EnvAPIKey); key != "" {
				fmt.Fprintf(a.stdout, "Source:    %s\nKey:       %s\n", config.EnvAPIKey, maskKey(key))
				return nil
			}

			ws := cfg.Workspaces[profile]
			if ws.OAuth != nil && ws.OAuth.AccessToken != "" {
				fmt.Fprintf(a.stdout, "Source:    oauth\nToken:     %s\n", maskKey(ws.OAuth.AccessToken))
				return nil
			}

			key, err := cfg.APIKey()
			if err != nil {
				fmt.Fprintln(a.stdout, "Source:    none (run: linear auth login)")
				return nil
			}
			fmt.Fprintf(a.stdout, "Source:    config\nKey:       %s\n", maskKey(key))
			return nil
		},
	}
}

// maskKey keeps enough of the prefix to tell credentials apart.
func maskKey(key string) string {
	if len(key) <= 12 {
		return "****"
	}
	return key[:8] + "****"
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
