package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
)

func (a *App) apiCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "api <query>",
		Short: "Run a raw GraphQL query (pass - to read it from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			if query == "-" {
				raw, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("reading query from stdin: %w", err)
				}
				query = string(raw)
			}

			variables := map[string]any{}
			for _, kv := range vars {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return apperr.General("Invalid --var (want key=value): " + kv)
				}
				// JSON values pass through typed; anything else is a string.
				var decoded any
				if err := json.Unmarshal([]byte(value), &decoded); err == nil {
					variables[key] = decoded
				} else {
					variables[key] = value
				}
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			result, err := client.Query(commandContext(cmd), query, variables)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Query variable as key=value (repeatable)")
	return cmd
}
