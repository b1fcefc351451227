package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/watch"
)

func (a *App) watchCmd() *cobra.Command {
	var (
		interval    time.Duration
		schedule    string
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch <issue-id>",
		Short: "Poll an issue and report changes as they happen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			client, err := a.client()
			if err != nil {
				return err
			}

			if schedule == "" {
				schedule = watch.IntervalSchedule(interval)
			}

			var metrics *watch.Metrics
			if metricsAddr != "" {
				metrics = watch.NewMetrics()
				go func() {
					if err := metrics.Serve(ctx, metricsAddr); err != nil {
						slog.Error("metrics endpoint failed", "addr", metricsAddr, "error", err)
					}
				}()
			}

			jsonMode := a.outputOptions().IsJSON()
			handler := func(e watch.Event) {
				if jsonMode {
					out, err := json.Marshal(e)
					if err != nil {
						return
					}
					fmt.Fprintln(a.stdout, string(out))
					return
				}
				identifier := api.String(e.Issue, "identifier", args[0])
				state := api.String(e.Issue["state"], "name", "-")
				switch e.Type {
				case watch.EventInitial:
					fmt.Fprintf(a.stdout, "Watching %s: %s [%s]\n",
						identifier, api.String(e.Issue, "title", ""), state)
				default:
					fmt.Fprintf(a.stdout, "%s changed at %s [%s]\n",
						identifier, e.Timestamp.Format(time.RFC3339), state)
				}
			}

			w := watch.New(client, args[0], schedule, handler, metrics, slog.Default())
			return w.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.DurationVar(&interval, "interval", 30*time.Second, "Poll interval")
	f.StringVar(&schedule, "schedule", "", "Cron expression overriding --interval")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	return cmd
}
