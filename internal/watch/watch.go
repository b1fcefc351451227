// Package watch polls an issue for changes on a cron schedule and
// emits an event whenever its updatedAt timestamp moves.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ink-splatters/linear-cli-sub001/internal/api"
	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
)

const issueQuery = `
	query($id: String!) {
		issue(id: $id) {
			id
			identifier
			title
			updatedAt
			state { name }
			assignee { name }
			priority
			labels { nodes { name } }
		}
	}`

// Event types.
const (
	EventInitial = "initial"
	EventUpdated = "updated"
)

// Event is one observation of the watched issue.
type Event struct {
	Type      string         `json:"event"`
	Issue     map[string]any `json:"issue"`
	Timestamp time.Time      `json:"timestamp"`
}

// Handler receives events as they happen.
type Handler func(Event)

// Watcher drives the poll loop.
type Watcher struct {
	client   *api.Client
	issueID  string
	schedule string
	handler  Handler
	metrics  *Metrics
	logger   *slog.Logger

	mu          sync.Mutex
	lastUpdated string
	seen        bool
}

// New builds a watcher. schedule is a cron expression; IntervalSchedule
// converts a plain duration. metrics may be nil.
func New(client *api.Client, issueID, schedule string, handler Handler, metrics *Metrics, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		client:   client,
		issueID:  issueID,
		schedule: schedule,
		handler:  handler,
		metrics:  metrics,
		logger:   logger,
	}
}

// IntervalSchedule converts a poll interval into a cron expression.
func IntervalSchedule(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}

// Run polls immediately, then on the schedule, until ctx is cancelled
// or the issue turns out not to exist.
func (w *Watcher) Run(ctx context.Context) error {
	fatal := make(chan error, 1)

	// First poll up front so a bad issue ID fails fast.
	if err := w.poll(ctx); err != nil {
		return err
	}

	c := cron.New()
	_, err := c.AddFunc(w.schedule, func() {
		if pollErr := w.poll(ctx); pollErr != nil {
			if ctx.Err() != nil {
				return
			}
			var appErr *apperr.Error
			if errors.As(pollErr, &appErr) && appErr.Code == apperr.CodeNotFound {
				select {
				case fatal <- pollErr:
				default:
				}
				return
			}
			w.logger.Warn("poll failed", "issue", w.issueID, "error", pollErr)
		}
	})
	if err != nil {
		return fmt.Errorf("watch: invalid schedule %q: %w", w.schedule, err)
	}

	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-fatal:
		return err
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	start := time.Now()
	result, err := w.client.Query(ctx, issueQuery, map[string]any{"id": w.issueID})
	if w.metrics != nil {
		w.metrics.ObservePoll(time.Since(start), err)
	}
	if err != nil {
		return err
	}

	issueAny, ok := api.Path(result, "data", "issue")
	issue, isMap := issueAny.(map[string]any)
	if !ok || !isMap || issue == nil {
		return apperr.NotFound("Issue not found: " + w.issueID)
	}

	updatedAt, _ := api.PathString(issue, "updatedAt")

	w.mu.Lock()
	changed := !w.seen || updatedAt != w.lastUpdated
	first := !w.seen
	w.seen = true
	w.lastUpdated = updatedAt
	w.mu.Unlock()

	if !changed {
		return nil
	}

	eventType := EventUpdated
	if first {
		eventType = EventInitial
	} else if w.metrics != nil {
		w.metrics.ObserveChange()
	}
	if w.handler != nil {
		w.handler(Event{Type: eventType, Issue: issue, Timestamp: time.Now().UTC()})
	}
	return nil
}
