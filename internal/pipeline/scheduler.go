// CLAUDE:SUMMARY Periodic reclassification sweep — 5-field cron schedule, sleep loop, one bounded batch per tick
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler runs Reclassify(onlyUnassigned=true) on a cron schedule.
// The schedule is a standard 5-field cron expression (minute hour
// day-of-month month day-of-week), e.g. "0 3 * * *" for nightly at 3am.
// An empty schedule disables the sweep; an invalid one is logged and
// disables it too, rather than failing startup.
func (p *Pipeline) StartScheduler(ctx context.Context, schedule string) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		slog.Info("reclassify sweep disabled (no schedule)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		slog.Error("invalid reclassify schedule, sweep disabled", "schedule", schedule, "error", err)
		return
	}

	slog.Info("reclassify sweep scheduled", "cron", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)

			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
			}

			result, err := p.Reclassify(ctx, true)
			if err != nil {
				slog.Error("scheduled reclassify failed", "error", err)
				continue
			}
			slog.Info("scheduled reclassify complete",
				"total", result.Total, "updated", result.Updated)
		}
	}()
}
