package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/facebookgo/clock"
	"github.com/robfig/cron"
)

// DayLocker locks a calendar day
type DayLocker interface {
	Lock(ctx context.Context, cmd service.LockDay) (*daylock.DayLock, error)
}

// DayCloser locks the previous day on a cron schedule evaluated in the ledger timezone
type DayCloser struct {
	locker   DayLocker
	schedule cron.Schedule
	expr     string
	actor    string
	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[time.Time]struct{} // days whose lock failed, retried on every run
}

func NewDayCloser(
	cfg *config.SchedulerConfig,
	location *time.Location,
	locker DayLocker,
	clk clock.Clock,
	logger *slog.Logger,
) (*DayCloser, error) {
	schedule, err := cron.ParseStandard(cfg.DayCloseSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid day close schedule %q: %w", cfg.DayCloseSchedule, err)
	}
	if location == nil {
		location = time.UTC
	}

	return &DayCloser{
		locker:   locker,
		schedule: schedule,
		expr:     cfg.DayCloseSchedule,
		actor:    cfg.SystemActor,
		clock:    clk,
		location: location,
		logger:   logger,
		pending:  make(map[time.Time]struct{}),
	}, nil
}

// Start runs the schedule until context is canceled. A failed run is logged
// and the closer waits for the next scheduled time.
func (c *DayCloser) Start(ctx context.Context) {
	c.logger.Info("Starting day closer",
		"schedule", c.expr,
		"timezone", c.location.String(),
		"actor", c.actor,
	)

	for {
		now := c.clock.Now().In(c.location)
		next := c.schedule.Next(now)
		c.logger.Debug("Next day close scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			c.logger.Info("Day closer stopping due to context cancellation.")
			return
		case <-c.clock.After(next.Sub(now)):
			if err := c.RunOnce(ctx); err != nil {
				c.logger.Error("Scheduled day close failed", "error", err)
			}
		}
	}
}

// RunOnce locks yesterday along with every earlier day whose lock failed on a
// previous run. A day that is already locked counts as success. Days that still
// fail stay pending for the next run.
func (c *DayCloser) RunOnce(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	yesterday := shared.DateOf(c.clock.Now(), c.location).AddDate(0, 0, -1)
	c.pending[yesterday] = struct{}{}

	var errs []error
	for _, date := range c.pendingDays() {
		if err := c.closeDay(ctx, date); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(c.pending, date)
	}

	if len(errs) > 0 {
		c.logger.Warn("Day close incomplete, retrying on next run", "pending_days", len(c.pending))
	}
	return errors.Join(errs...)
}

// Pending returns the days still waiting to be locked, oldest first
func (c *DayCloser) Pending() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDays()
}

func (c *DayCloser) pendingDays() []time.Time {
	days := make([]time.Time, 0, len(c.pending))
	for date := range c.pending {
		days = append(days, date)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func (c *DayCloser) closeDay(ctx context.Context, date time.Time) error {
	day := shared.FormatDate(date)

	_, err := c.locker.Lock(ctx, service.LockDay{
		Date:          date,
		ActorRef:      c.actor,
		CorrelationID: "day-close-" + day,
	})
	if err != nil {
		if errors.Is(err, daylock.ErrAlreadyLocked{}) {
			c.logger.Info("Day already locked, nothing to close", "date", day)
			return nil
		}
		return fmt.Errorf("failed to lock %s: %w", day, err)
	}

	c.logger.Info("Day closed", "date", day, "actor", c.actor)
	return nil
}
