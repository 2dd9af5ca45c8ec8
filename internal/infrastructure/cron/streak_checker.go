package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"habit-hero/internal/domain/service"
	"habit-hero/pkg/civil"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

const checkTimeout = 5 * time.Minute

// StreakChecker periodically looks for streaks that ended with the previous day. The
// check itself runs at most once per calendar day; the interval only decides how soon
// after midnight it notices the new day.
type StreakChecker struct {
	habitService service.HabitService
	cron         *cron.Cron
	interval     time.Duration
	location     *time.Location
	now          func() time.Time
	logger       *log.Logger

	mu      sync.Mutex
	lastDay civil.Date
}

// NewStreakChecker creates a new streak checker
func NewStreakChecker(
	habitService service.HabitService,
	checkInterval time.Duration,
	location *time.Location,
	logger *log.Logger,
) *StreakChecker {
	if location == nil {
		location = time.UTC
	}
	return &StreakChecker{
		habitService: habitService,
		cron:         cron.New(cron.WithLocation(location)),
		interval:     checkInterval,
		location:     location,
		now:          time.Now,
		logger:       logger.With("component", "streak-checker"),
	}
}

// Start starts the streak checker
func (c *StreakChecker) Start() error {
	cronExpr := fmt.Sprintf("@every %s", c.interval.String())

	_, err := c.cron.AddFunc(cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		if _, err := c.RunOnce(ctx); err != nil {
			c.logger.Error("streak check failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.cron.Start()
	c.logger.Info("streak checker started", "interval", c.interval)

	return nil
}

// Stop stops the streak checker and waits for a running check to finish
func (c *StreakChecker) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.logger.Info("streak checker stopped")
}

// RunOnce runs the check unless it already ran for the current day. It reports whether
// the check ran.
func (c *StreakChecker) RunOnce(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := civil.Today(c.now(), c.location)
	if c.lastDay.Equal(today) {
		return false, nil
	}

	broken, err := c.habitService.DetectBrokenStreaks(ctx)
	if err != nil {
		return true, fmt.Errorf("failed to detect broken streaks: %w", err)
	}
	c.lastDay = today

	for _, b := range broken {
		c.logger.Info("streak broken",
			"habit_id", b.HabitID,
			"name", b.Name,
			"previous_streak", b.PreviousStreak,
			"last_check_in", b.LastCheckIn,
		)
	}
	c.logger.Info("streak check completed", "day", today, "broken", len(broken))

	return true, nil
}
