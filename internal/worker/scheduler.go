package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hakivo/brief-engine/internal/config"
	"github.com/hibiken/asynq"
)

// StartScheduler creates and starts an Asynq Scheduler for the periodic
// daily and weekly brief fan-out tasks. Returns a stop function for graceful
// shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location, err := time.LoadLocation(cfg.BriefTimezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.BriefTimezone, "error", err)
		location = time.UTC
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	entries := []struct {
		taskType string
		schedule string
	}{
		{TaskScheduleDaily, cfg.DailyBriefSchedule},
		{TaskScheduleWeek, cfg.WeeklyBriefSchedule},
	}

	for _, e := range entries {
		task := asynq.NewTask(
			e.taskType,
			nil, // Empty payload - handler queries subscribers itself
			asynq.MaxRetry(3),
			asynq.Timeout(10*time.Minute), // Longer timeout for processing all users
			asynq.Retention(24*time.Hour),
			asynq.Unique(24*time.Hour), // Prevent duplicate if scheduler runs twice
		)

		entryID, err := scheduler.Register(e.schedule, task)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s schedule: %w", e.taskType, err)
		}

		slog.Info(
			"Schedule registered",
			"task", e.taskType,
			"schedule", e.schedule,
			"timezone", cfg.BriefTimezone,
			"entry_id", entryID,
		)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	return func() { scheduler.Shutdown() }, nil
}
