package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/store"
	"github.com/hibiken/asynq"
)

// FanoutStore is the subset of the content store the scheduled fan-out needs.
type FanoutStore interface {
	DailyBriefUsers(ctx context.Context) ([]models.User, error)
	WeeklyBriefUsers(ctx context.Context) ([]models.User, error)
	FindInFlightBrief(ctx context.Context, userID uint, briefType string) (*models.Brief, error)
	CreateBrief(ctx context.Context, brief *models.Brief) error
}

// Fanout turns one scheduled tick into one pending brief plus one generation
// task per subscribed user.
type Fanout struct {
	store   FanoutStore
	enqueue func(GenerateBriefPayload) error
}

// NewFanout creates a Fanout over the content store.
func NewFanout(st FanoutStore) *Fanout {
	return &Fanout{store: st, enqueue: EnqueueGenerateBrief}
}

// handleSchedule processes one daily or weekly scheduler tick. Per-user
// failures are logged and skipped so one bad row cannot block the whole
// cohort; the task itself only errors when the subscriber query fails.
func (f *Fanout) handleSchedule(logger *slog.Logger, briefType string) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var users []models.User
		var err error
		if briefType == models.BriefTypeWeekly {
			users, err = f.store.WeeklyBriefUsers(ctx)
		} else {
			users, err = f.store.DailyBriefUsers(ctx)
		}
		if err != nil {
			return err
		}

		logger.Info("Scheduling briefs", "type", briefType, "subscribers", len(users))

		now := time.Now()
		periodStart := now.AddDate(0, 0, -1)
		if briefType == models.BriefTypeWeekly {
			periodStart = now.AddDate(0, 0, -7)
		}

		created := 0
		for _, user := range users {
			if err := f.scheduleOne(ctx, user, briefType, periodStart, now); err != nil {
				logger.Error("Failed to schedule brief", "user_id", user.ID, "error", err.Error())
				continue
			}
			created++
		}

		logger.Info("Brief scheduling complete", "type", briefType, "created", created, "subscribers", len(users))
		return nil
	}
}

func (f *Fanout) scheduleOne(ctx context.Context, user models.User, briefType string, periodStart, periodEnd time.Time) error {
	// One in-flight brief per user per type: if the previous run is still
	// going (or stuck), skip this tick rather than stacking another.
	_, err := f.store.FindInFlightBrief(ctx, user.ID, briefType)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	brief := models.Brief{
		UserID:      user.ID,
		BriefType:   briefType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      models.BriefStatusPending,
	}
	if err := f.store.CreateBrief(ctx, &brief); err != nil {
		return err
	}

	return f.enqueue(GenerateBriefPayload{
		BriefID:     brief.ID,
		UserID:      user.ID,
		BriefType:   briefType,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
}
