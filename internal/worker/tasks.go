package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskGenerateBrief = "brief:generate"
	TaskScheduleDaily = "brief:schedule_daily"
	TaskScheduleWeek  = "brief:schedule_weekly"
)

// GenerateBriefPayload is the brief:generate task payload.
type GenerateBriefPayload struct {
	BriefID     uint      `json:"brief_id"`
	UserID      uint      `json:"user_id"`
	BriefType   string    `json:"brief_type"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueGenerateBrief enqueues a generation task for the given brief.
// The task gets a 10-minute timeout (two model calls plus image work), up to
// 3 retries for transport-level failures, and 24-hour retention. Pipeline
// failures never surface as task errors, so retries only cover delivery.
func EnqueueGenerateBrief(payload GenerateBriefPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskGenerateBrief,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}
