package streams

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hakivo/brief-engine/internal/models"
	"gorm.io/gorm"
)

// HandleAudioResult returns a handler function that applies renderer verdicts
// to brief records. Only script_ready briefs may move forward; anything else
// is a stale or replayed verdict and is acknowledged without effect.
func HandleAudioResult(db *gorm.DB) func(AudioResult) error {
	return func(result AudioResult) error {
		var brief models.Brief

		if err := db.First(&brief, result.BriefID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("brief not found: %d", result.BriefID)
			}
			return fmt.Errorf("failed to find brief: %w", err)
		}

		if brief.Status != models.BriefStatusScriptReady {
			slog.Warn("Ignoring audio result for brief not awaiting audio",
				"brief_id", result.BriefID,
				"status", brief.Status,
			)
			return nil
		}

		now := time.Now()
		updates := map[string]interface{}{
			"completed_at": now,
		}

		switch result.Status {
		case "completed":
			updates["status"] = models.BriefStatusCompleted

			slog.Info("Brief audio completed",
				"brief_id", result.BriefID,
				"audio_url", result.AudioURL,
			)
		case "failed":
			updates["status"] = models.BriefStatusAudioFailed
			updates["error_message"] = result.Error

			slog.Error("Brief audio rendering failed",
				"brief_id", result.BriefID,
				"error", result.Error,
			)
		default:
			return fmt.Errorf("unknown status: %s", result.Status)
		}

		if err := db.Model(&brief).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update brief: %w", err)
		}

		return nil
	}
}
