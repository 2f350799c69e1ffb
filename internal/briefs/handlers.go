// Package briefs exposes the HTTP surface for triggering and polling brief
// generation. Authentication sits in front of this service and is out of
// scope here; callers arrive with a resolved user id.
package briefs

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/store"
	"github.com/hakivo/brief-engine/internal/worker"
)

type createRequest struct {
	UserID    uint   `json:"user_id" binding:"required"`
	BriefType string `json:"brief_type"`
}

type briefResponse struct {
	ID              uint       `json:"id"`
	UserID          uint       `json:"user_id"`
	BriefType       string     `json:"brief_type"`
	Status          string     `json:"status"`
	Headline        string     `json:"headline,omitempty"`
	Script          string     `json:"script,omitempty"`
	Article         string     `json:"article,omitempty"`
	WordCount       int        `json:"word_count,omitempty"`
	FeatureImageURL string     `json:"feature_image_url,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toResponse(b *models.Brief) briefResponse {
	return briefResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		BriefType:       b.BriefType,
		Status:          b.Status,
		Headline:        b.Headline,
		Script:          b.Script,
		Article:         b.Article,
		WordCount:       b.WordCount,
		FeatureImageURL: b.FeatureImageURL,
		ErrorMessage:    b.ErrorMessage,
		GeneratedAt:     b.GeneratedAt,
		CreatedAt:       b.CreatedAt,
	}
}

// CreateBriefHandler creates a new brief and enqueues its generation task.
// A user with an in-flight brief of the same type gets that brief back
// instead of a duplicate.
func CreateBriefHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		briefType := req.BriefType
		if briefType == "" {
			briefType = models.BriefTypeDaily
		}
		if briefType != models.BriefTypeDaily && briefType != models.BriefTypeWeekly {
			c.JSON(http.StatusBadRequest, gin.H{"error": "brief_type must be daily or weekly"})
			return
		}

		if _, err := st.GetUser(c.Request.Context(), req.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
			return
		}

		existing, err := st.FindInFlightBrief(c.Request.Context(), req.UserID, briefType)
		if err == nil {
			c.JSON(http.StatusOK, toResponse(existing))
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check existing briefs"})
			return
		}

		now := time.Now()
		periodStart := now.AddDate(0, 0, -1)
		if briefType == models.BriefTypeWeekly {
			periodStart = now.AddDate(0, 0, -7)
		}

		brief := models.Brief{
			UserID:      req.UserID,
			BriefType:   briefType,
			PeriodStart: periodStart,
			PeriodEnd:   now,
			Status:      models.BriefStatusPending,
		}
		if err := st.CreateBrief(c.Request.Context(), &brief); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create brief"})
			return
		}

		err = worker.EnqueueGenerateBrief(worker.GenerateBriefPayload{
			BriefID:     brief.ID,
			UserID:      req.UserID,
			BriefType:   briefType,
			PeriodStart: periodStart,
			PeriodEnd:   now,
		})
		if err != nil {
			_ = st.UpdateBrief(c.Request.Context(), brief.ID, map[string]interface{}{
				"status":        models.BriefStatusFailed,
				"error_message": "Failed to enqueue generation task",
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue brief generation"})
			return
		}

		c.JSON(http.StatusAccepted, toResponse(&brief))
	}
}

// GetBriefHandler returns the current state of a brief. The UI gates on
// status: anything before script_ready renders as "still generating".
func GetBriefHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid brief id"})
			return
		}

		brief, err := st.GetBrief(c.Request.Context(), uint(id))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "brief not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch brief"})
			return
		}

		c.JSON(http.StatusOK, toResponse(brief))
	}
}
