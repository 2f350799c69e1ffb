// Package pipeline is the brief generation orchestrator: the state machine
// that sequences aggregation, narrative generation, and image resolution,
// persists a checkpoint at every stage boundary, and classifies failures as
// fatal or degraded. It runs inside an at-least-once worker, so every
// persistence step tolerates replay and the outer guard never lets an error
// escape back to the delivery system.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hakivo/brief-engine/internal/aggregator"
	"github.com/hakivo/brief-engine/internal/images"
	"github.com/hakivo/brief-engine/internal/models"
	"github.com/hakivo/brief-engine/internal/narrative"
	"github.com/hakivo/brief-engine/internal/store"
	"github.com/hakivo/brief-engine/internal/streams"
	"github.com/hakivo/brief-engine/internal/taxonomy"
)

// Store is the subset of the content store the orchestrator writes through.
type Store interface {
	GetBrief(ctx context.Context, briefID uint) (*models.Brief, error)
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	GetPreferences(ctx context.Context, userID uint) (*models.UserPreferences, error)
	UpdateBriefStatus(ctx context.Context, briefID uint, status string) error
	UpdateBrief(ctx context.Context, briefID uint, fields map[string]interface{}) error
	RecordFeaturedBills(ctx context.Context, briefID, userID uint, billIDs []string) error
	RecordFeaturedStateBills(ctx context.Context, briefID, userID uint, stateBillIDs []uint) error
}

// ContentAggregator produces the selected content for one user.
type ContentAggregator interface {
	Aggregate(ctx context.Context, user *models.User, interests []string) *aggregator.Content
}

// NarrativeGenerator produces the script and article.
type NarrativeGenerator interface {
	GenerateScript(ctx context.Context, pc narrative.Context, content *aggregator.Content) (*narrative.ScriptResult, error)
	GenerateArticle(ctx context.Context, pc narrative.Context, headline string, content *aggregator.Content) (*narrative.ArticleResult, error)
}

// ImageResolver resolves the feature image, or "" when the cascade exhausts.
type ImageResolver interface {
	Resolve(ctx context.Context, req images.Request) string
}

// AudioNotifier is the fire-and-forget renderer nudge.
type AudioNotifier interface {
	NotifyScriptReady(ctx context.Context, briefID uint) error
}

// EventPublisher announces script-ready briefs on the event stream.
type EventPublisher interface {
	PublishBriefReady(ctx context.Context, event streams.BriefReadyEvent) (string, error)
}

// MemoryWriter records the episodic memory entry for the assistant feature.
type MemoryWriter interface {
	RecordBrief(ctx context.Context, briefID uint, text string) error
}

// Pipeline wires the stages together. Optional collaborators (notifier,
// publisher, memory) may be nil; their steps are skipped.
type Pipeline struct {
	store     Store
	agg       ContentAggregator
	narrative NarrativeGenerator
	resolver  ImageResolver
	notifier  AudioNotifier
	publisher EventPublisher
	memory    MemoryWriter
	tax       *taxonomy.Taxonomy
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Pipeline.
func New(st Store, agg ContentAggregator, gen NarrativeGenerator, resolver ImageResolver,
	notifier AudioNotifier, publisher EventPublisher, memory MemoryWriter,
	tax *taxonomy.Taxonomy, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		agg:       agg,
		narrative: gen,
		resolver:  resolver,
		notifier:  notifier,
		publisher: publisher,
		memory:    memory,
		tax:       tax,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the full pipeline for one brief. It never returns an error:
// the delivery system must see a normal completion whatever happens, or a
// poison message would redeliver forever. Failures are recorded on the brief
// row instead.
func (p *Pipeline) Run(ctx context.Context, briefID, userID uint, briefType string, periodStart, periodEnd time.Time) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Pipeline panicked", "brief_id", briefID, "panic", fmt.Sprint(r))
			p.markFailed(ctx, briefID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := p.execute(ctx, briefID, userID, briefType, periodStart, periodEnd); err != nil {
		var inputErr *FatalInputError
		var genErr *FatalGenerationError
		switch {
		case errors.As(err, &inputErr):
			p.logger.Error("Brief aborted on fatal input", "brief_id", briefID, "reason", inputErr.Reason)
		case errors.As(err, &genErr):
			p.logger.Error("Brief aborted on generation failure", "brief_id", briefID, "error", genErr.Err.Error())
		default:
			p.logger.Error("Brief aborted", "brief_id", briefID, "error", err.Error())
		}
		p.markFailed(ctx, briefID, err.Error())
	}
}

func (p *Pipeline) execute(ctx context.Context, briefID, userID uint, briefType string, periodStart, periodEnd time.Time) error {
	brief, err := p.store.GetBrief(ctx, briefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.logger.Error("Brief not found, nothing to do", "brief_id", briefID)
			return nil
		}
		return fmt.Errorf("failed to load brief: %w", err)
	}

	// At-least-once replay: a brief that already produced a script must not
	// be regenerated, and a failed brief stays failed.
	if brief.Status == models.BriefStatusFailed {
		p.logger.Warn("Ignoring redelivery for failed brief", "brief_id", briefID)
		return nil
	}
	if models.StatusAtLeast(brief.Status, models.BriefStatusScriptReady) {
		p.logger.Info("Brief already generated, skipping redelivery", "brief_id", briefID, "status", brief.Status)
		return nil
	}

	if err := p.store.UpdateBriefStatus(ctx, briefID, models.BriefStatusProcessing); err != nil {
		return fmt.Errorf("failed to checkpoint processing: %w", err)
	}

	user, interests, err := p.loadInputs(ctx, userID)
	if err != nil {
		return err
	}

	p.logger.Info("Generating brief",
		"brief_id", briefID,
		"user_id", userID,
		"type", briefType,
		"interests", len(interests),
	)

	content := p.agg.Aggregate(ctx, user, interests)
	p.checkpointContent(ctx, briefID, content)

	pc := narrative.Context{UserName: user.Name, UserState: user.State, BriefType: briefType}
	script, err := p.narrative.GenerateScript(ctx, pc, content)
	if err != nil {
		return &FatalGenerationError{Err: err}
	}

	var article *narrative.ArticleResult
	article, err = p.narrative.GenerateArticle(ctx, pc, script.Headline, content)
	if err != nil {
		// Script-only briefs are acceptable; article loss is degraded, not fatal.
		derr := &DegradedFetchError{Op: "article generation", Err: err}
		p.logger.Warn("Continuing without article", "brief_id", briefID, "error", derr.Error())
		article = nil
	}

	imageURL := p.resolver.Resolve(ctx, images.Request{
		BriefID:   briefID,
		Headline:  script.Headline,
		Interests: interests,
		News:      content.News,
	})

	now := p.now()
	fields := map[string]interface{}{
		"status":            models.BriefStatusScriptReady,
		"headline":          script.Headline,
		"script":            script.Script,
		"feature_image_url": imageURL,
		"generated_at":      now,
		"error_message":     "",
	}
	if article != nil {
		fields["article"] = article.Article
		fields["word_count"] = article.WordCount
	}
	if err := p.store.UpdateBrief(ctx, briefID, fields); err != nil {
		return fmt.Errorf("failed to persist generated brief: %w", err)
	}

	p.recordLedger(ctx, briefID, userID, content)
	p.handoff(ctx, brief, briefType, script, content)

	p.logger.Info("Brief generation complete",
		"brief_id", briefID,
		"status", models.BriefStatusScriptReady,
		"bills", len(content.Bills),
		"state_bills", len(content.StateBills),
		"news", len(content.News),
		"has_image", imageURL != "",
	)
	return nil
}

// loadInputs fetches the user and their validated interest list. Missing
// preferences or an empty usable interest set is fatal: there is nothing to
// personalize against.
func (p *Pipeline) loadInputs(ctx context.Context, userID uint) (*models.User, []string, error) {
	user, err := p.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, &FatalInputError{Reason: fmt.Sprintf("user %d not found", userID)}
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	prefs, err := p.store.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, &FatalInputError{Reason: fmt.Sprintf("user %d has no preferences", userID)}
		}
		return nil, nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	var interests []string
	for _, interest := range prefs.Interests {
		if p.tax.Known(interest) {
			interests = append(interests, interest)
		} else {
			p.logger.Warn("Skipping unknown interest", "user_id", userID, "interest", interest)
		}
	}
	if len(interests) == 0 {
		return nil, nil, &FatalInputError{Reason: fmt.Sprintf("user %d has no usable interests", userID)}
	}

	return user, interests, nil
}

// checkpointContent persists the content_gathered checkpoint with the news
// snapshot, so a crash after aggregation leaves an inspectable trail.
func (p *Pipeline) checkpointContent(ctx context.Context, briefID uint, content *aggregator.Content) {
	fields := map[string]interface{}{
		"status": models.BriefStatusContentGathered,
	}
	if snapshot, err := json.Marshal(content.News); err == nil {
		fields["news_snapshot"] = snapshot
	}
	if err := p.store.UpdateBrief(ctx, briefID, fields); err != nil {
		// Checkpoint loss is not worth aborting a run that can still finish.
		p.logger.Warn("Failed to checkpoint gathered content", "brief_id", briefID, "error", err.Error())
	}
}

// recordLedger appends the dedup ledger rows for everything this brief
// surfaced. Failure only degrades future freshness, never this brief.
func (p *Pipeline) recordLedger(ctx context.Context, briefID, userID uint, content *aggregator.Content) {
	billIDs := make([]string, 0, len(content.Bills))
	for _, b := range content.Bills {
		billIDs = append(billIDs, b.BillID)
	}
	if err := p.store.RecordFeaturedBills(ctx, briefID, userID, billIDs); err != nil {
		derr := &DegradedFetchError{Op: "ledger write", Err: err}
		p.logger.Warn("Failed to record featured bills", "brief_id", briefID, "error", derr.Error())
	}

	stateIDs := make([]uint, 0, len(content.StateBills))
	for _, b := range content.StateBills {
		stateIDs = append(stateIDs, b.ID)
	}
	if err := p.store.RecordFeaturedStateBills(ctx, briefID, userID, stateIDs); err != nil {
		derr := &DegradedFetchError{Op: "state ledger write", Err: err}
		p.logger.Warn("Failed to record featured state bills", "brief_id", briefID, "error", derr.Error())
	}
}

// handoff performs the best-effort downstream steps after script_ready: nudge
// the audio renderer, announce on the event stream, and write the episodic
// memory entry. All three are non-fatal.
func (p *Pipeline) handoff(ctx context.Context, brief *models.Brief, briefType string, script *narrative.ScriptResult, content *aggregator.Content) {
	if p.notifier != nil {
		if err := p.notifier.NotifyScriptReady(ctx, brief.ID); err != nil {
			herr := &HandoffError{Err: err}
			p.logger.Warn("Audio renderer notify failed, poller will pick it up",
				"brief_id", brief.ID, "error", herr.Error())
		}
	}

	if p.publisher != nil {
		event := streams.BriefReadyEvent{
			EventID:   uuid.NewString(),
			BriefID:   brief.ID,
			UserID:    brief.UserID,
			BriefType: briefType,
			Headline:  script.Headline,
		}
		if _, err := p.publisher.PublishBriefReady(ctx, event); err != nil {
			p.logger.Warn("Failed to publish brief-ready event", "brief_id", brief.ID, "error", err.Error())
		}
	}

	if p.memory != nil {
		if err := p.memory.RecordBrief(ctx, brief.ID, memoryText(briefType, script.Headline, content)); err != nil {
			p.logger.Warn("Failed to write episodic memory", "brief_id", brief.ID, "error", err.Error())
		}
	}
}

// memoryText summarizes the brief for the assistant's episodic memory.
func memoryText(briefType, headline string, content *aggregator.Content) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s brief: %s.", capitalize(briefType), headline)
	if len(content.Bills) > 0 {
		titles := make([]string, 0, len(content.Bills))
		for _, bill := range content.Bills {
			titles = append(titles, bill.Title)
		}
		fmt.Fprintf(&b, " Covered bills: %s.", strings.Join(titles, "; "))
	}
	if len(content.News) > 0 {
		fmt.Fprintf(&b, " Top news: %s.", content.News[0].Title)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// markFailed moves the brief to the terminal failed state. Best-effort: if
// even this write fails there is nothing left to do but log.
func (p *Pipeline) markFailed(ctx context.Context, briefID uint, reason string) {
	err := p.store.UpdateBrief(ctx, briefID, map[string]interface{}{
		"status":        models.BriefStatusFailed,
		"error_message": reason,
	})
	if err != nil {
		p.logger.Error("Failed to mark brief failed", "brief_id", briefID, "error", err.Error())
	}
}
