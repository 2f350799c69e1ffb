// Package narrative turns aggregated content into a two-host spoken script
// and a companion written article via the text-completion adapter.
package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hakivo/brief-engine/internal/aggregator"
	"github.com/hakivo/brief-engine/internal/llm"
)

// Speaker labels used in the dialogue script.
const (
	SpeakerA = "ALEX"
	SpeakerB = "JORDAN"
)

const (
	scriptMaxTokens   = 1800
	articleMaxTokens  = 1500
	scriptTemperature = 0.8
	articleTemp       = 0.6
	headlinePrefix    = "HEADLINE:"
)

// ScriptResult is the spoken-dialogue script plus its headline.
type ScriptResult struct {
	Script   string
	Headline string
}

// ArticleResult is the written companion article.
type ArticleResult struct {
	Article   string
	WordCount int
}

// Context carries the personalization inputs for one brief.
type Context struct {
	UserName  string
	UserState string
	BriefType string // daily or weekly
}

// Generator produces scripts and articles through a Completer.
type Generator struct {
	completer llm.Completer
	logger    *slog.Logger
}

// New creates a Generator.
func New(completer llm.Completer, logger *slog.Logger) *Generator {
	return &Generator{completer: completer, logger: logger}
}

// GenerateScript produces the dialogue script and headline. An error here is
// fatal to the brief: with no script there is nothing to render audio from.
func (g *Generator) GenerateScript(ctx context.Context, pc Context, content *aggregator.Content) (*ScriptResult, error) {
	result, err := g.completer.Complete(ctx, scriptSystemPrompt(pc), scriptUserPrompt(pc, content), scriptMaxTokens, scriptTemperature)
	if err != nil {
		return nil, fmt.Errorf("script completion failed: %w", err)
	}

	script, headline, err := parseScript(result.Text)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Script generated",
		"headline", headline,
		"tokens_used", result.TokensUsed,
	)
	return &ScriptResult{Script: script, Headline: headline}, nil
}

// GenerateArticle produces the written article for an already-scripted brief.
// Failures here are non-fatal upstream: a script-only brief is acceptable.
func (g *Generator) GenerateArticle(ctx context.Context, pc Context, headline string, content *aggregator.Content) (*ArticleResult, error) {
	result, err := g.completer.Complete(ctx, articleSystemPrompt(pc), articleUserPrompt(pc, headline, content), articleMaxTokens, articleTemp)
	if err != nil {
		return nil, fmt.Errorf("article completion failed: %w", err)
	}

	article := strings.TrimSpace(result.Text)
	if article == "" {
		return nil, fmt.Errorf("article completion returned empty text")
	}

	wordCount := len(strings.Fields(article))
	g.logger.Info("Article generated", "word_count", wordCount, "tokens_used", result.TokensUsed)
	return &ArticleResult{Article: article, WordCount: wordCount}, nil
}

// parseScript splits the model output into headline and script. The model is
// instructed to emit "HEADLINE: ..." on the first line; anything else is
// unparseable and therefore fatal.
func parseScript(text string) (script, headline string, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", "", fmt.Errorf("script completion returned empty text")
	}

	line, rest, _ := strings.Cut(trimmed, "\n")
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(strings.ToUpper(line), headlinePrefix) {
		return "", "", fmt.Errorf("script completion missing headline line")
	}

	headline = strings.Trim(strings.TrimSpace(line[len(headlinePrefix):]), `"`)
	script = strings.TrimSpace(rest)

	if headline == "" {
		return "", "", fmt.Errorf("script completion produced an empty headline")
	}
	if script == "" {
		return "", "", fmt.Errorf("script completion produced an empty script")
	}
	return script, headline, nil
}
