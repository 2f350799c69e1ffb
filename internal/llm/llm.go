// Package llm wraps the generative model provider behind the two narrow
// contracts the pipeline needs: text completion and image synthesis.
package llm

import "context"

// CompletionResult is one model completion plus its token usage.
type CompletionResult struct {
	Text       string
	TokensUsed int
}

// Completer produces a text completion from a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (CompletionResult, error)
}

// ImageGenerator synthesizes an image from a prompt. A nil byte slice with a
// nil error means the provider declined the prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}
