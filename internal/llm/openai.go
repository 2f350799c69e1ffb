package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Completer and ImageGenerator using the official
// openai-go SDK.
type OpenAIClient struct {
	client          openai.Client
	completionModel string
	imageModel      string
}

// NewOpenAIClient creates an OpenAI-backed client for the given models.
func NewOpenAIClient(apiKey, completionModel, imageModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if completionModel == "" {
		return nil, errors.New("completion model is required")
	}
	return &OpenAIClient{
		client:          openai.NewClient(option.WithAPIKey(apiKey)),
		completionModel: completionModel,
		imageModel:      imageModel,
	}, nil
}

// Complete runs one chat completion and returns the text plus token usage.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (CompletionResult, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.completionModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResult{}, errors.New("completion returned no choices")
	}
	return CompletionResult{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
	}, nil
}

// GenerateImage synthesizes one image and returns its raw bytes.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	if c.imageModel == "" {
		return nil, errors.New("image model is not configured")
	}
	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1792x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return raw, nil
}
