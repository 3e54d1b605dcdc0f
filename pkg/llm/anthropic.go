package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client *anthropic.Client
	model  anthropic.Model

	// Overridable prompt templates; defaults are the canonical versions.
	ClassificationPrompt string
	NarrativePrompt      string
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client:               &client,
		model:                anthropic.Model("claude-haiku-4-5"),
		ClassificationPrompt: ClassificationPromptTemplate,
		NarrativePrompt:      NarrativePromptTemplate,
	}
}

func (c *AnthropicClient) ClassifyHeadlines(ctx context.Context, sectorName string, titles []string) ([]HeadlineResult, error) {
	prompt := buildClassificationPrompt(c.ClassificationPrompt, sectorName, titles, time.Now())

	content, err := c.complete(ctx, prompt, 2048)
	if err != nil {
		return nil, err
	}

	return parseClassification(content, len(titles))
}

func (c *AnthropicClient) WriteNarrative(ctx context.Context, input NarrativeInput) (*NarrativeResult, error) {
	prompt := buildNarrativePrompt(c.NarrativePrompt, input, time.Now())

	content, err := c.complete(ctx, prompt, 1024)
	if err != nil {
		return nil, err
	}

	return parseNarrative(content)
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}

	return resp.Content[0].Text, nil
}
