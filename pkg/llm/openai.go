package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIClient struct {
	client *openai.Client
	model  openai.ChatModel

	ClassificationPrompt string
	NarrativePrompt      string
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client:               &client,
		model:                openai.ChatModelGPT4oMini,
		ClassificationPrompt: ClassificationPromptTemplate,
		NarrativePrompt:      NarrativePromptTemplate,
	}
}

func (c *OpenAIClient) ClassifyHeadlines(ctx context.Context, sectorName string, titles []string) ([]HeadlineResult, error) {
	prompt := buildClassificationPrompt(c.ClassificationPrompt, sectorName, titles, time.Now())

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseClassification(content, len(titles))
}

func (c *OpenAIClient) WriteNarrative(ctx context.Context, input NarrativeInput) (*NarrativeResult, error) {
	prompt := buildNarrativePrompt(c.NarrativePrompt, input, time.Now())

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseNarrative(content)
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})

	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}
