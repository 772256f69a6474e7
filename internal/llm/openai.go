package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/config"
)

// OpenAIClient talks to OpenAI or any OpenAI-compatible chat endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIClient creates a new OpenAI client. A custom base URL selects an
// OpenAI-compatible service.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Local compatible servers usually ignore the key.
		apiKey = "dummy-key"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature (omitempty) and the server
		// falls back to its own default.
		temperature = math.SmallestNonzeroFloat32
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Generate sends the prompt as a single user message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &EmptyResponseError{Message: "no choices returned"}
	}

	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", &EmptyResponseError{Message: fmt.Sprintf("empty choice: %s", choice.FinishReason)}
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Message: apiErr.Message}
		}
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Status: apiErr.Type, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Message: reqErr.Error()}
		}
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return fmt.Errorf("chat completion failed: %w", err)
}
