package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Analyzer is the orchestration surface the HTTP layer depends on; tests
// install a stub.
type Analyzer interface {
	AnalyzeLoan(ctx context.Context, customerInput map[string]any) (map[string]any, error)
	ExtractApplication(ctx context.Context, text string) (map[string]any, error)
}

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.3-70b-versatile"
	defaultMaxTokens   = 2048
	defaultTemperature = 0.1
)

// Options configure the completion call. Zero values fall back to the Groq
// production defaults.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Client calls an OpenAI-compatible chat-completion endpoint (Groq in
// production) and turns the free-form reply into a validated analysis object.
// Calls are synchronous, non-streaming, and never retried.
type Client struct {
	api  *openai.Client
	opts Options
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = opts.BaseURL
	return &Client{api: openai.NewClientWithConfig(cfg), opts: opts}
}

// AnalyzeLoan runs the full credit-risk assessment for one normalized
// application. Any failure is wrapped into a single descriptive error for the
// caller to persist.
func (c *Client) AnalyzeLoan(ctx context.Context, customerInput map[string]any) (map[string]any, error) {
	result, err := c.analyze(ctx, customerInput)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze loan application: %w", err)
	}
	return result, nil
}

func (c *Client) analyze(ctx context.Context, customerInput map[string]any) (map[string]any, error) {
	if c.opts.APIKey == "" {
		return nil, errors.New("GROQ_API_KEY not found in environment variables")
	}

	encoded, err := json.MarshalIndent(customerInput, "", "  ")
	if err != nil {
		return nil, err
	}

	text, err := c.complete(ctx, analysisSystemPrompt, analysisUserPrompt(string(encoded)))
	if err != nil {
		return nil, err
	}

	result, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnalysis(result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExtractApplication converts a natural-language application description into
// the structured loan-application shape. Nothing is persisted here.
func (c *Client) ExtractApplication(ctx context.Context, text string) (map[string]any, error) {
	if c.opts.APIKey == "" {
		return nil, errors.New("failed to process natural language input: GROQ_API_KEY not found in environment variables")
	}

	reply, err := c.complete(ctx, extractionSystemPrompt, extractionUserPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("failed to process natural language input: %w", err)
	}
	out, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to process natural language input: %w", err)
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		TopP:        1,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
