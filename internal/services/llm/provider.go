package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Result is the unified response shape returned by every provider.
type Result struct {
	Content   string
	ToolCalls []openai.ToolCall
	Provider  string
}

// Provider is one chat-completion backend. Both the local server and Groq
// speak the OpenAI wire format, so adapters differ only in availability
// checks and credentials.
type Provider interface {
	Name() string
	Model() string
	URL() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (Result, error)
}

type chatAdapter struct {
	name    string
	model   string
	baseURL string
	client  *openai.Client
	timeout time.Duration
}

func (a *chatAdapter) Name() string  { return a.name }
func (a *chatAdapter) Model() string { return a.model }
func (a *chatAdapter) URL() string   { return a.baseURL }

func (a *chatAdapter) Generate(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}

	resp, err := a.client.CreateChatCompletion(reqCtx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%s chat completion: %w", a.name, err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%s returned no choices", a.name)
	}

	msg := resp.Choices[0].Message
	return Result{
		Content:   msg.Content,
		ToolCalls: msg.ToolCalls,
		Provider:  a.name,
	}, nil
}

// LocalProvider talks to a self-hosted OpenAI-compatible server
// (LM Studio, Ollama and friends).
type LocalProvider struct {
	chatAdapter
}

func NewLocalProvider(baseURL, model string, timeout time.Duration) *LocalProvider {
	cfg := openai.DefaultConfig("local")
	cfg.BaseURL = baseURL
	return &LocalProvider{chatAdapter{
		name:    "local",
		model:   model,
		baseURL: baseURL,
		client:  openai.NewClientWithConfig(cfg),
		timeout: timeout,
	}}
}

// Available probes the server's model listing with a short deadline.
func (p *LocalProvider) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.ListModels(probeCtx)
	return err == nil
}

// GroqProvider talks to the Groq cloud API. Only aggregated summaries are
// ever sent through it; raw emails, tokens and DB rows stay out.
type GroqProvider struct {
	chatAdapter
	apiKey string
}

func NewGroqProvider(baseURL, apiKey, model string, timeout time.Duration) *GroqProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &GroqProvider{
		chatAdapter: chatAdapter{
			name:    "groq",
			model:   model,
			baseURL: baseURL,
			client:  openai.NewClientWithConfig(cfg),
			timeout: timeout,
		},
		apiKey: apiKey,
	}
}

// Available reports whether an API key is configured. No test request is
// made to avoid burning quota.
func (p *GroqProvider) Available(_ context.Context) bool {
	return len(p.apiKey) > 10
}
