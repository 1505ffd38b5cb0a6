package llm

import (
	"context"
	"errors"
	"time"

	"lumen-finance-backend/internal/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrNoProvider is returned when neither the local server nor Groq can
// serve a request.
var ErrNoProvider = errors.New("no LLM available: check local server or Groq API key")

// Router is the single switch point for all LLM operations. Provider
// selection follows the LLM_PROVIDER setting: "local", "groq", or "auto"
// (local first, Groq as fallback).
type Router struct {
	local    Provider
	groq     Provider
	provider string
	logger   *logrus.Logger
}

func NewRouter(cfg *config.Config, logger *logrus.Logger) *Router {
	return &Router{
		local:    NewLocalProvider(cfg.LocalLLMURL, cfg.LocalLLMModel, time.Duration(cfg.LocalLLMTimeout)*time.Second),
		groq:     NewGroqProvider(cfg.GroqAPIURL, cfg.GroqAPIKey, cfg.GroqModel, time.Duration(cfg.GroqTimeout)*time.Second),
		provider: cfg.LLMProvider,
		logger:   logger,
	}
}

// NewRouterWithProviders wires explicit providers, used by tests.
func NewRouterWithProviders(local, groq Provider, provider string, logger *logrus.Logger) *Router {
	return &Router{local: local, groq: groq, provider: provider, logger: logger}
}

// Generate runs a chat completion against the configured provider.
func (r *Router) Generate(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (Result, error) {
	switch r.provider {
	case config.ProviderLocal:
		return r.local.Generate(ctx, messages, tools)
	case config.ProviderGroq:
		return r.groq.Generate(ctx, messages, tools)
	}

	// auto: local first, then Groq
	if r.local.Available(ctx) {
		result, err := r.local.Generate(ctx, messages, tools)
		if err == nil {
			return result, nil
		}
		r.logger.WithError(err).Warn("llm.Router.local failed, falling back to groq")
	}

	if r.groq.Available(ctx) {
		return r.groq.Generate(ctx, messages, tools)
	}

	return Result{}, ErrNoProvider
}

// GenerateSimple runs a plain prompt without tool calling.
func (r *Router) GenerateSimple(ctx context.Context, prompt, systemPrompt string) (Result, error) {
	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	return r.Generate(ctx, messages, nil)
}

// ProviderStatus describes one backend for the status endpoint.
type ProviderStatus struct {
	Available bool   `json:"available"`
	Model     string `json:"model"`
	URL       string `json:"url,omitempty"`
}

// Status describes the router configuration and backend availability.
type Status struct {
	Provider string         `json:"provider"`
	Local    ProviderStatus `json:"local"`
	Groq     ProviderStatus `json:"groq"`
}

// Status reports the active provider setting and each backend's state.
func (r *Router) Status(ctx context.Context) Status {
	return Status{
		Provider: r.provider,
		Local: ProviderStatus{
			Available: r.local.Available(ctx),
			Model:     r.local.Model(),
			URL:       r.local.URL(),
		},
		Groq: ProviderStatus{
			Available: r.groq.Available(ctx),
			Model:     r.groq.Model(),
		},
	}
}
