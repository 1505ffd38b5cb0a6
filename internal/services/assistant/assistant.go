package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"lumen-finance-backend/internal/services/llm"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You are a personal finance assistant. You can only see the user's
transactions through the tools provided; you have no other access to
their data. All amounts are in Indian Rupees (₹). Answer from tool
results only and say so when the data cannot answer the question.
Keep answers short and concrete.`

// maxToolRounds bounds the tool-call loop so a confused model cannot spin.
const maxToolRounds = 5

// generator is the slice of the LLM router the assistant needs.
type generator interface {
	Generate(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (llm.Result, error)
	Status(ctx context.Context) llm.Status
}

// Assistant answers natural-language questions about spending by letting
// the LLM call the read-only toolset.
type Assistant struct {
	llm    generator
	tools  *Toolset
	logger *logrus.Logger
}

func NewAssistant(router generator, tools *Toolset, logger *logrus.Logger) *Assistant {
	return &Assistant{llm: router, tools: tools, logger: logger}
}

// Tools lists the available tool names and schemas.
func (a *Assistant) Tools() []openai.Tool { return a.tools.Definitions() }

// ExecuteTool runs one named tool directly, for the execute endpoint.
// Execution errors are sanitized so DSNs and file paths never reach the
// client; an unknown name is a request mistake and gets a full message.
func (a *Assistant) ExecuteTool(_ context.Context, name string, args json.RawMessage) (string, error) {
	names := a.tools.Names()
	if !slices.Contains(names, name) {
		return "", fmt.Errorf("unknown tool %q, available: %s", name, strings.Join(names, ", "))
	}

	result, err := a.tools.Execute(name, args)
	if err != nil {
		a.logger.WithError(err).WithField("tool", name).Error("assistant.ExecuteTool failed")
		return "", sanitizeError(name, err)
	}
	return result, nil
}

// ChatResult carries the final answer plus which tools ran along the way.
type ChatResult struct {
	Answer    string   `json:"answer"`
	ToolsUsed []string `json:"tools_used"`
	Provider  string   `json:"provider"`
}

// Chat runs a tool-calling conversation for one user message. The model
// may request tools for up to maxToolRounds rounds before it must answer.
func (a *Assistant) Chat(ctx context.Context, message string) (*ChatResult, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}

	var toolsUsed []string
	var provider string

	for round := 0; round < maxToolRounds; round++ {
		result, err := a.llm.Generate(ctx, messages, a.tools.Definitions())
		if err != nil {
			return nil, err
		}
		provider = result.Provider

		if len(result.ToolCalls) == 0 {
			return &ChatResult{Answer: result.Content, ToolsUsed: toolsUsed, Provider: provider}, nil
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   result.Content,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			toolsUsed = append(toolsUsed, call.Function.Name)

			output, err := a.tools.Execute(call.Function.Name, json.RawMessage(call.Function.Arguments))
			if err != nil {
				a.logger.WithError(err).WithField("tool", call.Function.Name).Error("assistant.Chat tool failed")
				output = fmt.Sprintf(`{"error": %q}`, sanitizeError(call.Function.Name, err).Error())
			}

			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	// Out of rounds: force a final answer without tools.
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "Answer now using the tool results you already have.",
	})
	result, err := a.llm.Generate(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	return &ChatResult{Answer: result.Content, ToolsUsed: toolsUsed, Provider: result.Provider}, nil
}

// Status reports LLM backend availability for the status endpoint.
func (a *Assistant) Status(ctx context.Context) llm.Status {
	return a.llm.Status(ctx)
}

// sanitizeError keeps the tool name and error category but drops the
// message, which can leak queries or paths.
func sanitizeError(tool string, err error) error {
	return fmt.Errorf("tool %s failed (%T)", tool, err)
}
