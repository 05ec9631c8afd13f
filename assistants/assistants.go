// Package assistants provides the Assistant runtime: a tool-calling loop
// around an LLM model, with message history, limits and typed output parsing.
package assistants

import (
	"context"

	"github.com/effective-security/xlog"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/tools"
	"github.com/laibamasod/research-agent/utils"
	"github.com/tmc/langchaingo/llms"
)

var logger = xlog.NewPackageLogger("github.com/laibamasod/research-agent", "assistants")

// IAssistant is a generic interface for Assistants.
type IAssistant interface {
	Name() string
	Description() string
	// GetTools returns the tools registered with the assistant.
	GetTools() []tools.ITool
	// GetSystemPrompt returns the rendered system prompt for the given input.
	GetSystemPrompt(ctx context.Context, input string, promptInputs map[string]any) (string, error)
	// Call runs the assistant with the given input and returns the raw response content.
	Call(ctx context.Context, input string, promptInputs map[string]any) (*CallResult, error)
}

// CallResult is the outcome of one assistant run.
type CallResult struct {
	// Content is the final response content from the model.
	Content string
	// Messages is the full conversation produced by the run,
	// including tool calls and tool responses.
	Messages []llms.MessageContent
	// ToolCalls is the total number of tool calls executed.
	ToolCalls int
}

// Callback provides hooks into the assistant life cycle.
type Callback interface {
	tools.Callback

	OnAssistantStart(ctx context.Context, assistant IAssistant, input string)
	OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, resp *CallResult)
	OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error)
	OnAssistantLLMCallStart(ctx context.Context, assistant IAssistant, llm llms.Model, msgs []llms.MessageContent)
	OnAssistantLLMCallEnd(ctx context.Context, assistant IAssistant, llm llms.Model, resp *llms.ContentResponse)
	OnToolNotFound(ctx context.Context, assistant IAssistant, tool string)
	OnToolCallLimit(ctx context.Context, assistant IAssistant, calls int)
}

// GetDescriptions returns a JSON block describing the assistants,
// suitable for embedding into an orchestrator prompt.
func GetDescriptions(list ...IAssistant) string {
	type assistantDescription struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	var descriptions []assistantDescription
	for _, a := range list {
		descriptions = append(descriptions, assistantDescription{
			Name:        a.Name(),
			Description: a.Description(),
		})
	}
	return utils.BackticksJSON(utils.ToJSONIndent(descriptions))
}

// Run executes the assistant and parses the response into the typed output.
func Run[O chatmodel.ContentProvider](ctx context.Context, a *Assistant[O], input string, promptInputs map[string]any) (*O, *CallResult, error) {
	var out O
	res, err := a.Run(ctx, input, promptInputs, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, res, nil
}
