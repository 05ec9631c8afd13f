package assistants

import (
	"context"
	"fmt"
	"io"

	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/laibamasod/research-agent/tools"
	"github.com/laibamasod/research-agent/utils"
	"github.com/tmc/langchaingo/llms"
)

// NoopCallback does nothing.
type NoopCallback struct{}

func (NoopCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string)       {}
func (NoopCallback) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {}
func (NoopCallback) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {}
func (NoopCallback) OnAssistantStart(ctx context.Context, assistant IAssistant, input string)  {}
func (NoopCallback) OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, resp *CallResult) {
}
func (NoopCallback) OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error) {
}
func (NoopCallback) OnAssistantLLMCallStart(ctx context.Context, assistant IAssistant, llm llms.Model, msgs []llms.MessageContent) {
}
func (NoopCallback) OnAssistantLLMCallEnd(ctx context.Context, assistant IAssistant, llm llms.Model, resp *llms.ContentResponse) {
}
func (NoopCallback) OnToolNotFound(ctx context.Context, assistant IAssistant, tool string) {}
func (NoopCallback) OnToolCallLimit(ctx context.Context, assistant IAssistant, calls int)  {}

// PrinterCallback prints the assistant progress to the given writer.
// This is what the console command uses in verbose mode.
type PrinterCallback struct {
	Out io.Writer
	// ShowMessages dumps the full message payload before each model call.
	ShowMessages bool
}

func NewPrinterCallback(out io.Writer) PrinterCallback {
	return PrinterCallback{Out: out}
}

func (p PrinterCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	fmt.Fprintf(p.Out, "[tool] %s: %s\n", tool.Name(), slices.StringUpto(input, 256))
}

func (p PrinterCallback) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {
	fmt.Fprintf(p.Out, "[tool] %s => %s\n", tool.Name(), slices.StringUpto(output, 256))
}

func (p PrinterCallback) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	fmt.Fprintf(p.Out, "[tool] %s failed: %s\n", tool.Name(), err.Error())
}

func (p PrinterCallback) OnAssistantStart(ctx context.Context, assistant IAssistant, input string) {
	fmt.Fprintf(p.Out, "[assistant] %s started\n", assistant.Name())
}

func (p PrinterCallback) OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, resp *CallResult) {
	fmt.Fprintf(p.Out, "[assistant] %s finished, %d tool calls\n", assistant.Name(), resp.ToolCalls)
}

func (p PrinterCallback) OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error) {
	fmt.Fprintf(p.Out, "[assistant] %s failed: %s\n", assistant.Name(), err.Error())
}

func (p PrinterCallback) OnAssistantLLMCallStart(ctx context.Context, assistant IAssistant, llm llms.Model, msgs []llms.MessageContent) {
	fmt.Fprintf(p.Out, "[assistant] %s: calling model with %d messages\n", assistant.Name(), len(msgs))
	if p.ShowMessages {
		utils.ShowMessageContents(p.Out, msgs)
	}
}

func (p PrinterCallback) OnAssistantLLMCallEnd(ctx context.Context, assistant IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	fmt.Fprintf(p.Out, "[assistant] %s: model responded with %d choices\n", assistant.Name(), len(resp.Choices))
}

func (p PrinterCallback) OnToolNotFound(ctx context.Context, assistant IAssistant, tool string) {
	fmt.Fprintf(p.Out, "[assistant] %s: tool not found: %s\n", assistant.Name(), tool)
}

func (p PrinterCallback) OnToolCallLimit(ctx context.Context, assistant IAssistant, calls int) {
	fmt.Fprintf(p.Out, "[assistant] %s: tool call limit reached: %d\n", assistant.Name(), calls)
}

// LogCallback logs the assistant progress with the package logger.
type LogCallback struct{}

func (LogCallback) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	logger.ContextKV(ctx, xlog.DEBUG, "tool", tool.Name(), "input", slices.StringUpto(input, 256))
}

func (LogCallback) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {
	logger.ContextKV(ctx, xlog.DEBUG, "tool", tool.Name(), "output", slices.StringUpto(output, 256))
}

func (LogCallback) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	logger.ContextKV(ctx, xlog.ERROR, "tool", tool.Name(), "err", err.Error())
}

func (LogCallback) OnAssistantStart(ctx context.Context, assistant IAssistant, input string) {
	logger.ContextKV(ctx, xlog.DEBUG, "assistant", assistant.Name(), "status", "started")
}

func (LogCallback) OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, resp *CallResult) {
	logger.ContextKV(ctx, xlog.DEBUG, "assistant", assistant.Name(), "status", "finished", "tool_calls", resp.ToolCalls)
}

func (LogCallback) OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error) {
	logger.ContextKV(ctx, xlog.ERROR, "assistant", assistant.Name(), "err", err.Error())
}

func (LogCallback) OnAssistantLLMCallStart(ctx context.Context, assistant IAssistant, llm llms.Model, msgs []llms.MessageContent) {
	logger.ContextKV(ctx, xlog.DEBUG, "assistant", assistant.Name(), "messages", len(msgs))
}

func (LogCallback) OnAssistantLLMCallEnd(ctx context.Context, assistant IAssistant, llm llms.Model, resp *llms.ContentResponse) {
	logger.ContextKV(ctx, xlog.DEBUG, "assistant", assistant.Name(), "choices", len(resp.Choices))
}

func (LogCallback) OnToolNotFound(ctx context.Context, assistant IAssistant, tool string) {
	logger.ContextKV(ctx, xlog.WARNING, "assistant", assistant.Name(), "tool_not_found", tool)
}

func (LogCallback) OnToolCallLimit(ctx context.Context, assistant IAssistant, calls int) {
	logger.ContextKV(ctx, xlog.WARNING, "assistant", assistant.Name(), "tool_call_limit", calls)
}
