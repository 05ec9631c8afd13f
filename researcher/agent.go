// Package researcher implements the research assistant: an LLM agent with
// arXiv, web and Wikipedia search tools, and an evaluation pipeline that
// scores the sources it cites against a list of preferred domains.
package researcher

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/laibamasod/research-agent/assistants"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/tools"
	"github.com/laibamasod/research-agent/tools/arxiv"
	"github.com/laibamasod/research-agent/tools/tavily"
	"github.com/laibamasod/research-agent/tools/wikipedia"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

var logger = xlog.NewPackageLogger("github.com/laibamasod/research-agent", "researcher")

// AssistantName is the agent name used in prompts, logs and metrics.
const AssistantName = "Researcher"

// DefaultMaxToolCalls limits one research run to five tool calls.
const DefaultMaxToolCalls = 5

// DefaultTemperature keeps the research answers close to the sources.
const DefaultTemperature = 0.1

var systemPromptTemplate = prompts.NewPromptTemplate(`You are a research assistant with access to three tools:

1. ArxivSearch: Searches arXiv for academic research papers. Use this for finding scientific papers, academic articles, or research publications. IMPORTANT: Only pass the 'query' parameter. Do NOT specify max_results - it defaults to 5 and that is the maximum allowed.

2. WebSearch: Performs a general-purpose web search. Use this for finding current news, recent developments, or general web information.

3. WikipediaSearch: Searches Wikipedia for encyclopedic summaries and overviews. Use this for getting general knowledge, definitions, or background information on topics.

Today is {{.today}}.

Use the appropriate tools to gather information and provide a comprehensive answer to the user's task.`, []string{"today"})

// Agent performs research tasks with external search tools.
type Agent struct {
	assistant *assistants.Assistant[chatmodel.String]
}

type config struct {
	tools        []tools.ITool
	callback     assistants.Callback
	assistantOps []assistants.Option
}

// Option configures the Agent.
type Option func(*config)

// WithTools replaces the default tool set.
func WithTools(list ...tools.ITool) Option {
	return func(c *config) {
		c.tools = list
	}
}

// WithCallback sets the callback handler for agent progress.
func WithCallback(cb assistants.Callback) Option {
	return func(c *config) {
		c.callback = cb
	}
}

// WithAssistantOptions passes extra options to the underlying assistant.
func WithAssistantOptions(opts ...assistants.Option) Option {
	return func(c *config) {
		c.assistantOps = append(c.assistantOps, opts...)
	}
}

// New creates the research agent. Without WithTools the default set is
// arXiv, web search and Wikipedia; web search requires TAVILY_API_KEY.
func New(llmModel llms.Model, opts ...Option) (*Agent, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	toolSet := cfg.tools
	if toolSet == nil {
		arxivSearch, err := arxiv.New()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create arXiv search tool")
		}
		webSearch, err := tavily.New()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create web search tool")
		}
		wikiSearch, err := wikipedia.New()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create Wikipedia search tool")
		}
		toolSet = []tools.ITool{arxivSearch, webSearch, wikiSearch}
	}

	asOpts := []assistants.Option{
		assistants.WithMaxToolCalls(DefaultMaxToolCalls),
		assistants.WithTemperature(DefaultTemperature),
	}
	if cfg.callback != nil {
		asOpts = append(asOpts, assistants.WithCallback(cfg.callback))
	}
	asOpts = append(asOpts, cfg.assistantOps...)

	assistant := assistants.NewAssistant[chatmodel.String](llmModel, systemPromptTemplate, asOpts...).
		WithName(AssistantName).
		WithDescription("A research assistant that finds papers, news and overviews using external search tools.").
		WithTools(toolSet...)

	assistant.WithPromptInputProvider(func(ctx context.Context, input string) (map[string]any, error) {
		return map[string]any{
			"today": time.Now().Format("2006-01-02"),
		}, nil
	})

	logger.KV(xlog.DEBUG,
		"agent", AssistantName,
		"tools", tools.GetDescriptions(toolSet...),
	)

	return &Agent{assistant: assistant}, nil
}

// Assistant exposes the underlying assistant.
func (a *Agent) Assistant() assistants.IAssistant {
	return a.assistant
}

// FindReferences performs a research task using the external tools and
// returns the agent's final answer.
func (a *Agent) FindReferences(ctx context.Context, task string) (string, error) {
	res, err := a.assistant.Call(ctx, task, nil)
	if err != nil {
		return "", err
	}
	logger.ContextKV(ctx, xlog.DEBUG,
		"agent", AssistantName,
		"tool_calls", res.ToolCalls,
		"response_size", len(res.Content),
	)
	return res.Content, nil
}
