package researcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/laibamasod/research-agent/assistants"
	"github.com/laibamasod/research-agent/encoding"
	"github.com/laibamasod/research-agent/metricskey"
	"github.com/laibamasod/research-agent/sourceeval"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// DefaultMinRatio is the default threshold for the preferred-domain ratio.
const DefaultMinRatio = 0.4

// DefaultTopDomains is a short list of preferred domains for source evaluation.
var DefaultTopDomains = []string{
	"wikipedia.org", "nature.com", "science.org", "arxiv.org",
	"nasa.gov", "mit.edu", "stanford.edu", "harvard.edu",
}

var reflectionPromptTemplate = prompts.NewPromptTemplate(`You are a research quality reviewer. The research below cited sources outside the preferred domains:

{{.domains}}

Review the research output and the evaluation report, then respond with a short summary of the sourcing quality and a list of concrete improvements that would raise the share of preferred-domain sources.`, []string{"domains"})

// Reflection is the reviewer's structured answer for a failed evaluation.
type Reflection struct {
	Summary      string   `json:"summary" jsonschema:"description=Short summary of the sourcing quality."`
	Improvements []string `json:"improvements" jsonschema:"description=Concrete suggestions to improve the share of preferred-domain sources."`
}

func (r Reflection) GetContent() string { return r.Summary }

// PipelineResult holds the outcome of one evaluation run.
type PipelineResult struct {
	Topic      string             `json:"topic"`
	Task       string             `json:"task"`
	Research   string             `json:"research"`
	Evaluation *sourceeval.Result `json:"evaluation"`
	// Reflection is set only when the evaluation failed and
	// reflection was requested.
	Reflection *Reflection `json:"reflection,omitempty"`
}

// Pipeline runs research on a topic and evaluates the cited sources
// against a list of preferred domains.
type Pipeline struct {
	agent     *Agent
	llm       llms.Model
	allowList sourceeval.AllowList
	minRatio  float64
	reflect   bool
}

// PipelineOption configures the Pipeline.
type PipelineOption func(*Pipeline)

// WithDomains replaces the default preferred domains.
func WithDomains(domains ...string) PipelineOption {
	return func(p *Pipeline) {
		p.allowList = sourceeval.NewAllowList(domains...)
	}
}

// WithMinRatio sets the pass threshold, between 0 and 1.
func WithMinRatio(minRatio float64) PipelineOption {
	return func(p *Pipeline) {
		p.minRatio = minRatio
	}
}

// WithReflection enables the reflection step on a failed evaluation.
func WithReflection(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.reflect = enabled
	}
}

// NewPipeline creates an evaluation pipeline around the research agent.
func NewPipeline(agent *Agent, llmModel llms.Model, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		agent:     agent,
		llm:       llmModel,
		allowList: sourceeval.NewAllowList(DefaultTopDomains...),
		minRatio:  DefaultMinRatio,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ResearchTask formats the research task for a topic.
func ResearchTask(topic string) string {
	return fmt.Sprintf("Find 2-3 key papers and reliable overviews about %s.", topic)
}

// Run executes the pipeline: research the topic, evaluate the cited
// sources, and optionally reflect on a failed evaluation.
func (p *Pipeline) Run(ctx context.Context, topic string) (*PipelineResult, error) {
	task := ResearchTask(topic)

	research, err := p.agent.FindReferences(ctx, task)
	if err != nil {
		return nil, errors.WithMessage(err, "research failed")
	}

	eval, err := sourceeval.Evaluate(p.allowList, research, p.minRatio)
	if err != nil {
		return nil, errors.WithMessage(err, "evaluation failed")
	}

	if eval.Passed {
		metricskey.StatsEvaluationsPassed.IncrCounter(1, AssistantName)
	} else {
		metricskey.StatsEvaluationsFailed.IncrCounter(1, AssistantName)
	}

	logger.ContextKV(ctx, xlog.INFO,
		"agent", AssistantName,
		"topic", topic,
		"passed", eval.Passed,
		"ratio", eval.Ratio,
		"matched", len(eval.Matched),
	)

	res := &PipelineResult{
		Topic:      topic,
		Task:       task,
		Research:   research,
		Evaluation: eval,
	}

	if p.reflect && !eval.Passed {
		reflection, err := p.runReflection(ctx, research, eval)
		if err != nil {
			return nil, errors.WithMessage(err, "reflection failed")
		}
		res.Reflection = reflection
	}

	return res, nil
}

func (p *Pipeline) runReflection(ctx context.Context, research string, eval *sourceeval.Result) (*Reflection, error) {
	reviewer := assistants.NewAssistant[Reflection](p.llm, reflectionPromptTemplate,
		assistants.WithMode(encoding.ModeJSON),
		assistants.WithPromptInput(map[string]any{
			"domains": strings.Join(p.allowList.Domains(), ", "),
		})).
		WithName("SourceReviewer").
		WithDescription("Reviews research output and suggests how to improve its sourcing.")

	input := fmt.Sprintf("Research output:\n%s\n\nEvaluation report:\n%s", research, eval.Report)

	out, _, err := assistants.Run(ctx, reviewer, input, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}
