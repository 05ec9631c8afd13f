package researcher_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/laibamasod/research-agent/researcher"
	"github.com/laibamasod/research-agent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	responses []*llms.ContentResponse
	calls     [][]llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	if len(m.responses) == 0 {
		return nil, errors.New("no more scripted responses")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

type stubTool struct {
	name   string
	result string
}

func (t stubTool) Name() string        { return t.name }
func (t stubTool) Description() string { return "stub tool" }
func (t stubTool) Parameters() any     { return nil }
func (t stubTool) Call(ctx context.Context, input string) (string, error) {
	return t.result, nil
}

var _ tools.ITool = stubTool{}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   id,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			}},
		}},
	}
}

func Test_FindReferences(t *testing.T) {
	llmModel := &fakeModel{
		responses: []*llms.ContentResponse{
			toolCallResponse("c1", "ArxivSearch", `{"query":"black holes"}`),
			textResponse("See https://arxiv.org/abs/2501.00001 for details."),
		},
	}

	ag, err := researcher.New(llmModel,
		researcher.WithTools(stubTool{name: "ArxivSearch", result: "Paper 1: Black Holes"}))
	require.NoError(t, err)

	out, err := ag.FindReferences(context.Background(), "Find papers about black holes.")
	require.NoError(t, err)
	assert.Equal(t, "See https://arxiv.org/abs/2501.00001 for details.", out)

	// The system prompt names the tools and carries today's date.
	require.NotEmpty(t, llmModel.calls)
	systemText := llmModel.calls[0][0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, systemText, "ArxivSearch")
	assert.Contains(t, systemText, "WebSearch")
	assert.Contains(t, systemText, "WikipediaSearch")
	assert.Contains(t, systemText, fmt.Sprintf("Today is %s.", time.Now().Format("2006-01-02")))
}

func Test_FindReferencesToolCallLimit(t *testing.T) {
	// The agent never answers, it keeps calling tools until the cap.
	var responses []*llms.ContentResponse
	for i := 0; i < 6; i++ {
		responses = append(responses, toolCallResponse(fmt.Sprintf("c%d", i), "ArxivSearch", `{"query":"q"}`))
	}
	llmModel := &fakeModel{responses: responses}

	ag, err := researcher.New(llmModel,
		researcher.WithTools(stubTool{name: "ArxivSearch", result: "Paper"}))
	require.NoError(t, err)

	_, err = ag.FindReferences(context.Background(), "loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool calls limit is exceeded")
}

func Test_ResearchTask(t *testing.T) {
	assert.Equal(t,
		"Find 2-3 key papers and reliable overviews about quantum computing.",
		researcher.ResearchTask("quantum computing"))
}

func Test_PipelinePass(t *testing.T) {
	research := "Key sources: https://arxiv.org/abs/2501.00001 and https://en.wikipedia.org/wiki/Black_hole."
	llmModel := &fakeModel{
		responses: []*llms.ContentResponse{textResponse(research)},
	}

	ag, err := researcher.New(llmModel,
		researcher.WithTools(stubTool{name: "ArxivSearch", result: "Paper"}))
	require.NoError(t, err)

	p := researcher.NewPipeline(ag, llmModel,
		researcher.WithMinRatio(0.5))

	res, err := p.Run(context.Background(), "black hole science")
	require.NoError(t, err)
	assert.Equal(t, "black hole science", res.Topic)
	assert.Equal(t, researcher.ResearchTask("black hole science"), res.Task)
	assert.Equal(t, research, res.Research)
	require.NotNil(t, res.Evaluation)
	assert.True(t, res.Evaluation.Passed)
	assert.InDelta(t, 1.0, res.Evaluation.Ratio, 0.0001)
	assert.Nil(t, res.Reflection)
}

func Test_PipelineFailWithReflection(t *testing.T) {
	research := "Source: https://example.com/blog/black-holes"
	llmModel := &fakeModel{
		responses: []*llms.ContentResponse{
			textResponse(research),
			textResponse(`{"summary": "Sources are weak.", "improvements": ["Prefer arxiv.org papers."]}`),
		},
	}

	ag, err := researcher.New(llmModel,
		researcher.WithTools(stubTool{name: "ArxivSearch", result: "Paper"}))
	require.NoError(t, err)

	p := researcher.NewPipeline(ag, llmModel,
		researcher.WithMinRatio(0.4),
		researcher.WithReflection(true))

	res, err := p.Run(context.Background(), "black hole science")
	require.NoError(t, err)
	require.NotNil(t, res.Evaluation)
	assert.False(t, res.Evaluation.Passed)

	require.NotNil(t, res.Reflection)
	assert.Equal(t, "Sources are weak.", res.Reflection.Summary)
	assert.Equal(t, []string{"Prefer arxiv.org papers."}, res.Reflection.Improvements)

	// The reviewer prompt names the preferred domains and sees the report.
	reviewerCall := llmModel.calls[len(llmModel.calls)-1]
	systemText := reviewerCall[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, systemText, "arxiv.org")
	userText := reviewerCall[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, userText, "Evaluation report:")
	assert.Contains(t, userText, "Verdict: FAIL")
}

func Test_PipelineCustomDomains(t *testing.T) {
	research := "Source: https://docs.example.com/paper"
	llmModel := &fakeModel{
		responses: []*llms.ContentResponse{textResponse(research)},
	}

	ag, err := researcher.New(llmModel,
		researcher.WithTools(stubTool{name: "ArxivSearch", result: "Paper"}))
	require.NoError(t, err)

	p := researcher.NewPipeline(ag, llmModel,
		researcher.WithDomains("example.com"),
		researcher.WithMinRatio(1.0))

	res, err := p.Run(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, res.Evaluation.Passed)
}
