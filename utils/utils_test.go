package utils_test

import (
	"strings"
	"testing"

	"github.com/laibamasod/research-agent/utils"
	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

func Test_CleanJSON(t *testing.T) {
	llmOutput := "\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"
	clean := utils.CleanJSON([]byte(llmOutput))

	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"
	assert.Equal(t, expected, string(clean))

	llmOutput = "Here you go:\n```json\n\n[{\"city\": \"Paris\", \"country\": \"France\"}]\n```\n\n"
	clean = utils.CleanJSON([]byte(llmOutput))

	expected = "[{\"city\": \"Paris\", \"country\": \"France\"}]"
	assert.Equal(t, expected, string(clean))
}

func Test_TrimBackticks(t *testing.T) {
	expected := "{\"city\": \"Paris\", \"country\": \"France\"}"

	assert.Equal(t, expected, utils.TrimBackticks("\n```json\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
	// the same
	assert.Equal(t, expected, utils.TrimBackticks(expected))
	assert.Equal(t, expected, utils.TrimBackticks("\n```\n\n{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
	assert.Equal(t, expected, utils.TrimBackticks("\n```{\"city\": \"Paris\", \"country\": \"France\"}\n\n```\n\n"))
}

func Test_BackticksJSON(t *testing.T) {
	json := "{\"city\": \"Paris\", \"country\": \"France\"}"
	wrapped := utils.BackticksJSON(json)

	expected := "\n```json\n{\"city\": \"Paris\", \"country\": \"France\"}\n```\n"
	assert.Equal(t, expected, wrapped)
}

func Test_StripComments(t *testing.T) {
	llmOutput := `Text
<!-- This is a comment
This is another comment -->
Some text
`
	clean := utils.StripComments(llmOutput)

	expected := `Text
Some text
`
	assert.Equal(t, expected, clean)
}

func Test_ErrorComment(t *testing.T) {
	exp := `<!-- @type=tool @name=tool1 @reason=error -->
something went wrong
`
	assert.Equal(t, exp, utils.ToolErrorComment("tool1", "something went wrong"))

	exp2 := `<!-- @type=assistant @name=agent2 @reason=error -->
something went wrong
`
	assert.Equal(t, exp2, utils.AssistantErrorComment("agent2", "something went wrong"))
}

func Test_FindLastUserQuestion(t *testing.T) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "system prompt"),
		llms.TextParts(llms.ChatMessageTypeHuman, "first question"),
		llms.TextParts(llms.ChatMessageTypeAI, "answer"),
		llms.TextParts(llms.ChatMessageTypeHuman, "second question"),
	}
	assert.Equal(t, "second question", utils.FindLastUserQuestion(msgs))
	assert.Empty(t, utils.FindLastUserQuestion(nil))
}

func Test_CountContentSize(t *testing.T) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "12345"),
		llms.TextParts(llms.ChatMessageTypeAI, "123"),
	}
	assert.Equal(t, uint64(8), utils.CountMessagesContentSize(msgs))

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: "1234"},
		},
	}
	assert.Equal(t, uint64(4), utils.CountResponseContentSize(resp))
	assert.Equal(t, uint64(0), utils.CountResponseContentSize(nil))
}

func Test_NewContentResponse(t *testing.T) {
	resp := utils.NewContentResponse("plain answer")
	assert.Equal(t, "plain answer", resp.Choices[0].Content)

	resp = utils.NewContentResponse(map[string]string{"city": "Paris"})
	assert.Contains(t, resp.Choices[0].Content, "```json")
	assert.Contains(t, resp.Choices[0].Content, `"city": "Paris"`)
}

func Test_ShowMessageContents(t *testing.T) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "question"),
		{
			Role: llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{
				llms.ToolCall{
					ID:   "c1",
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      "Echo",
						Arguments: `{"q":"x"}`,
					},
				},
			},
		},
		{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{ToolCallID: "c1", Name: "Echo", Content: "result"},
			},
		},
	}

	var sb strings.Builder
	utils.ShowMessageContents(&sb, msgs)
	out := sb.String()
	assert.Contains(t, out, "[0] Role: human")
	assert.Contains(t, out, "question")
	assert.Contains(t, out, "ToolCall ID=c1")
	assert.Contains(t, out, "ToolCallResponse ID=c1")
}

func Test_ToYAMLAndJSONIndent(t *testing.T) {
	val := map[string]string{"city": "Paris"}
	assert.Equal(t, "city: Paris\n", utils.ToYAML(val))

	indented := utils.JSONIndent(`{"city":"Paris"}`)
	assert.Equal(t, "{\n\t\"city\": \"Paris\"\n}", indented)
}

func Test_MergeInputs(t *testing.T) {
	merged := utils.MergeInputs(
		map[string]any{"a": 1, "b": 2},
		map[string]any{"b": 3, "c": 4},
	)
	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, merged)
}
