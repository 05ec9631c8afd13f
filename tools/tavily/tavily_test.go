package tavily_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/tools/tavily"
	"github.com/laibamasod/research-agent/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "testkey")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req tavilyModels.SearchRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		assert.Equal(t, "What is capital of France", req.Query)
		assert.Equal(t, 5, req.MaxResults)
		assert.Equal(t, "testkey", req.APIKey)

		resp := tavily.SearchResult{
			Results: []tavilyModels.SearchResult{
				{Title: "Test Result", URL: "https://example.com", Content: "Test content", Score: 0.9},
			},
		}
		if req.IncludeAnswer {
			resp.Answer = "Paris"
		}
		if req.IncludeImages {
			resp.Images = []string{"https://example.com/paris.jpg"}
		}

		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ctx := context.Background()

	tool, err := tavily.New()
	require.NoError(t, err)
	tool.WithBaseURL(server.URL).WithHTTPClient(server.Client())

	assert.Equal(t, tavily.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), `web search`)

	params := utils.ToJSONIndent(tool.Parameters())
	assert.Contains(t, params, `"Query"`)
	assert.Contains(t, params, `"MaxResults"`)
	assert.Contains(t, params, `"IncludeImages"`)

	_, err = tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, chatmodel.ErrFailedUnmarshalInput))
	assert.EqualError(t, err, "failed to unmarshal input: check the schema and try again")

	input := &tavily.SearchRequest{
		Query: "What is capital of France",
		// over the cap, clamped to 5
		MaxResults: 10,
	}

	resp, err := tool.Run(ctx, input)
	require.NoError(t, err)
	exp := `ANSWER: Paris
- URL: https://example.com
  TITLE: Test Result
  SCORE: 0.900000
  CONTENT: Test content
`
	assert.Equal(t, exp, resp.String())

	input.IncludeImages = true
	resp, err = tool.Run(ctx, input)
	require.NoError(t, err)
	assert.Contains(t, resp.String(), "Found 1 images.")
	assert.Contains(t, resp.String(), "https://example.com/paris.jpg")

	resp2, err := tool.Call(ctx, utils.ToJSON(&tavily.SearchRequest{Query: "What is capital of France"}))
	require.NoError(t, err)
	exp = `{"results":[{"title":"Test Result","url":"https://example.com","content":"Test content","score":0.9}],"answer":"Paris"}`
	assert.Equal(t, exp, resp2)

	_, err = tool.Run(ctx, &tavily.SearchRequest{})
	require.Error(t, err)
}

func Test_Tool_NoAPIKey(t *testing.T) {
	old, had := os.LookupEnv("TAVILY_API_KEY")
	os.Unsetenv("TAVILY_API_KEY")
	t.Cleanup(func() {
		if had {
			os.Setenv("TAVILY_API_KEY", old)
		}
	})

	_, err := tavily.New()
	require.Error(t, err)
}
