package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyClient "github.com/diverged/tavily-go/client"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/schema"
	"github.com/laibamasod/research-agent/tools"
	"github.com/laibamasod/research-agent/utils"
	"github.com/tmc/langchaingo/llms"
)

const ToolName = "WebSearch"

// DefaultMaxResults caps how many results a single search returns.
const DefaultMaxResults = 5

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query         string `json:"Query" yaml:"Query" jsonschema:"title=Query,description=The query to search web."`
	MaxResults    int    `json:"MaxResults,omitempty" yaml:"MaxResults,omitempty" jsonschema:"title=Max Results,description=Number of results to return; default and maximum 5."`
	IncludeImages bool   `json:"IncludeImages,omitempty" yaml:"IncludeImages,omitempty" jsonschema:"title=Include Images,description=Whether to include image results."`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"Results" jsonschema:"title=results,description=The results from a web search."`
	Answer  string                      `json:"answer,omitempty" yaml:"Answer,omitempty" jsonschema:"title=answer,description=The aggregated answer from a web search."`
	Images  []string                    `json:"images,omitempty" yaml:"Images,omitempty" jsonschema:"title=images,description=Image URLs from a web search."`
}

func (i *SearchResult) GetType() llms.ChatMessageType {
	return llms.ChatMessageTypeAI
}

func (i *SearchResult) GetContent() string {
	return utils.ToJSON(i)
}

// Tool is a tool that provides a web search functionality
type Tool struct {
	name        string
	description string
	funcParams  any

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[SearchRequest, SearchResult] = (*Tool)(nil)

func New() (*Tool, error) {
	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	sc, err := schema.New(reflect.TypeOf(SearchRequest{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Performs a general-purpose web search. Use this for finding current news, recent developments, or general web information.",
		httpClient:  http.DefaultClient,
		funcParams:  sc.Parameters,
	}
	return tool, nil
}

func (t *Tool) WithBaseURL(baseURL string) *Tool {
	t.baseURL = baseURL
	return t
}

func (t *Tool) WithHTTPClient(client *http.Client) *Tool {
	t.httpClient = client
	return t
}

func (t *Tool) Name() string {
	return t.name
}

func (t *Tool) Description() string {
	return t.description
}

func (t *Tool) Parameters() any {
	return t.funcParams
}

func (t *Tool) Run(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	apikey := os.Getenv("TAVILY_API_KEY")
	if apikey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > DefaultMaxResults {
		maxResults = DefaultMaxResults
	}

	client := tavilygo.NewClient(apikey)
	if t.baseURL != "" {
		client.BaseURL = t.baseURL
	}
	if t.httpClient != nil {
		client.HTTPClient = t.httpClient
	}

	searchReq := tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		IncludeImages: req.IncludeImages,
		MaxResults:    maxResults,
		APIKey:        client.APIKey,
	}

	searchResp, err := search(ctx, client, searchReq)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to perform search")
	}

	res := &SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
		Images:  searchResp.Images,
	}

	return res, nil
}

// searchResponse extends the upstream response with the image URLs
// that the API returns when include_images is set.
type searchResponse struct {
	tavilyModels.SearchResponse
	Images []string `json:"images,omitempty"`
}

func search(ctx context.Context, c *tavilyClient.TavilyClient, req tavilyModels.SearchRequest) (*searchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(hr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to make request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bs, _ := io.ReadAll(resp.Body)
		return nil, errors.Newf("request failed with status code %d: %s", resp.StatusCode, string(bs))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return &searchResp, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	var req SearchRequest
	if err := json.Unmarshal(utils.CleanJSON([]byte(input)), &req); err != nil {
		return "", errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal output")
	}
	return string(bs), nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", result.Content)
	}

	if len(r.Images) > 0 {
		fmt.Fprintf(&buf, "Found %d images.\n", len(r.Images))
		for _, img := range r.Images {
			fmt.Fprintf(&buf, "- IMAGE: %s\n", img)
		}
	}

	return buf.String()
}
