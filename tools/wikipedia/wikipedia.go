package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/schema"
	"github.com/laibamasod/research-agent/tools"
	"github.com/laibamasod/research-agent/utils"
	"github.com/tmc/langchaingo/llms"
)

const ToolName = "WikipediaSearch"

// DefaultBaseURL is the English Wikipedia MediaWiki API endpoint.
const DefaultBaseURL = "https://en.wikipedia.org/w/api.php"

// DefaultSentences is how many summary sentences are returned by default.
// The extracts API caps exsentences at 10.
const (
	DefaultSentences = 5
	maxSentences     = 10
)

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query     string `json:"Query" yaml:"Query" jsonschema:"title=Query,description=Search keywords for the Wikipedia article."`
	Sentences int    `json:"Sentences,omitempty" yaml:"Sentences,omitempty" jsonschema:"title=Sentences,description=Number of sentences in the summary; default 5."`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Title   string `json:"title" yaml:"Title" jsonschema:"title=title,description=The article title."`
	URL     string `json:"url" yaml:"URL" jsonschema:"title=url,description=The canonical article URL."`
	Summary string `json:"summary" yaml:"Summary" jsonschema:"title=summary,description=The article summary."`
}

func (i *SearchResult) GetType() llms.ChatMessageType {
	return llms.ChatMessageTypeAI
}

func (i *SearchResult) GetContent() string {
	return utils.ToJSON(i)
}

// MediaWiki query wire format
type queryResponse struct {
	Query struct {
		Pages map[string]page `json:"pages"`
	} `json:"query"`
}

type page struct {
	PageID  int    `json:"pageid"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`
	Index   int    `json:"index"`
}

// Tool is a tool that fetches encyclopedic summaries from Wikipedia.
type Tool struct {
	name        string
	description string
	funcParams  any

	baseURL    string
	httpClient *http.Client
}

var _ tools.Tool[SearchRequest, SearchResult] = (*Tool)(nil)

func New() (*Tool, error) {
	sc, err := schema.New(reflect.TypeOf(SearchRequest{}))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	tool := &Tool{
		name:        ToolName,
		description: "Searches Wikipedia for encyclopedic summaries and overviews. Use this for getting general knowledge, definitions, or background information on topics.",
		baseURL:     DefaultBaseURL,
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

	sentences := req.Sentences
	if sentences <= 0 {
		sentences = DefaultSentences
	}
	if sentences > maxSentences {
		sentences = maxSentences
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("prop", "extracts|info")
	q.Set("inprop", "url")
	q.Set("generator", "search")
	q.Set("gsrsearch", req.Query)
	q.Set("gsrlimit", "1")
	q.Set("explaintext", "1")
	q.Set("exsentences", fmt.Sprintf("%d", sentences))
	q.Set("redirects", "1")

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	hres, err := t.httpClient.Do(hreq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query Wikipedia")
	}
	defer hres.Body.Close()

	if hres.StatusCode != http.StatusOK {
		return nil, errors.Newf("Wikipedia returned status %d", hres.StatusCode)
	}

	body, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}
	if len(qr.Query.Pages) == 0 {
		return nil, errors.Newf("no Wikipedia article found for: %s", req.Query)
	}

	// gsrlimit=1 returns a single page; the loop takes whichever key it has.
	var p page
	for _, v := range qr.Query.Pages {
		p = v
		break
	}

	return &SearchResult{
		Title:   p.Title,
		URL:     p.FullURL,
		Summary: p.Extract,
	}, nil
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
	return fmt.Sprintf("Title: %s\nURL: %s\nSummary: %s\n", r.Title, r.URL, r.Summary)
}
