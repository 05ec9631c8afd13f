package arxiv

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/schema"
	"github.com/laibamasod/research-agent/tools"
	"github.com/laibamasod/research-agent/utils"
	"github.com/tmc/langchaingo/llms"
)

const ToolName = "ArxivSearch"

// DefaultBaseURL is the arXiv Atom API endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// DefaultMaxResults caps how many papers a single search returns.
const DefaultMaxResults = 5

const summaryLimit = 200

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query      string `json:"Query" yaml:"Query" jsonschema:"title=Query,description=Search keywords for research papers."`
	MaxResults int    `json:"MaxResults,omitempty" yaml:"MaxResults,omitempty" jsonschema:"title=Max Results,description=Number of papers to return; default and maximum 5."`
}

// Paper is one arXiv entry.
type Paper struct {
	Title     string   `json:"title" yaml:"Title"`
	Authors   []string `json:"authors,omitempty" yaml:"Authors,omitempty"`
	Published string   `json:"published,omitempty" yaml:"Published,omitempty"`
	URL       string   `json:"url" yaml:"URL"`
	PDFURL    string   `json:"pdf_url,omitempty" yaml:"PDFURL,omitempty"`
	Summary   string   `json:"summary,omitempty" yaml:"Summary,omitempty"`
}

// SearchResult represents the structure for a search response
type SearchResult struct {
	Papers []Paper `json:"papers" yaml:"Papers" jsonschema:"title=papers,description=The papers found on arXiv."`
}

func (i *SearchResult) GetType() llms.ChatMessageType {
	return llms.ChatMessageTypeAI
}

func (i *SearchResult) GetContent() string {
	return utils.ToJSON(i)
}

// atom feed wire format
type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

type entry struct {
	ID        string   `xml:"id"`
	Title     string   `xml:"title"`
	Summary   string   `xml:"summary"`
	Published string   `xml:"published"`
	Authors   []author `xml:"author"`
	Links     []link   `xml:"link"`
}

type author struct {
	Name string `xml:"name"`
}

type link struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Tool is a tool that searches arXiv for academic research papers.
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
		description: "Searches arXiv for academic research papers. Use this for finding scientific papers, academic articles, or research publications.",
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

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > DefaultMaxResults {
		maxResults = DefaultMaxResults
	}

	q := url.Values{}
	q.Set("search_query", "all:"+req.Query)
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprintf("%d", maxResults))

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	hres, err := t.httpClient.Do(hreq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query arXiv")
	}
	defer hres.Body.Close()

	if hres.StatusCode != http.StatusOK {
		return nil, errors.Newf("arXiv returned status %d", hres.StatusCode)
	}

	body, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse Atom feed")
	}

	res := &SearchResult{}
	for _, e := range f.Entries {
		p := Paper{
			Title:     strings.TrimSpace(e.Title),
			Published: e.Published,
			URL:       e.ID,
			Summary:   strings.TrimSpace(e.Summary),
		}
		for _, a := range e.Authors {
			p.Authors = append(p.Authors, a.Name)
		}
		for _, l := range e.Links {
			switch {
			case l.Title == "pdf" || l.Type == "application/pdf":
				p.PDFURL = l.Href
			case l.Rel == "alternate":
				p.URL = l.Href
			}
		}
		res.Papers = append(res.Papers, p)
	}

	return res, nil
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
	if len(r.Papers) == 0 {
		return "No papers found.\n"
	}

	var buf bytes.Buffer
	for i, p := range r.Papers {
		fmt.Fprintf(&buf, "Paper %d: %s\n", i+1, p.Title)
		fmt.Fprintf(&buf, "  Authors: %s\n", strings.Join(p.Authors, ", "))
		fmt.Fprintf(&buf, "  Published: %s\n", p.Published)
		fmt.Fprintf(&buf, "  URL: %s\n", p.URL)
		if p.PDFURL != "" {
			fmt.Fprintf(&buf, "  PDF: %s\n", p.PDFURL)
		}
		fmt.Fprintf(&buf, "  Summary: %s\n", truncate(p.Summary, summaryLimit))
	}
	return buf.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
