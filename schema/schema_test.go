package schema_test

import (
	"reflect"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/laibamasod/research-agent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SearchType string

const (
	Web   SearchType = "web"
	Image SearchType = "image"
)

type Search struct {
	Topic string     `json:"topic,omitempty" jsonschema:"title=Topic,description=Topic of the search,example=golang"`
	Query string     `json:"query" jsonschema:"title=Query,description=Query to search for relevant content,example=what is golang"`
	Type  SearchType `json:"type"  jsonschema:"title=Type,description=Type of search,default=web,enum=web,enum=image"`
}

type Filters struct {
	Domains []string `json:"domains,omitempty" jsonschema:"title=Domains,description=Domains to restrict the search to"`
}

type NestedSearch struct {
	Query   string  `json:"query" jsonschema:"title=Query"`
	Filters Filters `json:"filters,omitempty" jsonschema:"title=Filters"`
}

func TestSchema(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(Search{}))
	require.NoError(t, err)

	params, ok := s.Parameters.(*jsonschema.Schema)
	require.True(t, ok)
	assert.Equal(t, "object", params.Type)
	assert.Equal(t, []string{"query", "type"}, params.Required)

	q, ok := params.Properties.Get("query")
	require.True(t, ok)
	assert.Equal(t, "string", q.Type)
	assert.Equal(t, "Query", q.Title)

	typ, ok := params.Properties.Get("type")
	require.True(t, ok)
	assert.Len(t, typ.Enum, 2)

	// same type is served from the cache
	s2, err := schema.New(reflect.TypeOf(Search{}))
	require.NoError(t, err)
	assert.Same(t, s, s2)
}

func TestSchema_ResolvesRefs(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(NestedSearch{}))
	require.NoError(t, err)

	params, ok := s.Parameters.(*jsonschema.Schema)
	require.True(t, ok)

	f, ok := params.Properties.Get("filters")
	require.True(t, ok)
	assert.Empty(t, f.Ref)
	_, ok = f.Properties.Get("domains")
	assert.True(t, ok)
}
