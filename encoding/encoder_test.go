package encoding_test

import (
	"testing"

	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reflection struct {
	Summary      string   `json:"summary" jsonschema:"title=Summary,description=Short summary of the sourcing quality"`
	Improvements []string `json:"improvements,omitempty" jsonschema:"title=Improvements,description=Suggested improvements"`
}

func Test_TypedOutputParser_JSON(t *testing.T) {
	p, err := encoding.NewTypedOutputParser(reflection{}, encoding.ModeJSON)
	require.NoError(t, err)

	instr := p.GetFormatInstructions()
	assert.Contains(t, instr, "JSON schema")
	assert.Contains(t, instr, `"summary"`)

	out, err := p.Parse("Here you go:\n```json\n{\"summary\":\"good\",\"improvements\":[\"more papers\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "good", out.Summary)
	assert.Equal(t, []string{"more papers"}, out.Improvements)

	_, err = p.Parse("no json here")
	require.Error(t, err)
}

func Test_TypedOutputParser_PlainText(t *testing.T) {
	p, err := encoding.NewTypedOutputParser(chatmodel.String{}, encoding.ModePlainText)
	require.NoError(t, err)
	assert.Empty(t, p.GetFormatInstructions())

	out, err := p.Parse("free text answer")
	require.NoError(t, err)
	assert.Equal(t, "free text answer", out.String())
}

func Test_SimpleOutputParser(t *testing.T) {
	p := encoding.NewSimpleOutputParser()
	out, err := p.Parse("  trimmed \n")
	require.NoError(t, err)
	assert.Equal(t, "trimmed", out.String())
	assert.Equal(t, "simple_parser", p.Type())
}

func Test_PredefinedSchemaEncoder_Unknown(t *testing.T) {
	_, err := encoding.PredefinedSchemaEncoder("toml", reflection{})
	require.Error(t, err)
}
