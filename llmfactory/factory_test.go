package llmfactory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/laibamasod/research-agent/llmfactory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseModelName(t *testing.T) {
	tcases := []struct {
		ref      string
		provider string
		model    string
	}{
		{"ollama:llama3.1", "ollama", "llama3.1"},
		{"openai:gpt-4o", "openai", "gpt-4o"},
		{"llama3.1", "ollama", "llama3.1"},
		{"OLLAMA:mistral", "ollama", "mistral"},
	}
	for _, tc := range tcases {
		provider, model := llmfactory.ParseModelName(tc.ref)
		assert.Equal(t, tc.provider, provider, tc.ref)
		assert.Equal(t, tc.model, model, tc.ref)
	}
}

func Test_LoadConfig(t *testing.T) {
	yaml := `
providers:
  - name: local
    provider: ollama
    default_model: llama3.1
    ollama:
      server_url: http://localhost:11434
  - name: openai
    provider: openai
    token: test-token
    default_model: gpt-4o-mini
`
	file := filepath.Join(t.TempDir(), "llm.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yaml), 0644))

	cfg, err := llmfactory.LoadConfig(file)
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "local", cfg.Providers[0].Name)
	assert.Equal(t, "llama3.1", cfg.Providers[0].DefaultModel)
	assert.Equal(t, "http://localhost:11434", cfg.Providers[0].Ollama.ServerURL)
	assert.Equal(t, "openai", cfg.Providers[1].Provider)
}

func Test_LoadConfigEmpty(t *testing.T) {
	cfg, err := llmfactory.LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
}

func Test_FactoryModels(t *testing.T) {
	cfg := &llmfactory.Config{
		Providers: []*llmfactory.ProviderConfig{
			{
				Name:         "local",
				Provider:     "ollama",
				DefaultModel: "llama3.1",
			},
		},
	}
	f := llmfactory.New(cfg)

	m1, err := f.ModelByName("local")
	require.NoError(t, err)
	require.NotNil(t, m1)

	// cached instance
	m2, err := f.ModelByName("local")
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	md, err := f.DefaultModel()
	require.NoError(t, err)
	assert.Same(t, m1, md)

	_, err = f.ModelByName("missing")
	assert.EqualError(t, err, "provider not found for name: missing")

	prov, err := f.ModelProvider("local")
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", prov.DefaultModel)
}

func Test_FactoryDefaultWithoutProviders(t *testing.T) {
	f := llmfactory.New(&llmfactory.Config{})
	m, err := f.DefaultModel()
	require.NoError(t, err)
	assert.NotNil(t, m)
}
