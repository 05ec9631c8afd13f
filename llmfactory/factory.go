package llmfactory

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

var logger = xlog.NewPackageLogger("github.com/laibamasod/research-agent", "llmfactory")

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	// DefaultModel is used when a provider does not name one.
	DefaultModel = "llama3.1"
)

type Factory interface {
	DefaultModel() (llms.Model, error)
	ModelByName(name string) (llms.Model, error)
	// ModelProvider returns the provider config for the given name.
	ModelProvider(name string) (*ProviderConfig, error)
}

// Load returns a factory from the config file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	byName map[string]llms.Model
	lock   sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:    cfg,
		byName: make(map[string]llms.Model),
	}
	return f
}

// ParseModelName splits a model reference of the form "provider:model",
// for example "ollama:llama3.1". A reference without a provider prefix
// defaults to ollama.
func ParseModelName(ref string) (provider, model string) {
	if before, after, found := strings.Cut(ref, ":"); found {
		switch strings.ToLower(before) {
		case ProviderOllama, ProviderOpenAI:
			return strings.ToLower(before), after
		}
	}
	return ProviderOllama, ref
}

func NewLLM(cfg *ProviderConfig) (llms.Model, error) {
	model := values.StringsCoalesce(cfg.DefaultModel, DefaultModel)

	switch strings.ToLower(values.StringsCoalesce(cfg.Provider, ProviderOllama)) {
	case ProviderOllama:
		opts := []ollama.Option{
			ollama.WithModel(model),
		}
		if cfg.Ollama.ServerURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.Ollama.ServerURL))
		}
		return ollama.New(opts...)

	case ProviderOpenAI:
		var opts []openai.Option
		if cfg.Token != "" {
			opts = append(opts, openai.WithToken(cfg.Token))
		}

		switch typ := strings.ToUpper(cfg.OpenAI.APIType); typ {
		case "AZURE", "AZURE_AD":
			if typ == "AZURE" {
				opts = append(opts, openai.WithAPIType(openai.APITypeAzure))
			} else {
				opts = append(opts, openai.WithAPIType(openai.APITypeAzureAD))
			}
			opts = append(opts, openai.WithAPIVersion(cfg.OpenAI.APIVersion))
		case "OPENAI", "OPEN_AI":
			opts = append(opts, openai.WithAPIType(openai.APITypeOpenAI))
		}

		opts = append(opts, openai.WithModel(model))

		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		if cfg.OpenAI.OrgID != "" {
			opts = append(opts, openai.WithOrganization(cfg.OpenAI.OrgID))
		}
		return openai.New(opts...)
	}

	return nil, errors.Newf("unsupported provider: %s", cfg.Provider)
}

// DefaultModel returns the model of the first configured provider,
// or a local Ollama model when no providers are configured.
func (f *factory) DefaultModel() (llms.Model, error) {
	if len(f.cfg.Providers) == 0 {
		return NewLLM(&ProviderConfig{
			Name:     "local",
			Provider: ProviderOllama,
		})
	}
	return f.ModelByName(f.cfg.Providers[0].Name)
}

func (f *factory) ModelByName(name string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byName[name]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byName[name] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}

func (f *factory) ModelProvider(name string) (*ProviderConfig, error) {
	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
