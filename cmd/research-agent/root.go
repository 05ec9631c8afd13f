package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/effective-security/xlog"
	"github.com/laibamasod/research-agent/assistants"
	"github.com/laibamasod/research-agent/llmfactory"
	"github.com/laibamasod/research-agent/researcher"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"
)

// Version is set at build time via ldflags.
var version = ""

// NewRootCmd creates the root command for the research agent.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research-agent",
		Short: "LLM research assistant with source evaluation",
		Long: `research-agent answers research tasks with an LLM and external search
tools (arXiv, web search, Wikipedia).

The evaluate command additionally scores the URLs cited in the answer
against a list of preferred domains and reports the matched ratio.

Web search requires the TAVILY_API_KEY environment variable.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "LLM providers configuration file")
	cmd.PersistentFlags().StringP("model", "m", "", "Model reference, e.g. ollama:llama3.1")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewConsoleCmd())
	cmd.AddCommand(NewResearchCmd())
	cmd.AddCommand(NewEvaluateCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if buildInfo.Main.Version != "" {
			return buildInfo.Main.Version
		}
	}
	return "(devel)"
}

// setupLogging configures the xlog formatter for the CLI.
func setupLogging(verbose bool) {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	if verbose {
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.ERROR)
	}
}

// loadModel builds the LLM from the config file and optional model override.
func loadModel(cmd *cobra.Command) (llms.Model, error) {
	configFile, _ := cmd.Flags().GetString("config")
	modelRef, _ := cmd.Flags().GetString("model")

	f, err := llmfactory.Load(configFile)
	if err != nil {
		return nil, err
	}

	if modelRef != "" {
		provider, model := llmfactory.ParseModelName(modelRef)
		return llmfactory.NewLLM(&llmfactory.ProviderConfig{
			Name:         modelRef,
			Provider:     provider,
			DefaultModel: model,
		})
	}

	return f.DefaultModel()
}

// newAgent builds the research agent with CLI logging callbacks.
func newAgent(cmd *cobra.Command, opts ...researcher.Option) (*researcher.Agent, llms.Model, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	llmModel, err := loadModel(cmd)
	if err != nil {
		return nil, nil, err
	}

	if verbose {
		opts = append(opts, researcher.WithCallback(assistants.NewPrinterCallback(cmd.ErrOrStderr())))
	}

	agent, err := researcher.New(llmModel, opts...)
	if err != nil {
		return nil, nil, err
	}
	return agent, llmModel, nil
}
