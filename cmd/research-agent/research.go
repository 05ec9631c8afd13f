package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewResearchCmd creates the one-shot research command.
func NewResearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "research <task>",
		Short: "Run a single research task",
		Long: `Research runs one task through the agent and prints the answer.

Examples:
  research-agent research "Find 2-3 key papers about black holes."
  research-agent -m ollama:llama3.1 research "Summarize recent LLM papers."`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResearchCmd,
	}
}

func runResearchCmd(cmd *cobra.Command, args []string) error {
	agent, _, err := newAgent(cmd)
	if err != nil {
		return err
	}

	task := strings.Join(args, " ")
	answer, err := agent.FindReferences(cmd.Context(), task)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
