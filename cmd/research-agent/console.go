package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/laibamasod/research-agent/assistants"
	"github.com/laibamasod/research-agent/chatmodel"
	"github.com/laibamasod/research-agent/researcher"
	"github.com/laibamasod/research-agent/store"
	"github.com/spf13/cobra"
)

// NewConsoleCmd creates the interactive console command.
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive research console",
		Long: `Console starts an interactive session with the research agent.
The conversation history is kept for the session, so follow-up
questions can refer to earlier answers.

Type 'quit', 'exit' or 'q' to leave.`,
		RunE: runConsoleCmd,
	}
}

func runConsoleCmd(cmd *cobra.Command, _ []string) error {
	// One chat for the whole session, with in-memory history.
	agent, _, err := newAgent(cmd,
		researcher.WithAssistantOptions(assistants.WithStore(store.NewMemoryStore())))
	if err != nil {
		return err
	}

	ctx := chatmodel.WithChatContext(cmd.Context(),
		chatmodel.NewChatContext(chatmodel.NewChatID(), nil))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Research Agent Console")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "Type your question (or 'quit' to exit):")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		answer, err := agent.FindReferences(ctx, input)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n\n", err.Error())
			continue
		}

		fmt.Fprintf(out, "\nAgent: %s\n\n", answer)
	}
}
