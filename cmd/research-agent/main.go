// Package main provides the entry point for the research-agent CLI.
//
// The research agent answers research tasks with an LLM and external
// search tools (arXiv, web search, Wikipedia), and can evaluate how many
// of the cited sources come from preferred domains.
//
// Usage:
//
//	research-agent console
//	research-agent research "Find 2-3 key papers about black holes."
//	research-agent evaluate --topic "black hole science"
//
// See --help for all available options.
package main

// main is the entry point for the research agent.
func main() {
	Execute()
}
