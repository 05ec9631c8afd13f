// Package tools defines the Tool interface for the research agent, along
// with parameter schema plumbing. Tools let the agent reach external
// lookup services through structured calls.
package tools
