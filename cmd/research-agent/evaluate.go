package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/laibamasod/research-agent/researcher"
	"github.com/spf13/cobra"
)

// NewEvaluateCmd creates the source evaluation command.
func NewEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Research a topic and evaluate the cited sources",
		Long: `Evaluate researches a topic, extracts the URLs cited in the answer
and scores them against a list of preferred domains. The run fails when
the matched ratio is below the threshold.

Examples:
  research-agent evaluate --topic "black hole science"
  research-agent evaluate --topic "quantum computing" --min-ratio 0.6 --reflect
  research-agent evaluate --topic "CRISPR" --domains nature.com --domains science.org`,
		RunE: runEvaluateCmd,
	}

	cmd.Flags().StringP("topic", "t", "", "Topic to research (required)")
	cmd.Flags().StringSliceP("domains", "d", nil,
		"Preferred domains; defaults to a built-in list of reputable sources")
	cmd.Flags().Float64P("min-ratio", "r", researcher.DefaultMinRatio,
		"Minimum matched ratio to pass, between 0 and 1")
	cmd.Flags().Bool("reflect", false,
		"Ask the model to suggest improvements when the evaluation fails")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func runEvaluateCmd(cmd *cobra.Command, _ []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	domains, _ := cmd.Flags().GetStringSlice("domains")
	minRatio, _ := cmd.Flags().GetFloat64("min-ratio")
	reflect, _ := cmd.Flags().GetBool("reflect")

	agent, llmModel, err := newAgent(cmd)
	if err != nil {
		return err
	}

	opts := []researcher.PipelineOption{
		researcher.WithMinRatio(minRatio),
		researcher.WithReflection(reflect),
	}
	if len(domains) > 0 {
		opts = append(opts, researcher.WithDomains(domains...))
	}

	pipeline := researcher.NewPipeline(agent, llmModel, opts...)

	res, err := pipeline.Run(cmd.Context(), topic)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Research Results on %s\n\n%s\n\n", res.Topic, res.Research)
	fmt.Fprintln(out, res.Evaluation.Report)

	if res.Reflection != nil {
		fmt.Fprintf(out, "\nReviewer Summary\n================\n%s\n", res.Reflection.Summary)
		for _, improvement := range res.Reflection.Improvements {
			fmt.Fprintf(out, "  - %s\n", improvement)
		}
	}

	if !res.Evaluation.Passed {
		return errors.Newf("evaluation failed: matched ratio %.2f below threshold %.2f",
			res.Evaluation.Ratio, minRatio)
	}
	return nil
}
