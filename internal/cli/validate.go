package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/pipeline"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var bareGraph bool

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a generator file for graph, constraint and parameter errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bareGraph {
				return c.validateGraphFile(cmd, args[0])
			}
			gen, err := pipeline.Load(args[0])
			var verr *graph.ValidationError
			if errors.As(err, &verr) {
				printViolations(args[0], verr.Violations)
				return fmt.Errorf("invalid graph")
			}
			if err != nil {
				return err
			}

			printSuccess("%s is valid", displayName(gen.ID, args[0]))
			printDetail("%d nodes · %d edges · %d constraints · %d parameters",
				len(gen.Graph.Nodes), len(gen.Graph.Edges), len(gen.Constraints), len(gen.Parameters))
			return nil
		},
	}

	cmd.Flags().BoolVar(&bareGraph, "graph", false, "the file is a bare node graph (JSON) rather than a generator")

	return cmd
}

func (c *CLI) validateGraphFile(cmd *cobra.Command, path string) error {
	g, err := graph.ReadGraphFile(path)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	res := runner.Validate(cmd.Context(), g)
	if !res.Valid {
		printViolations(path, res.Violations)
		return fmt.Errorf("invalid graph")
	}
	printSuccess("%s is valid", path)
	printDetail("%d nodes · %d edges", len(g.Nodes), len(g.Edges))
	return nil
}

func printViolations(path string, violations []graph.Violation) {
	printError("%s: %d violation(s)", path, len(violations))
	for _, v := range violations {
		printDetail("[%s] %s", v.Code, v)
	}
}

func displayName(id, path string) string {
	if id != "" {
		return id
	}
	return path
}
