package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	dfio "github.com/matzehuels/dungeonforge/pkg/io"
	"github.com/matzehuels/dungeonforge/pkg/pipeline"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	seed    uint64
	params  []string
	output  string
	json    bool
	noCache bool
	refresh bool
}

// generateCommand creates the generate command for single seeded runs.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{seed: pipeline.DefaultSeed}

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate one dungeon from a generator file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "parameter override name=value (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result as JSON to this file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, path string, opts generateOpts) error {
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	gen, err := pipeline.Load(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Generate(ctx, pipeline.GenerateOptions{
		Generator:  gen,
		Seed:       opts.seed,
		Parameters: params,
		Refresh:    opts.refresh,
	})
	if err != nil {
		return err
	}

	switch {
	case opts.output != "":
		if err := dfio.ExportJSON(opts.output, res); err != nil {
			return err
		}
	case opts.json:
		return dfio.WriteJSON(os.Stdout, res)
	}

	if res.Success {
		printSuccess("Generated %s with seed %d", displayName(gen.ID, path), res.Seed)
	} else {
		printError("Generation of %s failed with seed %d", displayName(gen.ID, path), res.Seed)
	}
	rooms, connections := 0, 0
	if res.Layout != nil {
		rooms, connections = len(res.Layout.Rooms), len(res.Layout.Connections)
	}
	printStats(rooms, connections, res.CacheHit)
	printConstraintResults(res.ConstraintResults)
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	for _, e := range res.Errors {
		printDetail("%s", e)
	}
	if opts.output != "" {
		printFile(opts.output)
	}
	if !res.Success {
		return fmt.Errorf("generation failed")
	}
	return nil
}

func printConstraintResults(results []constraint.Result) {
	for _, r := range results {
		msg := r.ConstraintID
		if r.Message != "" {
			msg += ": " + r.Message
		}
		switch {
		case r.Passed:
			printSuccess("%s", msg)
		case r.Blocking():
			printError("%s", msg)
		default:
			printWarning("%s", msg)
		}
	}
}
