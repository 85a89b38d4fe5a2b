package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dungeonforge/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string
	target     string
	format     string
	seed       uint64
	params     []string
	detailed   bool
	showPruned bool
	scale      float64
	noCache    bool
}

// renderCommand creates the render command for generator graphs and
// generated layouts.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		target: pipeline.TargetGraph,
		seed:   pipeline.DefaultSeed,
		scale:  pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a generator graph or a generated layout",
		Long: `Render draws the node graph of a generator (--target graph) or the dungeon
layout produced by one seed (--target layout). The output format follows the
--format flag, or the extension of --output when no format is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = formatFromOutput(opts.output)
			}
			if err := pipeline.ValidateFormat(opts.format); err != nil {
				return err
			}
			if err := pipeline.ValidateTarget(opts.target); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <file>.<target>.<format>)")
	cmd.Flags().StringVarP(&opts.target, "target", "t", opts.target, "what to draw: graph, layout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), png, pdf, dot, json")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "seed of the run to draw (layout, --show-pruned)")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "parameter override name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node configuration in graph diagrams")
	cmd.Flags().BoolVar(&opts.showPruned, "show-pruned", false, "grey out paths pruned in the selected run")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

// formatFromOutput derives the render format from an output path, falling
// back to SVG.
func formatFromOutput(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" || pipeline.ValidateFormat(ext) != nil {
		return pipeline.FormatSVG
	}
	return ext
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
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

	ro := pipeline.RenderOptions{
		Target:     opts.target,
		Format:     opts.format,
		Seed:       opts.seed,
		Parameters: params,
		ShowPruned: opts.showPruned,
		Detailed:   opts.detailed,
		Scale:      opts.scale,
	}
	out := opts.output
	if out == "" {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		out = fmt.Sprintf("%s.%s%s", base, opts.target, ro.Extension())
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s", opts.target))
	spinner.Start()
	data, err := runner.Render(ctx, gen, ro)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Rendering %s failed", opts.target))
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		spinner.Stop()
		return fmt.Errorf("write %s: %w", out, err)
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %s of %s", opts.target, displayName(gen.ID, path)))
	printFile(out)
	return nil
}
