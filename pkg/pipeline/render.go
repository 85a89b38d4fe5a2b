package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/generator"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/render/nodelink"
)

// Render draws the generator graph or, for [TargetLayout], the layout of
// the run selected by opts.Seed and opts.Parameters. The run goes through
// [Runner.Generate] and may be served from the cache.
func (r *Runner) Render(ctx context.Context, gen *generator.Generator, opts RenderOptions) ([]byte, error) {
	if gen == nil {
		return nil, dferrors.New(dferrors.ErrCodeInvalidInput, "generator is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var (
		dot    string
		engine nodelink.Engine
		doc    any
	)
	switch opts.Target {
	case TargetGraph:
		graphOpts := nodelink.Options{Detailed: opts.Detailed}
		if opts.ShowPruned {
			res, err := r.Generate(ctx, GenerateOptions{Generator: gen, Seed: opts.Seed, Parameters: opts.Parameters})
			if err != nil {
				return nil, err
			}
			graphOpts.Pruned = res.Metadata.PrunedNodes
		}
		dot, engine, doc = nodelink.GraphDOT(gen.Graph, graphOpts), nodelink.EngineDot, gen.Graph

	case TargetLayout:
		res, err := r.Generate(ctx, GenerateOptions{Generator: gen, Seed: opts.Seed, Parameters: opts.Parameters})
		if err != nil {
			return nil, err
		}
		if res.Layout == nil {
			return nil, dferrors.New(dferrors.ErrCodeNodeExecution, "seed %d produced no layout: %v", opts.Seed, res.Errors)
		}
		dot, engine, doc = nodelink.LayoutDOT(res.Layout, nodelink.LayoutOptions{}), nodelink.EngineNeato, res.Layout
	}

	r.Logger.Debug("rendering", "target", opts.Target, "format", opts.Format, "seed", opts.Seed)

	var (
		data []byte
		err  error
	)
	switch opts.Format {
	case FormatDOT:
		data = []byte(dot)
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot, engine)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, engine, opts.Scale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot, engine)
	case FormatJSON:
		if g, ok := doc.(graph.NodeGraph); ok {
			data, err = graph.MarshalGraph(g)
		} else {
			data, err = json.MarshalIndent(doc, "", "  ")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}
