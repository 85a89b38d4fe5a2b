package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	dfio "github.com/matzehuels/dungeonforge/pkg/io"
	"github.com/matzehuels/dungeonforge/pkg/pipeline"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

// simulateOpts holds the command-line flags for the simulate command.
type simulateOpts struct {
	runs      int
	seedStart uint64
	workers   int
	params    []string
	output    string
	json      bool
	keepRuns  bool
	tui       bool
}

// simulateCommand creates the simulate command for batch runs.
func (c *CLI) simulateCommand() *cobra.Command {
	var opts simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate [file]",
		Short: "Run a generator over many seeds and report statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("runs") {
				opts.runs = c.Config.Simulation.Runs
			}
			if !cmd.Flags().Changed("workers") {
				opts.workers = c.Config.Simulation.Workers
			}
			return c.runSimulate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.runs, "runs", "n", pipeline.DefaultRuns, "number of runs")
	cmd.Flags().Uint64Var(&opts.seedStart, "seed-start", 0, "seed of the first run")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (default: number of CPUs)")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "parameter override name=value (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the results as JSON to this file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the results as JSON")
	cmd.Flags().BoolVar(&opts.keepRuns, "keep-runs", false, "include every run in the JSON results")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show an interactive progress view")

	return cmd
}

func (c *CLI) runSimulate(ctx context.Context, path string, opts simulateOpts) error {
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	gen, err := pipeline.Load(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	sim, err := runner.StartSimulation(ctx, pipeline.SimulateOptions{
		Generator:  gen,
		Runs:       opts.runs,
		SeedStart:  opts.seedStart,
		Workers:    opts.workers,
		KeepRuns:   opts.keepRuns,
		Parameters: params,
	})
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Simulating %s", displayName(gen.ID, path))
	var res *simulation.Results
	if opts.tui {
		res, err = followTUI(title, sim)
	} else {
		res, err = followSpinner(ctx, title, sim)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Simulated %d runs", res.RunCount))

	switch {
	case opts.output != "":
		if err := dfio.ExportJSON(opts.output, res); err != nil {
			return err
		}
	case opts.json:
		return dfio.WriteJSON(os.Stdout, res)
	}

	printResults(res)
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

func followSpinner(ctx context.Context, title string, sim *simulation.Simulation) (*simulation.Results, error) {
	spinner := newSpinnerWithContext(ctx, title)
	spinner.Start()
	for p := range sim.Progress() {
		spinner.SetMessage(fmt.Sprintf("%s %d/%d", title, p.Completed, p.Total))
	}
	res, err := sim.Wait()
	if spinner.Cancelled() {
		p := sim.Snapshot()
		spinner.StopWithError(fmt.Sprintf("%s cancelled after %d/%d runs", title, p.Completed, p.Total))
		return res, err
	}
	spinner.Stop()
	return res, err
}

func followTUI(title string, sim *simulation.Simulation) (*simulation.Results, error) {
	final, err := tea.NewProgram(NewSimulationModel(title, sim), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		sim.Cancel()
		return sim.Wait()
	}
	m := final.(SimulationModel)
	return m.Results, m.Err
}

// =============================================================================
// Results Display
// =============================================================================

func printResults(res *simulation.Results) {
	rateStyle := StyleSuccess
	if res.SuccessRate < 1 {
		rateStyle = StyleWarning
	}
	printKeyValue("runs", fmt.Sprintf("%d (seeds %d..%d)", res.RunCount, res.SeedStart, res.SeedStart+uint64(max(res.RunCount, 1))-1))
	printKeyValue("success", rateStyle.Render(fmt.Sprintf("%.1f%%", res.SuccessRate*100)))
	if res.RetryCount > 0 {
		printKeyValue("retries", fmt.Sprint(res.RetryCount))
	}
	printNewline()
	fmt.Println(metricsTable(res))

	if len(res.Constraints) > 0 {
		printNewline()
		fmt.Println(constraintsTable(res))
	}
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	for i, f := range res.Failures {
		if i == 5 {
			printDetail("... %d more failed seeds", len(res.Failures)-i)
			break
		}
		printDetail("seed %d: %v", f.Seed, f.Errors)
	}
}

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1

var headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func metricsTable(res *simulation.Results) string {
	rows := make([][]string, 0, len(simulation.MetricNames))
	for _, name := range simulation.MetricNames {
		s, ok := res.Metrics[name]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			name,
			formatFloat(s.Min),
			formatFloat(s.Mean),
			formatFloat(s.Median),
			formatFloat(s.Max),
			formatFloat(s.StdDev),
			formatFloat(s.Percentiles.P5),
			formatFloat(s.Percentiles.P95),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Metric", "Min", "Mean", "Median", "Max", "StdDev", "P5", "P95").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 0 {
				return StyleValue.Padding(0, 1)
			}
			return StyleNumber.Padding(0, 1).Align(lipgloss.Right)
		}).
		Render()
}

func constraintsTable(res *simulation.Results) string {
	ids := make([]string, 0, len(res.Constraints))
	for id := range res.Constraints {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, len(ids))
	for i, id := range ids {
		s := res.Constraints[id]
		rows[i] = []string{id, fmt.Sprintf("%.1f%%", s.PassRate*100), fmt.Sprint(s.Violations), fmt.Sprint(s.Evaluated)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Constraint", "Pass rate", "Violations", "Evaluated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerStyle.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 {
				if res.Constraints[ids[row]].PassRate < 1 {
					return base.Foreground(colorYellow)
				}
				return base.Foreground(colorGreen)
			}
			return base
		}).
		Render()
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
