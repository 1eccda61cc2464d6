package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"assemblyLine/internal/opt"
	"assemblyLine/internal/render"
	"assemblyLine/internal/salbp"
)

type solveOpts struct {
	stations int
	budget   time.Duration
	seed     int64
	algo     string
	svg      string
	logFile  string
}

func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOpts{stations: 6, algo: "ILS"}

	cmd := &cobra.Command{
		Use:   "solve <instance>",
		Short: "Balance a line once and print the best assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.seed = time.Now().UnixNano()
			}
			return c.runSolve(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.stations, "stations", "m", opts.stations, "number of stations")
	cmd.Flags().DurationVarP(&opts.budget, "budget", "t", 0, "time budget of the run (default from config)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVarP(&opts.algo, "algo", "a", opts.algo, "algorithm: ILS, SA, TS")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "write the best assignment as SVG to this path")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "also write the plain report to this file")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, path string, opts solveOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.budget > 0 {
		cfg.TimeBudget.Duration = opts.budget
	}
	if opts.stations <= 0 {
		return fmt.Errorf("stations must be > 0 (got %d)", opts.stations)
	}
	if err := cfg.ILSConfig().Validate(); err != nil {
		return err
	}

	inst, err := salbp.Load(path)
	if err != nil {
		return err
	}

	algos, err := selectAlgorithms([]string{opts.algo}, availableAlgorithms(cfg, c.Logger))
	if err != nil {
		return err
	}
	solver := algos[0].Factory(opts.seed)
	if solver == nil {
		return fmt.Errorf("%s: invalid solver configuration", algos[0].Name)
	}

	rep := reporter{out: cmd.OutOrStdout()}
	if opts.logFile != "" {
		f, err := createFile(opts.logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		rep.file = f
	}

	c.Logger.Info("Solving", "instance", filepath.Base(path), "tasks", inst.Tasks, "stations", opts.stations,
		"algo", algos[0].Name, "seed", opts.seed)
	res, err := solver.Solve(ctx, inst, opts.stations)
	if err != nil && res.Stations == nil {
		return err
	}
	if err != nil {
		c.Logger.Warn("Run interrupted, reporting best so far", "err", err)
	}

	reportRun(rep, inst, res)

	if opts.svg != "" {
		if err := writeSVG(ctx, opts.svg, inst, res.Stations, filepath.Base(path)); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Wrote %s", opts.svg)
	}
	return err
}

// reportRun prints the initial solution when the solver recorded one,
// followed by the best solution.
func reportRun(rep reporter, inst *salbp.Instance, res opt.Result) {
	if initial, ok := res.Meta["initial"].(salbp.Solution); ok && initial != nil && len(res.Trace) > 0 {
		rep.solution("Initial solution", initial, inst.Costs, salbp.CycleTime(initial, inst.Costs), res.Trace[0].Elapsed)
	}
	rep.solution("Best solution", res.Stations, inst.Costs, res.CycleTime, res.Duration)
}

func writeSVG(ctx context.Context, path string, inst *salbp.Instance, sol salbp.Solution, title string) error {
	svg, err := render.RenderSVG(ctx, render.ToDOT(inst, sol, render.Options{Costs: true, Title: title}))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, svg, 0o644)
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
