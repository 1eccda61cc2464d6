package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"assemblyLine/internal/bench"
	"assemblyLine/internal/config"
	"assemblyLine/internal/salbp"
	"assemblyLine/internal/store"
)

func (c *CLI) benchCommand() *cobra.Command {
	var (
		stations []int
		runs     int
		budget   string
		seed     int64
		parallel int
		algos    string
		csvPath  string
		dbPath   string
		noDB     bool
		svgDir   string
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "bench [instance]",
		Short: "Run repeated experiments per station count and report statistics",
		Long: `bench runs every selected algorithm several times for each station count,
prints the run reports and a summary (best, mean and deviation of the cycle
time, fastest time to best, mean run time), writes a CSV file and stores the
results in the SQLite database. Flags override values from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if len(args) == 1 {
				cfg.Instance = args[0]
			}
			if f.Changed("stations") {
				cfg.Stations = stations
			}
			if f.Changed("runs") {
				cfg.Runs = runs
			}
			if f.Changed("budget") {
				if err := cfg.TimeBudget.UnmarshalText([]byte(budget)); err != nil {
					return fmt.Errorf("--budget: %w", err)
				}
			}
			if f.Changed("seed") {
				cfg.Seed = seed
			}
			if f.Changed("parallel") {
				cfg.Parallel = parallel
			}
			if f.Changed("algos") {
				cfg.Algorithms = splitCSV(algos)
			}
			if f.Changed("csv") {
				cfg.Output.CSV = csvPath
			}
			if f.Changed("db") {
				cfg.Output.DB = dbPath
			}
			if noDB {
				cfg.Output.DB = ""
			}
			if f.Changed("svg-dir") {
				cfg.Output.SVGDir = svgDir
			}
			if f.Changed("log-file") {
				cfg.Output.Log = logFile
			}
			return c.runBench(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.IntSliceVarP(&stations, "stations", "m", nil, "station counts, e.g. 6,8,10")
	f.IntVarP(&runs, "runs", "r", 0, "repetitions per station count and algorithm")
	f.StringVarP(&budget, "budget", "t", "", "time budget of each ILS run, e.g. 60s")
	f.Int64Var(&seed, "seed", 0, "base seed; run i uses seed+i")
	f.IntVarP(&parallel, "parallel", "p", 0, "repetitions executed concurrently")
	f.StringVarP(&algos, "algos", "a", "", "algorithms: ILS, SA, TS (comma-separated)")
	f.StringVar(&csvPath, "csv", "", "CSV output path")
	f.StringVar(&dbPath, "db", "", "SQLite results database")
	f.BoolVar(&noDB, "no-db", false, "do not store results in the database")
	f.StringVar(&svgDir, "svg-dir", "", "directory for SVG drawings of the best assignments")
	f.StringVar(&logFile, "log-file", "", "also write plain reports to this file")

	return cmd
}

func (c *CLI) runBench(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()
	if cfg.Instance == "" {
		return fmt.Errorf("no instance given (argument or \"instance\" in config)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Malformed instances are reported before any run starts
	inst, err := salbp.Load(cfg.Instance)
	if err != nil {
		return err
	}
	name := filepath.Base(cfg.Instance)

	selected, err := selectAlgorithms(cfg.Algorithms, availableAlgorithms(cfg, c.Logger))
	if err != nil {
		return err
	}

	rep := reporter{out: cmd.OutOrStdout()}
	if cfg.Output.Log != "" {
		f, err := createFile(cfg.Output.Log)
		if err != nil {
			return err
		}
		defer f.Close()
		rep.file = f
	}

	var (
		db    *store.Store
		expID string
	)
	if cfg.Output.DB != "" {
		db, err = store.New(cfg.Output.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		expID, err = db.CreateExperiment(ctx, store.Experiment{
			Instance:   name,
			Tasks:      inst.Tasks,
			TimeBudget: cfg.TimeBudget.Duration,
			Runs:       cfg.Runs,
			Note:       strings.Join(cfg.Algorithms, ","),
		})
		if err != nil {
			return err
		}
		c.Logger.Debug("Experiment created", "id", expID, "db", db.Path())
	}

	// OnRun calls are serialized by the runner
	var saveErr error
	runner := bench.Runner{
		Runs:     cfg.Runs,
		BaseSeed: cfg.Seed,
		Parallel: cfg.Parallel,
		Logger:   c.Logger,
		OnRun: func(bc bench.Case, algo string, run bench.Run) {
			rep.solution(fmt.Sprintf("%s, %d stations, run %d", algo, bc.Stations, run.Index+1),
				run.Result.Stations, inst.Costs, run.Result.CycleTime, run.Result.Duration)
			if db == nil {
				return
			}
			if err := db.SaveRun(ctx, expID, algo, bc.Stations, run); err != nil {
				saveErr = err
			}
		},
	}

	var records []bench.Record
	for _, m := range cfg.Stations {
		bc := bench.Case{Instance: name, Inst: inst, Stations: m}
		for _, a := range selected {
			c.Logger.Info("Running", "algo", a.Name, "instance", name, "stations", m, "runs", cfg.Runs, "budget", cfg.TimeBudget.Duration)
			prog := newProgress(c.Logger)

			rec, err := runner.RunCase(ctx, bc, a)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("%s with %d stations: best FO %d", a.Name, m, rec.CycleBest))
			records = append(records, rec)
			rep.summary(rec)

			if db != nil {
				if err := db.SaveRecord(ctx, expID, rec); err != nil {
					return err
				}
			}
			if cfg.Output.SVGDir != "" {
				if err := c.drawBest(ctx, cfg.Output.SVGDir, inst, rec); err != nil {
					return err
				}
			}
		}
	}
	if saveErr != nil {
		return saveErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), summaryTable(records))

	if cfg.Output.CSV != "" {
		if err := bench.WriteCSV(cfg.Output.CSV, records); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
		success(cmd.OutOrStdout(), "Saved %s", cfg.Output.CSV)
	}
	if db != nil {
		success(cmd.OutOrStdout(), "Stored experiment %s in %s", expID, db.Path())
	}
	return nil
}

func (c *CLI) drawBest(ctx context.Context, dir string, inst *salbp.Instance, rec bench.Record) error {
	best, ok := rec.Best()
	if !ok {
		return nil
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_m%d.svg", strings.TrimSuffix(rec.Instance, filepath.Ext(rec.Instance)), strings.ToLower(rec.Algo), rec.Stations))
	title := fmt.Sprintf("%s, %s, %d stations, FO %d", rec.Instance, rec.Algo, rec.Stations, best.Result.CycleTime)
	if err := writeSVG(ctx, path, inst, best.Result.Stations, title); err != nil {
		return err
	}
	c.Logger.Debug("Wrote drawing", "path", path)
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
