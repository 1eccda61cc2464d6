package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"assemblyLine/internal/opt"
	"assemblyLine/internal/salbp"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

type Case struct {
	Instance string // display name, usually the file name
	Inst     *salbp.Instance
	Stations int
}

// Run is one finished repetition of a case.
type Run struct {
	Index  int
	Seed   int64
	Result opt.Result
}

type Record struct {
	Algo     string
	Instance string
	Tasks    int
	Stations int
	Runs     int

	CycleBest    int
	CycleMean    float64
	CycleStd     float64
	DeviationPct float64

	TimeToBestMinMs  float64
	TimeToBestMeanMs float64
	TimeMeanMs       float64
	TimeStdMs        float64

	Results []Run
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	// Parallel bounds how many repetitions run at once; <= 1 runs them sequentially.
	Parallel int
	Logger   *log.Logger
	// OnRun, if set, is called after every repetition. Calls are serialized.
	OnRun func(c Case, algo string, r Run)
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if c.Inst == nil {
		return Record{}, fmt.Errorf("case %q: instance is nil", c.Instance)
	}
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("runs must be > 0 (got %d)", r.Runs)
	}
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	runs := make([]Run, r.Runs)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Parallel, 1))

	for i := 0; i < r.Runs; i++ {
		g.Go(func() error {
			run, err := r.runOnce(gctx, c, algo, i)
			if err != nil {
				return err
			}
			runs[i] = run

			mu.Lock()
			defer mu.Unlock()
			logger.Debug("run finished", "algo", algo.Name, "stations", c.Stations, "run", i+1,
				"fo", run.Result.CycleTime, "time_to_best", run.Result.TimeToBest.Round(time.Millisecond))
			if r.OnRun != nil {
				r.OnRun(c, algo.Name, run)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Record{}, err
	}
	return summarize(c, algo.Name, runs), nil
}

func (r Runner) runOnce(ctx context.Context, c Case, algo Algorithm, i int) (Run, error) {
	runSeed := r.BaseSeed + int64(i)
	op := algo.Factory(runSeed)
	if op == nil {
		return Run{}, fmt.Errorf("run %d: %s factory returned nil", i, algo.Name)
	}

	runCtx := ctx
	cancel := func() {}
	if r.PerRunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
	}
	res, err := op.Solve(runCtx, c.Inst, c.Stations)
	cancel()

	if err != nil && runCtx.Err() != nil {
		return Run{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
	}
	if err != nil {
		return Run{}, fmt.Errorf("run %d: solve error: %w", i, err)
	}
	if len(res.Stations) != c.Stations {
		return Run{}, fmt.Errorf("run %d: invalid station count %d (want %d)", i, len(res.Stations), c.Stations)
	}
	if err := salbp.ValidatePartition(res.Stations, c.Inst.Tasks); err != nil {
		return Run{}, fmt.Errorf("run %d: %w", i, err)
	}
	return Run{Index: i, Seed: runSeed, Result: res}, nil
}

func summarize(c Case, algo string, runs []Run) Record {
	cycles := make([]int, 0, len(runs))
	totals := make([]float64, 0, len(runs))
	toBest := make([]float64, 0, len(runs))
	for _, run := range runs {
		cycles = append(cycles, run.Result.CycleTime)
		totals = append(totals, ms(run.Result.Duration))
		toBest = append(toBest, ms(run.Result.TimeToBest))
	}

	cStats := CalcIntStats(cycles)
	tStats := CalcFloatStats(totals)
	bStats := CalcFloatStats(toBest)

	return Record{
		Algo:     algo,
		Instance: c.Instance,
		Tasks:    c.Inst.Tasks,
		Stations: c.Stations,
		Runs:     len(runs),

		CycleBest:    cStats.Best,
		CycleMean:    cStats.Mean,
		CycleStd:     cStats.Std,
		DeviationPct: cStats.DeviationPct(),

		TimeToBestMinMs:  bStats.Best,
		TimeToBestMeanMs: bStats.Mean,
		TimeMeanMs:       tStats.Mean,
		TimeStdMs:        tStats.Std,

		Results: runs,
	}
}

// Best returns the repetition with the lowest cycle time; ties go to the
// earlier run.
func (rec Record) Best() (Run, bool) {
	if len(rec.Results) == 0 {
		return Run{}, false
	}
	best := rec.Results[0]
	for _, run := range rec.Results[1:] {
		if run.Result.CycleTime < best.Result.CycleTime {
			best = run
		}
	}
	return best, true
}

func WriteCSV(path string, records []Record) error {
	if d := dirOf(path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeCSV(f, records); err != nil {
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	header := []string{
		"algo", "instance", "tasks", "stations", "runs",
		"cycle_best", "cycle_mean", "cycle_std", "deviation_pct",
		"time_to_best_min_ms", "time_to_best_mean_ms", "time_mean_ms", "time_std_ms",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			r.Instance,
			itoa(r.Tasks),
			itoa(r.Stations),
			itoa(r.Runs),

			itoa(r.CycleBest),
			ftoa(r.CycleMean),
			ftoa(r.CycleStd),
			ftoa(r.DeviationPct),

			ftoa(r.TimeToBestMinMs),
			ftoa(r.TimeToBestMeanMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
