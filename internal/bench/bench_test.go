package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math/rand"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assemblyLine/internal/ils"
	"assemblyLine/internal/opt"
	"assemblyLine/internal/salbp"
)

// fixedOptimizer returns a trivially feasible solution whose cycle time
// depends on the seed, so statistics are predictable.
type fixedOptimizer struct {
	seed int64
	err  error
}

func (f fixedOptimizer) Solve(_ context.Context, inst *salbp.Instance, stations int) (opt.Result, error) {
	if f.err != nil {
		return opt.Result{}, f.err
	}
	sol := make(salbp.Solution, stations)
	sol[0] = make([]int, inst.Tasks)
	for i := range sol[0] {
		sol[0][i] = i
	}
	return opt.Result{
		Stations:   sol,
		CycleTime:  10 + int(f.seed%2),
		TimeToBest: time.Duration(f.seed) * time.Millisecond,
		Duration:   100 * time.Millisecond,
	}, nil
}

func testCase(t *testing.T) Case {
	t.Helper()
	inst, err := salbp.NewInstance(3, []int{1, 2, 3}, nil)
	require.NoError(t, err)
	return Case{Instance: "tiny", Inst: inst, Stations: 2}
}

func TestCalcIntStats(t *testing.T) {
	s := CalcIntStats([]int{10, 12, 14})
	assert.Equal(t, 3, s.N)
	assert.Equal(t, 10, s.Best)
	assert.InDelta(t, 12.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.Std, 1e-9)
	assert.InDelta(t, 20.0, s.DeviationPct(), 1e-9)

	assert.Equal(t, IntStats{}, CalcIntStats(nil))
	assert.Equal(t, 0.0, IntStats{Best: 0, Mean: 3}.DeviationPct())
}

func TestCalcFloatStats(t *testing.T) {
	s := CalcFloatStats([]float64{2, 4})
	assert.Equal(t, 2.0, s.Best)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 1.4142135, s.Std, 1e-6)

	single := CalcFloatStats([]float64{5})
	assert.Equal(t, 0.0, single.Std)
}

func TestRunCase(t *testing.T) {
	for _, parallel := range []int{1, 4} {
		var calls atomic.Int32
		runner := Runner{
			Runs:     4,
			BaseSeed: 100,
			Parallel: parallel,
			OnRun:    func(Case, string, Run) { calls.Add(1) },
		}
		algo := Algorithm{Name: "FIXED", Factory: func(seed int64) opt.Optimizer { return fixedOptimizer{seed: seed} }}

		rec, err := runner.RunCase(context.Background(), testCase(t), algo)
		require.NoError(t, err)

		assert.Equal(t, "FIXED", rec.Algo)
		assert.Equal(t, 4, rec.Runs)
		assert.Equal(t, 10, rec.CycleBest)
		assert.InDelta(t, 10.5, rec.CycleMean, 1e-9)
		assert.InDelta(t, 5.0, rec.DeviationPct, 1e-9)
		assert.InDelta(t, 100.0, rec.TimeToBestMinMs, 1e-9)
		assert.InDelta(t, 100.0, rec.TimeMeanMs, 1e-9)
		assert.EqualValues(t, 4, calls.Load())

		for i, run := range rec.Results {
			assert.Equal(t, i, run.Index)
			assert.Equal(t, int64(100+i), run.Seed)
		}
		best, ok := rec.Best()
		require.True(t, ok)
		assert.Equal(t, 10, best.Result.CycleTime)
		assert.Equal(t, int64(100), best.Seed)
	}
}

func TestRunCaseErrors(t *testing.T) {
	c := testCase(t)
	boom := errors.New("boom")
	runner := Runner{Runs: 3, Parallel: 2}

	_, err := runner.RunCase(context.Background(), c, Algorithm{
		Name:    "ERR",
		Factory: func(int64) opt.Optimizer { return fixedOptimizer{err: boom} },
	})
	assert.ErrorIs(t, err, boom)

	_, err = Runner{Runs: 0}.RunCase(context.Background(), c, Algorithm{})
	assert.Error(t, err)

	_, err = runner.RunCase(context.Background(), Case{Instance: "nil"}, Algorithm{})
	assert.Error(t, err)
}

func TestRunCaseWithILS(t *testing.T) {
	inst := salbp.RandomInstance(12, 0.3, 1, 9, rand.New(rand.NewSource(1)))
	cfg := ils.DefaultConfig()
	cfg.TimeBudget = 20 * time.Millisecond
	algo := Algorithm{Name: "ILS", Factory: func(seed int64) opt.Optimizer {
		s, _ := ils.New(cfg, rand.New(rand.NewSource(seed)))
		return s
	}}

	rec, err := Runner{Runs: 3, BaseSeed: 1, Parallel: 3}.RunCase(context.Background(), Case{Instance: "rand", Inst: inst, Stations: 3}, algo)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Runs)
	assert.GreaterOrEqual(t, float64(rec.CycleBest), float64(inst.TotalCost())/3)
	assert.GreaterOrEqual(t, rec.DeviationPct, 0.0)
}

func TestWriteCSV(t *testing.T) {
	recs := []Record{{Algo: "ILS", Instance: "HAHN", Tasks: 53, Stations: 6, Runs: 5, CycleBest: 2400, CycleMean: 2410.5}}

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, recs))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "algo", rows[0][0])
	assert.Equal(t, []string{"ILS", "HAHN", "53", "6", "5", "2400", "2410.500000"}, rows[1][:7])

	path := filepath.Join(t.TempDir(), "out", "results.csv")
	require.NoError(t, WriteCSV(path, recs))
	assert.FileExists(t, path)
}
