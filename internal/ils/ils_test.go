package ils

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assemblyLine/internal/salbp"
)

func newTestEngine(t *testing.T, inst *salbp.Instance, seed int64) *engine {
	t.Helper()
	eval, err := salbp.NewEvaluator(inst)
	require.NoError(t, err)
	return &engine{
		cfg:   DefaultConfig(),
		rng:   rand.New(rand.NewSource(seed)),
		eval:  eval,
		costs: inst.Costs,
		hist:  newHistory(),
	}
}

func requireValid(t *testing.T, e *engine, sol salbp.Solution, stations int) {
	t.Helper()
	require.Len(t, sol, stations)
	require.NoError(t, salbp.ValidatePartition(sol, e.eval.Instance().Tasks))
	require.True(t, salbp.IsFeasible(sol, e.eval.Graph()), "infeasible solution %v", sol)
}

func randomInstance(seed int64, tasks int) *salbp.Instance {
	return salbp.RandomInstance(tasks, 0.25, 1, 20, rand.New(rand.NewSource(seed)))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"budget", func(c *Config) { c.TimeBudget = 0 }},
		{"attempts", func(c *Config) { c.MaxPerturbAttempts = 0 }},
		{"swap percent low", func(c *Config) { c.SwapPercent = 0 }},
		{"swap percent high", func(c *Config) { c.SwapPercent = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSwapCount(t *testing.T) {
	cfg := DefaultConfig()
	for stations, want := range map[int]int{1: 1, 2: 1, 3: 1, 6: 1, 8: 2, 10: 3, 20: 6} {
		assert.Equal(t, want, cfg.swapCount(stations), "stations=%d", stations)
	}
}

func TestStationSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, tc := range []struct{ tasks, stations int }{{10, 3}, {4, 2}, {2, 5}, {53, 6}} {
		sizes := stationSizes(tc.tasks, tc.stations, rng)
		require.Len(t, sizes, tc.stations)
		sum, lo, hi := 0, sizes[0], sizes[0]
		for _, s := range sizes {
			sum += s
			lo = min(lo, s)
			hi = max(hi, s)
		}
		assert.Equal(t, tc.tasks, sum)
		assert.LessOrEqual(t, hi-lo, 1)
	}
}

func TestRandomOrder(t *testing.T) {
	inst := randomInstance(11, 30)
	g, err := salbp.NewGraph(inst)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		order := g.RandomOrder(rng)
		require.Len(t, order, inst.Tasks)
		assert.True(t, salbp.IsFeasible(salbp.Solution{order}, g))
	}
}

func TestBuildInitialIsFeasible(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		inst := randomInstance(seed, 25)
		e := newTestEngine(t, inst, seed)
		for _, m := range []int{1, 3, 6, 30} {
			sol, fo := buildInitial(e.eval.Graph(), inst.Costs, m, e.rng)
			requireValid(t, e, sol, m)
			assert.Equal(t, salbp.CycleTime(sol, inst.Costs), fo)
		}
	}
}

func TestLocalSearchNeverWorsens(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		inst := randomInstance(seed, 20)
		e := newTestEngine(t, inst, seed)
		sol, fo := buildInitial(e.eval.Graph(), inst.Costs, 4, e.rng)

		got, gotFO := e.localSearch(sol, fo)
		requireValid(t, e, got, 4)
		assert.LessOrEqual(t, gotFO, fo)
		assert.Equal(t, salbp.CycleTime(got, inst.Costs), gotFO)
	}
}

func TestLocalSearchDoesNotModifyInput(t *testing.T) {
	inst := randomInstance(3, 15)
	e := newTestEngine(t, inst, 3)
	sol, fo := buildInitial(e.eval.Graph(), inst.Costs, 3, e.rng)
	before := sol.Clone()
	e.localSearch(sol, fo)
	assert.True(t, before.Equal(sol))
}

func TestLocalSearchSingleSweep(t *testing.T) {
	// Все три обмена дают 9, за проход берётся первый строго улучшающий
	inst, err := salbp.NewInstance(4, []int{4, 4, 4, 1}, nil)
	require.NoError(t, err)
	e := newTestEngine(t, inst, 1)

	sol := salbp.Solution{{0, 1, 2}, {3}}
	got, fo := e.localSearch(sol, 12)
	assert.Equal(t, 9, fo)
	assert.Equal(t, []int{1, 2, 3}, got[0])
	assert.Equal(t, []int{0}, got[1])
}

func TestLocalSearchRejectsInfeasibleSwaps(t *testing.T) {
	inst, err := salbp.NewInstance(3, []int{5, 1, 1}, []salbp.Edge{{From: 0, To: 1}, {From: 1, To: 2}})
	require.NoError(t, err)
	e := newTestEngine(t, inst, 1)

	sol := salbp.Solution{{0}, {1}, {2}}
	got, fo := e.localSearch(sol, 5)
	assert.Equal(t, 5, fo)
	assert.True(t, sol.Equal(got))
}

func TestPerturbProducesNovelFeasibleSolution(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		inst := randomInstance(seed, 20)
		e := newTestEngine(t, inst, seed)
		sol, _ := buildInitial(e.eval.Graph(), inst.Costs, 5, e.rng)
		e.hist.Add(sol)

		got := e.perturb(sol)
		requireValid(t, e, got, 5)
		if got.Equal(sol) {
			// Допустимый откат: ни одна попытка не дала нового решения
			assert.Equal(t, 1, e.perturbFallbacks)
			continue
		}
		assert.False(t, e.hist.Contains(got))
	}
}

func TestPerturbFallback(t *testing.T) {
	inst, err := salbp.NewInstance(2, []int{1, 1}, nil)
	require.NoError(t, err)
	e := newTestEngine(t, inst, 1)

	// С двумя станциями по одной задаче любой обмен даёт {{1},{0}}
	cur := salbp.Solution{{0}, {1}}
	e.hist.Add(cur)
	e.hist.Add(salbp.Solution{{1}, {0}})

	got := e.perturb(cur)
	assert.True(t, cur.Equal(got))
	assert.Equal(t, 1, e.perturbFallbacks)
}

func TestPerturbSwapsWhenNovel(t *testing.T) {
	inst, err := salbp.NewInstance(2, []int{1, 1}, nil)
	require.NoError(t, err)
	e := newTestEngine(t, inst, 1)

	cur := salbp.Solution{{0}, {1}}
	e.hist.Add(cur)
	got := e.perturb(cur)
	assert.Equal(t, salbp.Solution{{1}, {0}}, got)
	assert.Equal(t, salbp.Solution{{0}, {1}}, cur, "input must not change")
}

func TestPerturbSingleStation(t *testing.T) {
	inst, err := salbp.NewInstance(3, []int{1, 2, 3}, nil)
	require.NoError(t, err)
	e := newTestEngine(t, inst, 1)
	cur := salbp.Solution{{0, 1, 2}}
	assert.True(t, cur.Equal(e.perturb(cur)))
}

func TestAccept(t *testing.T) {
	cur := salbp.Solution{{0}, {1, 2}}
	cand := salbp.Solution{{1}, {0, 2}}

	t.Run("empty history accepts", func(t *testing.T) {
		got, fo := accept(cur, 5, cand, 9, newHistory())
		assert.Equal(t, cand, got)
		assert.Equal(t, 9, fo)
	})
	t.Run("better accepted even if seen", func(t *testing.T) {
		h := newHistory()
		h.Add(cand)
		got, fo := accept(cur, 5, cand, 4, h)
		assert.Equal(t, cand, got)
		assert.Equal(t, 4, fo)
	})
	t.Run("seen and not better rejected", func(t *testing.T) {
		h := newHistory()
		h.Add(cand)
		got, fo := accept(cur, 5, cand, 5, h)
		assert.Equal(t, cur, got)
		assert.Equal(t, 5, fo)
	})
	t.Run("worse but novel accepted", func(t *testing.T) {
		h := newHistory()
		h.Add(cur)
		got, _ := accept(cur, 5, cand, 8, h)
		assert.Equal(t, cand, got)
	})
}

func TestHistory(t *testing.T) {
	h := newHistory()
	a := salbp.Solution{{0, 1}, {2}}
	assert.False(t, h.Contains(a))
	h.Add(a)
	h.Add(a.Clone())
	assert.True(t, h.Contains(salbp.Solution{{0, 1}, {2}}))
	assert.False(t, h.Contains(salbp.Solution{{1, 0}, {2}}))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.Distinct())
}

func TestNew(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.MaxPerturbAttempts = -1
	_, err = New(bad, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestSolveRejectsBadInput(t *testing.T) {
	s, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), &salbp.Instance{}, 2)
	assert.Error(t, err)

	inst, _ := salbp.NewInstance(2, []int{1, 1}, nil)
	_, err = s.Solve(context.Background(), inst, 0)
	assert.Error(t, err)
}

func TestRunBalancedWithoutPrecedences(t *testing.T) {
	inst, err := salbp.NewInstance(4, []int{1, 1, 1, 1}, nil)
	require.NoError(t, err)
	for seed := int64(1); seed <= 5; seed++ {
		res, err := Run(context.Background(), 2, inst, 30*time.Millisecond, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Equal(t, 2, res.CycleTime)
		assert.Equal(t, []int{2, 2}, res.Stations.Sizes())
	}
}

func TestRunChain(t *testing.T) {
	inst, err := salbp.NewInstance(3, []int{5, 1, 1}, []salbp.Edge{{From: 0, To: 1}, {From: 1, To: 2}})
	require.NoError(t, err)
	res, err := Run(context.Background(), 3, inst, 20*time.Millisecond, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 5, res.CycleTime)
	assert.Equal(t, []int{0, 1, 2}, res.Stations.Flatten())
}

func TestRunProperties(t *testing.T) {
	inst := randomInstance(42, 30)
	budget := 100 * time.Millisecond
	start := time.Now()
	res, err := Run(context.Background(), 6, inst, budget, rand.New(rand.NewSource(42)))
	elapsed := time.Since(start)
	require.NoError(t, err)

	g, err := salbp.NewGraph(inst)
	require.NoError(t, err)
	require.NoError(t, salbp.ValidatePartition(res.Stations, inst.Tasks))
	assert.True(t, salbp.IsFeasible(res.Stations, g))
	assert.Equal(t, salbp.CycleTime(res.Stations, inst.Costs), res.CycleTime)

	assert.GreaterOrEqual(t, res.Duration, budget)
	assert.Less(t, elapsed, budget+2*time.Second)
	assert.LessOrEqual(t, res.TimeToBest, res.Duration)
	assert.Equal(t, "done", res.Meta["state"])

	require.NotEmpty(t, res.Trace)
	for i := 1; i < len(res.Trace); i++ {
		assert.Less(t, res.Trace[i].CycleTime, res.Trace[i-1].CycleTime)
		assert.GreaterOrEqual(t, res.Trace[i].Elapsed, res.Trace[i-1].Elapsed)
	}
	last := res.Trace[len(res.Trace)-1]
	assert.Equal(t, res.CycleTime, last.CycleTime)
	assert.Equal(t, res.TimeToBest, last.Elapsed)
}

func TestRunCancelled(t *testing.T) {
	inst := randomInstance(9, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, 4, inst, time.Minute, rand.New(rand.NewSource(9)))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res.Stations)
	assert.NoError(t, salbp.ValidatePartition(res.Stations, inst.Tasks))
	assert.Equal(t, "context", res.Meta["stopped"])
}
