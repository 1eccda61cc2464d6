package salbp

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T) (*Instance, *Graph) {
	t.Helper()
	inst, err := NewInstance(3, []int{5, 1, 1}, []Edge{{0, 1}, {1, 2}})
	require.NoError(t, err)
	g, err := NewGraph(inst)
	require.NoError(t, err)
	return inst, g
}

func TestInstanceValidate(t *testing.T) {
	tests := []struct {
		name    string
		inst    *Instance
		wantErr string
	}{
		{"nil", nil, "nil"},
		{"no tasks", &Instance{}, "tasks must be > 0"},
		{"cost length", &Instance{Tasks: 2, Costs: []int{1}}, "costs length"},
		{"negative cost", &Instance{Tasks: 1, Costs: []int{-1}}, "must be >= 0"},
		{"edge range", &Instance{Tasks: 2, Costs: []int{1, 1}, Precedences: []Edge{{0, 2}}}, "out of range"},
		{"self loop", &Instance{Tasks: 2, Costs: []int{1, 1}, Precedences: []Edge{{1, 1}}}, "itself"},
		{"cycle", &Instance{Tasks: 3, Costs: []int{1, 1, 1}, Precedences: []Edge{{0, 1}, {1, 2}, {2, 1}}}, "cycle"},
		{"no edges", &Instance{Tasks: 2, Costs: []int{0, 3}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inst.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGraph(t *testing.T) {
	inst, err := NewInstance(4, []int{1, 1, 1, 1}, []Edge{{0, 2}, {1, 2}, {2, 3}, {0, 2}})
	require.NoError(t, err)
	g, err := NewGraph(inst)
	require.NoError(t, err)

	assert.Equal(t, 4, g.Tasks())
	assert.ElementsMatch(t, []int{0, 1}, g.Preds(2))
	assert.Equal(t, []int{3}, g.Succs(2))
	assert.Equal(t, []int{0, 1}, g.Roots())
	assert.Equal(t, 3, g.Edges(), "duplicate edges are collapsed")
}

func TestCycleTime(t *testing.T) {
	costs := []int{3, 1, 4, 1, 5}
	s := Solution{{0, 1}, {2}, {3, 4}}
	assert.Equal(t, 6, CycleTime(s, costs))
	assert.Equal(t, []int{4, 4, 6}, s.Loads(costs))

	reordered := Solution{{3, 4}, {0, 1}, {2}}
	assert.Equal(t, CycleTime(s, costs), CycleTime(reordered, costs))

	assert.Equal(t, 0, CycleTime(Solution{{}, {}}, costs))
}

func TestIsFeasible(t *testing.T) {
	_, g := chain(t)
	tests := []struct {
		name string
		sol  Solution
		want bool
	}{
		{"one per station", Solution{{0}, {1}, {2}}, true},
		{"same station in order", Solution{{0, 1, 2}, {}, {}}, true},
		{"same station reversed", Solution{{1, 0}, {2}, {}}, false},
		{"later station first", Solution{{2}, {0}, {1}}, false},
		{"empty first station", Solution{{}, {0, 1}, {2}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFeasible(tt.sol, g))
		})
	}
}

func TestEvaluatorMatchesPureFunctions(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	inst := RandomInstance(12, 0.3, 1, 9, rng)
	ev, err := NewEvaluator(inst)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		perm := rng.Perm(inst.Tasks)
		cut := rng.Intn(inst.Tasks)
		s := Solution{perm[:cut], perm[cut:]}
		assert.Equal(t, IsFeasible(s, ev.Graph()), ev.Feasible(s))
		assert.Equal(t, CycleTime(s, inst.Costs), ev.CycleTime(s))
	}
	assert.Equal(t, 50, ev.Evaluations())
}

func TestEvaluatorCheck(t *testing.T) {
	inst, _ := chain(t)
	ev, err := NewEvaluator(inst)
	require.NoError(t, err)

	ct, err := ev.Check(Solution{{0}, {1}, {2}})
	require.NoError(t, err)
	assert.Equal(t, 5, ct)

	_, err = ev.Check(Solution{{0}, {1}})
	assert.ErrorContains(t, err, "must assign 3 tasks")

	_, err = ev.Check(Solution{{0, 0}, {1}, {2}})
	assert.ErrorContains(t, err, "duplicate")

	_, err = ev.Check(Solution{{1}, {0}, {2}})
	assert.ErrorContains(t, err, "precedence")
}

func TestSolutionKeyAndClone(t *testing.T) {
	a := Solution{{0, 1}, {2}}
	b := a.Clone()
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	b[0][0], b[0][1] = b[0][1], b[0][0]
	assert.Equal(t, 0, a[0][0], "clone must not share backing arrays")
	assert.NotEqual(t, a.Key(), b.Key())
	assert.False(t, a.Equal(b))

	// Station boundaries are part of the key.
	assert.NotEqual(t, Solution{{0, 1}, {2}}.Key(), Solution{{0}, {1, 2}}.Key())
	assert.NotEqual(t, Solution{{12}, {}}.Key(), Solution{{1}, {2}}.Key())
}

func TestSolutionString(t *testing.T) {
	s := Solution{{0, 2}, {1}}
	assert.Equal(t, "Station 1: 1,3\nStation 2: 2", s.String())
	assert.Equal(t, []int{0, 2, 1}, s.Flatten())
	assert.Equal(t, []int{2, 1}, s.Sizes())
}

func TestParse(t *testing.T) {
	in := "4\n3\n1\n4\n1\n1,2\n1, 3\n3,4\n-1,-1\n9,9\n"
	inst, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 4, inst.Tasks)
	assert.Equal(t, []int{3, 1, 4, 1}, inst.Costs)
	assert.Equal(t, []Edge{{0, 1}, {0, 2}, {2, 3}}, inst.Precedences)
}

func TestParseNoPrecedences(t *testing.T) {
	inst, err := Parse(strings.NewReader("2\n7\n8\n"))
	require.NoError(t, err)
	assert.Empty(t, inst.Precedences)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind ParseErrorKind
	}{
		{"empty", "", Truncated},
		{"header", "x\n", BadHeader},
		{"zero tasks", "0\n", BadHeader},
		{"missing costs", "3\n1\n2\n", Truncated},
		{"cost", "2\n1\nfoo\n", BadCost},
		{"negative cost", "2\n1\n-4\n", BadCost},
		{"pair shape", "2\n1\n1\n1;2\n", BadPair},
		{"pair value", "2\n1\n1\n1,b\n", BadPair},
		{"pair range", "2\n1\n1\n1,3\n", PairOutOfRange},
		{"cycle", "2\n1\n1\n1,2\n2,1\n", Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.True(t, IsParseError(err, tt.kind), "got %v", err)
		})
	}
}

func TestRandomInstanceIsAcyclic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		inst := RandomInstance(15, 0.4, 0, 20, rng)
		require.NoError(t, inst.Validate())
		for _, e := range inst.Precedences {
			assert.Less(t, e.From, e.To)
		}
		for _, c := range inst.Costs {
			assert.GreaterOrEqual(t, c, 0)
			assert.LessOrEqual(t, c, 20)
		}
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	inst := RandomInstance(10, 0.3, 1, 50, rand.New(rand.NewSource(8)))
	var b strings.Builder
	require.NoError(t, Write(&b, inst))
	assert.True(t, strings.HasSuffix(b.String(), "-1,-1\n"))

	got, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, inst.Costs, got.Costs)
	assert.Equal(t, len(inst.Precedences), len(got.Precedences))
}

func TestParseSolution(t *testing.T) {
	s, err := ParseSolution("1,3 | 2 ||")
	require.NoError(t, err)
	assert.Equal(t, Solution{{0, 2}, {1}, {}, {}}, s)

	_, err = ParseSolution("1,x")
	assert.Error(t, err)
	_, err = ParseSolution("0,1")
	assert.Error(t, err)
}

func TestRandomOrderAndSplitEven(t *testing.T) {
	_, g := chain(t)
	order := g.RandomOrder(rand.New(rand.NewSource(3)))
	assert.Equal(t, []int{0, 1, 2}, order)

	sol := SplitEven([]int{4, 0, 1, 2, 3}, 3)
	assert.Equal(t, Solution{{4, 0}, {1, 2}, {3}}, sol)
	assert.Equal(t, Solution{{}, {}}, SplitEven(nil, 2))
}
