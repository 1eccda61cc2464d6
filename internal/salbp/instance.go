package salbp

import (
	"errors"
	"fmt"
	"math/rand"
)

// Edge means task From must be finished before task To starts (0-based ids).
type Edge struct {
	From int
	To   int
}

type Instance struct {
	Tasks int
	// Costs length must be Tasks.
	Costs       []int
	Precedences []Edge
}

func NewInstance(tasks int, costs []int, precedences []Edge) (*Instance, error) {
	inst := &Instance{Tasks: tasks, Costs: costs, Precedences: precedences}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if inst.Tasks <= 0 {
		return fmt.Errorf("tasks must be > 0 (got %d)", inst.Tasks)
	}
	if len(inst.Costs) != inst.Tasks {
		return fmt.Errorf("costs length must be tasks=%d (got %d)", inst.Tasks, len(inst.Costs))
	}
	for i, v := range inst.Costs {
		if v < 0 {
			return fmt.Errorf("costs[%d] must be >= 0 (got %d)", i, v)
		}
	}
	for i, e := range inst.Precedences {
		if e.From < 0 || e.From >= inst.Tasks || e.To < 0 || e.To >= inst.Tasks {
			return fmt.Errorf("precedence[%d]=%d->%d out of range [0,%d)", i, e.From, e.To, inst.Tasks)
		}
		if e.From == e.To {
			return fmt.Errorf("precedence[%d]: task %d cannot precede itself", i, e.From)
		}
	}
	if task, ok := findCycle(inst.Tasks, inst.Precedences); ok {
		return fmt.Errorf("precedence graph has a cycle through task %d", task)
	}
	return nil
}

// TotalCost is the sum of all task costs, an upper bound for any cycle time.
func (inst *Instance) TotalCost() int {
	sum := 0
	for _, c := range inst.Costs {
		sum += c
	}
	return sum
}

// findCycle runs Kahn's algorithm and reports a task left with unresolved
// predecessors when the graph is not a DAG.
func findCycle(n int, edges []Edge) (int, bool) {
	indeg := make([]int, n)
	succ := make([][]int, n)
	for _, e := range edges {
		succ[e.From] = append(succ[e.From], e.To)
		indeg[e.To]++
	}
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	seen := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		seen++
		for _, w := range succ[v] {
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
	if seen == n {
		return 0, false
	}
	for v := 0; v < n; v++ {
		if indeg[v] > 0 {
			return v, true
		}
	}
	return 0, false
}

// RandomInstance builds an instance whose edges only go from lower to higher
// ids, so it is always acyclic. density is the probability of each such edge.
func RandomInstance(tasks int, density float64, minCost, maxCost int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("random source is nil")
	}
	if minCost < 0 || maxCost < 0 || maxCost < minCost {
		panic("invalid cost bounds")
	}
	if density < 0 || density > 1 {
		panic("density must be in [0,1]")
	}
	costs := make([]int, tasks)
	span := maxCost - minCost + 1
	for i := range costs {
		costs[i] = minCost
		if span > 1 {
			costs[i] += rng.Intn(span)
		}
	}
	var edges []Edge
	for i := 0; i < tasks; i++ {
		for j := i + 1; j < tasks; j++ {
			if rng.Float64() < density {
				edges = append(edges, Edge{From: i, To: j})
			}
		}
	}
	inst, err := NewInstance(tasks, costs, edges)
	if err != nil {
		panic(err)
	}
	return inst
}
