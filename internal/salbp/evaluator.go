package salbp

import "fmt"

// CycleTime returns the largest station load of s.
func CycleTime(s Solution, costs []int) int {
	worst := 0
	for _, st := range s {
		load := 0
		for _, t := range st {
			load += costs[t]
		}
		if load > worst {
			worst = load
		}
	}
	return worst
}

// IsFeasible scans stations and tasks in order and fails as soon as a task
// appears before one of its direct predecessors.
func IsFeasible(s Solution, g *Graph) bool {
	done := make([]bool, g.Tasks())
	for _, st := range s {
		for _, t := range st {
			for _, p := range g.Preds(t) {
				if !done[p] {
					return false
				}
			}
			done[t] = true
		}
	}
	return true
}

// Evaluator is the allocation-free form of CycleTime and IsFeasible used by
// the solvers. It keeps a scratch buffer and must not be shared between runs.
type Evaluator struct {
	inst  *Instance
	graph *Graph
	mark  []int
	stamp int
	evals int
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	g, err := NewGraph(inst)
	if err != nil {
		return nil, err
	}
	return NewEvaluatorWithGraph(inst, g)
}

// NewEvaluatorWithGraph reuses a graph that was already built for inst.
func NewEvaluatorWithGraph(inst *Instance, g *Graph) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if g == nil || g.Tasks() != inst.Tasks {
		return nil, fmt.Errorf("graph does not match instance with %d tasks", inst.Tasks)
	}
	return &Evaluator{inst: inst, graph: g, mark: make([]int, inst.Tasks)}, nil
}

func (e *Evaluator) Instance() *Instance { return e.inst }
func (e *Evaluator) Graph() *Graph       { return e.graph }

// Evaluations counts CycleTime calls since the evaluator was created.
func (e *Evaluator) Evaluations() int { return e.evals }

func (e *Evaluator) CycleTime(s Solution) int {
	e.evals++
	return CycleTime(s, e.inst.Costs)
}

func (e *Evaluator) Feasible(s Solution) bool {
	e.stamp++
	cur := e.stamp
	for _, st := range s {
		for _, t := range st {
			for _, p := range e.graph.Preds(t) {
				if e.mark[p] != cur {
					return false
				}
			}
			e.mark[t] = cur
		}
	}
	return true
}

// Check validates a complete solution: partition, feasibility and cycle time.
func (e *Evaluator) Check(s Solution) (int, error) {
	if e == nil || e.inst == nil {
		return 0, fmt.Errorf("nil evaluator")
	}
	if err := ValidatePartition(s, e.inst.Tasks); err != nil {
		return 0, err
	}
	if !e.Feasible(s) {
		return 0, fmt.Errorf("solution violates precedence constraints")
	}
	return e.CycleTime(s), nil
}
