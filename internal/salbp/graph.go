package salbp

// Graph is the precedence graph of an instance. It is built once and only
// read afterwards, so it can be shared by concurrent runs.
type Graph struct {
	preds [][]int
	succs [][]int
	roots []int
}

func NewGraph(inst *Instance) (*Graph, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	g := &Graph{
		preds: make([][]int, inst.Tasks),
		succs: make([][]int, inst.Tasks),
	}
	dup := make(map[Edge]struct{}, len(inst.Precedences))
	for _, e := range inst.Precedences {
		if _, ok := dup[e]; ok {
			continue
		}
		dup[e] = struct{}{}
		g.preds[e.To] = append(g.preds[e.To], e.From)
		g.succs[e.From] = append(g.succs[e.From], e.To)
	}
	for v, p := range g.preds {
		if len(p) == 0 {
			g.roots = append(g.roots, v)
		}
	}
	return g, nil
}

func (g *Graph) Tasks() int { return len(g.preds) }

// Preds returns the direct predecessors of task. The slice must not be modified.
func (g *Graph) Preds(task int) []int { return g.preds[task] }

// Succs returns the direct successors of task. The slice must not be modified.
func (g *Graph) Succs(task int) []int { return g.succs[task] }

// Roots returns the tasks without predecessors.
func (g *Graph) Roots() []int { return g.roots }

func (g *Graph) Edges() int {
	n := 0
	for _, p := range g.preds {
		n += len(p)
	}
	return n
}
