package salbp

import "math/rand"

// RandomOrder returns a topological order of the graph. At every step one
// of the tasks whose predecessors are all placed is picked uniformly.
func (g *Graph) RandomOrder(rng *rand.Rand) []int {
	n := g.Tasks()
	remaining := make([]int, n)
	for v := 0; v < n; v++ {
		remaining[v] = len(g.preds[v])
	}
	ready := append([]int(nil), g.roots...)
	order := make([]int, 0, n)

	for len(ready) > 0 {
		k := rng.Intn(len(ready))
		v := ready[k]
		ready[k] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]

		order = append(order, v)
		for _, w := range g.succs[v] {
			remaining[w]--
			if remaining[w] == 0 {
				ready = append(ready, w)
			}
		}
	}
	return order
}

// SplitEven cuts order into stations of nearly equal size, the first
// len(order)%stations stations taking one extra task.
func SplitEven(order []int, stations int) Solution {
	n := len(order)
	sol := make(Solution, stations)
	pos := 0
	for st := range sol {
		size := n / stations
		if st < n%stations {
			size++
		}
		sol[st] = append(make([]int, 0, size+1), order[pos:pos+size]...)
		pos += size
	}
	return sol
}
