package salbp

import (
	"fmt"
	"strconv"
	"strings"
)

// Solution lists the stations in line order; each station lists its tasks in
// the order they are processed.
type Solution [][]int

func (s Solution) Clone() Solution {
	out := make(Solution, len(s))
	for i, st := range s {
		out[i] = append(make([]int, 0, len(st)+1), st...)
	}
	return out
}

// Flatten concatenates the stations; for a feasible solution the result is a
// topological order of the precedence graph.
func (s Solution) Flatten() []int {
	n := 0
	for _, st := range s {
		n += len(st)
	}
	out := make([]int, 0, n)
	for _, st := range s {
		out = append(out, st...)
	}
	return out
}

// Key is the canonical form of the solution: two solutions have the same key
// exactly when every station holds the same tasks in the same order.
func (s Solution) Key() string {
	var b strings.Builder
	for i, st := range s {
		if i > 0 {
			b.WriteByte('|')
		}
		for j, t := range st {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(t))
		}
	}
	return b.String()
}

func (s Solution) Equal(o Solution) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if len(s[i]) != len(o[i]) {
			return false
		}
		for j := range s[i] {
			if s[i][j] != o[i][j] {
				return false
			}
		}
	}
	return true
}

// Loads returns the cycle time of every station.
func (s Solution) Loads(costs []int) []int {
	out := make([]int, len(s))
	for i, st := range s {
		for _, t := range st {
			out[i] += costs[t]
		}
	}
	return out
}

// Sizes returns the number of tasks per station.
func (s Solution) Sizes() []int {
	out := make([]int, len(s))
	for i, st := range s {
		out[i] = len(st)
	}
	return out
}

// String prints stations 1-based, the way line reports show them.
func (s Solution) String() string {
	var b strings.Builder
	for i, st := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Station %d: %s", i+1, FormatTasks(st))
	}
	return b.String()
}

// FormatTasks joins task ids as 1-based numbers separated by commas.
func FormatTasks(tasks []int) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = strconv.Itoa(t + 1)
	}
	return strings.Join(parts, ",")
}

// ValidatePartition checks that every task in [0,n) appears exactly once.
func ValidatePartition(s Solution, n int) error {
	seen := make([]bool, n)
	count := 0
	for i, st := range s {
		for _, t := range st {
			if t < 0 || t >= n {
				return fmt.Errorf("station %d: task %d out of range [0,%d)", i, t, n)
			}
			if seen[t] {
				return fmt.Errorf("duplicate task id %d in solution", t)
			}
			seen[t] = true
			count++
		}
	}
	if count != n {
		return fmt.Errorf("solution must assign %d tasks (got %d)", n, count)
	}
	return nil
}

// ParseSolution reads the 1-based form produced by FormatTasks: stations
// separated by '|', tasks by ','. An empty station is written as nothing
// between two separators.
func ParseSolution(s string) (Solution, error) {
	parts := strings.Split(strings.TrimSpace(s), "|")
	out := make(Solution, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		out[i] = []int{}
		if p == "" {
			continue
		}
		for _, f := range strings.Split(p, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("station %d: %w", i+1, err)
			}
			if v < 1 {
				return nil, fmt.Errorf("station %d: task ids are 1-based (got %d)", i+1, v)
			}
			out[i] = append(out[i], v-1)
		}
	}
	return out, nil
}
