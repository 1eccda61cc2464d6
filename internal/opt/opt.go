package opt

import (
	"context"
	"time"

	"assemblyLine/internal/salbp"
)

// Optimizer balances an instance over a fixed number of stations.
type Optimizer interface {
	Solve(ctx context.Context, inst *salbp.Instance, stations int) (Result, error)
}

type Result struct {
	Stations  salbp.Solution
	CycleTime int
	// TimeToBest is the elapsed time at which CycleTime was first reached.
	TimeToBest time.Duration
	// MeanTimeToBest averages the timestamps of every best-so-far update.
	MeanTimeToBest time.Duration
	Evaluations    int
	Iterations     int
	Duration       time.Duration
	Trace          []Improvement
	Meta           map[string]any
}

// Improvement is one best-so-far update during a run.
type Improvement struct {
	CycleTime int
	Elapsed   time.Duration
}

// MeanElapsed averages the Elapsed field of the trace, 0 for an empty trace.
func MeanElapsed(trace []Improvement) time.Duration {
	if len(trace) == 0 {
		return 0
	}
	var sum time.Duration
	for _, im := range trace {
		sum += im.Elapsed
	}
	return sum / time.Duration(len(trace))
}
