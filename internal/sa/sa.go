package sa

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"assemblyLine/internal/opt"
	"assemblyLine/internal/salbp"
)

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// Solve — реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *salbp.Instance, stations int) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if stations < 1 {
		return opt.Result{}, fmt.Errorf("число станций должно быть > 0 (получено %d)", stations)
	}

	// Оценка целевой функции и проверка предшествования
	eval, err := salbp.NewEvaluator(inst)
	if err != nil {
		return opt.Result{}, err
	}

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerTask * inst.Tasks
	}

	// Инициализация текущего решения
	curr := salbp.SplitEven(eval.Graph().RandomOrder(s.Rng), stations)
	currCost := eval.CycleTime(curr)

	best := curr.Clone()
	bestCost := currCost
	trace := []opt.Improvement{{CycleTime: bestCost, Elapsed: time.Since(start)}}

	T := s.Cfg.InitialTemp

	for iter := 0; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			return opt.Result{
				Stations:       best,
				CycleTime:      bestCost,
				TimeToBest:     trace[len(trace)-1].Elapsed,
				MeanTimeToBest: opt.MeanElapsed(trace),
				Evaluations:    eval.Evaluations(),
				Iterations:     iter,
				Duration:       time.Since(start),
				Trace:          trace,
				Meta: map[string]any{
					"stopped": "context",
					"T":       T,
				},
			}, err
		}

		var cand salbp.Solution
		switch s.Cfg.Neighborhood {
		case NeighborhoodSwap:
			// Окрестность на основе обмена двух задач между станциями
			cand = neighborSwap(curr, s.Rng)
		default:
			// Окрестность на основе сдвига границы станций
			cand = neighborShift(curr, s.Rng)
		}
		if cand == nil || !eval.Feasible(cand) {
			T *= s.Cfg.Alpha
			continue
		}

		candCost := eval.CycleTime(cand)

		delta := candCost - currCost
		accept := false
		if delta <= 0 {
			// Улучшающее решение принимаем всегда
			accept = true
		} else {
			// Критерий Метрополиса:
			// допускает принятие ухудшающих решений
			p := math.Exp(-float64(delta) / T)
			if s.Rng.Float64() < p {
				accept = true
			}
		}

		if accept {
			curr = cand
			currCost = candCost

			// Обновление глобально лучшего решения
			if currCost < bestCost {
				bestCost = currCost
				best = curr.Clone()
				trace = append(trace, opt.Improvement{CycleTime: bestCost, Elapsed: time.Since(start)})
			}
		}

		// Охлаждение температуры
		T *= s.Cfg.Alpha
	}

	return opt.Result{
		Stations:       best,
		CycleTime:      bestCost,
		TimeToBest:     trace[len(trace)-1].Elapsed,
		MeanTimeToBest: opt.MeanElapsed(trace),
		Evaluations:    eval.Evaluations(),
		Iterations:     maxIter,
		Duration:       time.Since(start),
		Trace:          trace,
		Meta: map[string]any{
			"initial_temp": s.Cfg.InitialTemp,
			"final_temp":   s.Cfg.FinalTemp,
			"alpha":        s.Cfg.Alpha,
			"neighborhood": string(s.Cfg.Neighborhood),
		},
	}, nil
}

// Формирует соседнее решение путём обмена двух случайных задач
// между двумя различными станциями. nil, если обмен невозможен.
func neighborSwap(s salbp.Solution, rng *rand.Rand) salbp.Solution {
	m := len(s)
	if m < 2 {
		return nil
	}
	i := rng.Intn(m)
	j := rng.Intn(m - 1)
	if j >= i {
		j++
	}
	if len(s[i]) == 0 || len(s[j]) == 0 {
		return nil
	}
	out := s.Clone()
	a := rng.Intn(len(out[i]))
	b := rng.Intn(len(out[j]))
	out[i][a], out[j][b] = out[j][b], out[i][a]
	return out
}

// Формирует соседнее решение сдвигом границы между станциями i и i+1:
// последняя задача станции i переходит в начало i+1 или наоборот.
// Порядок задач при этом не меняется, поэтому решение остаётся допустимым.
func neighborShift(s salbp.Solution, rng *rand.Rand) salbp.Solution {
	m := len(s)
	if m < 2 {
		return nil
	}
	i := rng.Intn(m - 1)
	out := s.Clone()
	if rng.Intn(2) == 0 {
		if len(out[i]) == 0 {
			return nil
		}
		last := out[i][len(out[i])-1]
		out[i] = out[i][:len(out[i])-1]
		out[i+1] = append([]int{last}, out[i+1]...)
	} else {
		if len(out[i+1]) == 0 {
			return nil
		}
		first := out[i+1][0]
		out[i+1] = out[i+1][1:]
		out[i] = append(out[i], first)
	}
	return out
}
