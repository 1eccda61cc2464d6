package ils

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"assemblyLine/internal/opt"
	"assemblyLine/internal/salbp"
)

// Состояния движка
type state int

const (
	stateBuildingInitial state = iota
	stateLocalSearchInitial
	stateLooping
	stateDone
)

func (s state) String() string {
	switch s {
	case stateBuildingInitial:
		return "building_initial"
	case stateLocalSearchInitial:
		return "local_search_initial"
	case stateLooping:
		return "looping"
	default:
		return "done"
	}
}

// Solver - структура реализации итерированного локального поиска (ILS).
type Solver struct {
	Cfg    Config
	Rng    *rand.Rand
	Logger *log.Logger
}

// New возвращает новый ILS-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// Run — один запуск ILS с бюджетом времени budget и остальными
// параметрами по умолчанию.
func Run(ctx context.Context, stations int, inst *salbp.Instance, budget time.Duration, rng *rand.Rand) (opt.Result, error) {
	cfg := DefaultConfig()
	cfg.TimeBudget = budget
	s, err := New(cfg, rng)
	if err != nil {
		return opt.Result{}, err
	}
	return s.Solve(ctx, inst, stations)
}

// engine хранит всё изменяемое состояние одного запуска:
// историю, генератор случайных чисел и буферы. Разные запуски
// не разделяют ничего, кроме графа предшествования (только чтение).
type engine struct {
	cfg   Config
	rng   *rand.Rand
	eval  *salbp.Evaluator
	costs []int
	hist  *history

	// Буферы локального поиска
	bufI, bufJ []int

	evals            int
	perturbFallbacks int
}

// Solve — основной цикл алгоритма
func (s *Solver) Solve(ctx context.Context, inst *salbp.Instance, stations int) (opt.Result, error) {
	start := time.Now()

	// Валидация входных данных
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
	logger := s.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	eval, err := salbp.NewEvaluator(inst)
	if err != nil {
		return opt.Result{}, err
	}

	e := &engine{
		cfg:   s.Cfg,
		rng:   s.Rng,
		eval:  eval,
		costs: inst.Costs,
		hist:  newHistory(),
	}

	var (
		curr, best     salbp.Solution
		currFO, bestFO int
		initial        salbp.Solution
		initialFO      int
		timeToBest     time.Duration
		trace          []opt.Improvement
		iter           int
	)
	improve := func(sol salbp.Solution, fo int) {
		best, bestFO = sol, fo
		timeToBest = time.Since(start)
		trace = append(trace, opt.Improvement{CycleTime: fo, Elapsed: timeToBest})
	}
	result := func(st state) opt.Result {
		return opt.Result{
			Stations:       best,
			CycleTime:      bestFO,
			TimeToBest:     timeToBest,
			MeanTimeToBest: opt.MeanElapsed(trace),
			Evaluations:    e.evals,
			Iterations:     iter,
			Duration:       time.Since(start),
			Trace:          trace,
			Meta: map[string]any{
				"state":                st.String(),
				"initial":              initial,
				"initial_cycle_time":   initialFO,
				"history":              e.hist.Len(),
				"history_distinct":     e.hist.Distinct(),
				"perturb_fallbacks":    e.perturbFallbacks,
				"max_perturb_attempts": s.Cfg.MaxPerturbAttempts,
				"swaps":                s.Cfg.swapCount(stations),
				"time_budget":          s.Cfg.TimeBudget.String(),
			},
		}
	}

	st := stateBuildingInitial
	for st != stateDone {
		switch st {
		case stateBuildingInitial:
			curr, currFO = buildInitial(eval.Graph(), inst.Costs, stations, s.Rng)
			e.evals++
			initial, initialFO = curr, currFO
			improve(curr, currFO)
			logger.Debug("initial solution", "stations", stations, "fo", currFO)
			st = stateLocalSearchInitial

		case stateLocalSearchInitial:
			curr, currFO = e.localSearch(curr, currFO)
			if currFO < bestFO {
				improve(curr, currFO)
			}
			e.hist.Add(curr)
			st = stateLooping

		case stateLooping:
			// Единственное условие остановки — исчерпание бюджета времени
			if time.Since(start) >= s.Cfg.TimeBudget {
				st = stateDone
				continue
			}
			// Для поддержки отмены через context
			if err := ctx.Err(); err != nil {
				res := result(st)
				res.Meta["stopped"] = "context"
				return res, err
			}

			perturbed := e.perturb(curr)
			cand, candFO := e.localSearch(perturbed, salbp.CycleTime(perturbed, inst.Costs))
			curr, currFO = accept(curr, currFO, cand, candFO, e.hist)
			e.hist.Add(curr)
			iter++

			// Обновление глобально лучшего решения
			if currFO < bestFO {
				improve(curr, currFO)
				logger.Debug("new best", "fo", currFO, "iter", iter, "elapsed", timeToBest.Round(time.Millisecond))
			}
		}
	}

	res := result(stateDone)
	logger.Debug("ils finished", "stations", stations, "fo", bestFO, "iterations", iter, "elapsed", res.Duration.Round(time.Millisecond))
	return res, nil
}
