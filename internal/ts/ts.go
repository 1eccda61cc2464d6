package ts

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"assemblyLine/internal/opt"
	"assemblyLine/internal/salbp"
)

// maxInt используется как бесконечность для стоимостей.
const maxInt = int(^uint(0) >> 1)

// Solver - структура реализации поиска с запретами.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый TS-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// move - ход между станциями: задача из позиции a станции i
// переносится (или меняется с задачей из позиции b) на станцию j.
type move struct {
	i, a int
	j, b int
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

	// Оценка целевой функции и проверка предшествования
	eval, err := salbp.NewEvaluator(inst)
	if err != nil {
		return opt.Result{}, err
	}

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerTask * inst.Tasks
	}

	// Инициализация начального решения
	curr := salbp.SplitEven(eval.Graph().RandomOrder(s.Rng), stations)
	currCost := eval.CycleTime(curr)

	// Глобально лучшее решение
	best := curr.Clone()
	bestCost := currCost
	trace := []opt.Improvement{{CycleTime: bestCost, Elapsed: time.Since(start)}}

	// Табу-список - кольцевой буфер с мапой
	// Ёмкость выбирается с запасом относительно длины табу
	tabu := newTabuList(max(32, (s.Cfg.TabuTenure+s.Cfg.TabuTenureRand)*4))

	iter := 0
	for ; iter < maxIter; iter++ {
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
				},
			}, err
		}

		// Лучший допустимый ход
		var bestMove salbp.Solution
		var bestMv move
		bestMoveCost := maxInt

		// Запасной ход (лучший без учёта табу),
		// используется если все допустимые ходы табуированы
		var fallback salbp.Solution
		var fallbackMv move
		fallbackCost := maxInt

		// Итерация по случайно сгенерированным соседям
		for k := 0; k < s.Cfg.NeighborsPerIter; k++ {
			mv, ok := s.randomMove(curr)
			if !ok {
				continue
			}
			cand := applyMove(curr, mv, s.Cfg.Neighborhood)
			if !eval.Feasible(cand) {
				continue
			}
			cost := eval.CycleTime(cand)

			if cost < fallbackCost {
				fallbackCost = cost
				fallback, fallbackMv = cand, mv
			}

			isTabu := s.isTabu(tabu, curr, mv, iter)
			aspiration := cost < bestCost // критерий аспирации

			// Табуированный ход пропускается,
			// если не выполняется критерий аспирации
			if isTabu && !aspiration {
				continue
			}
			if cost < bestMoveCost {
				bestMoveCost = cost
				bestMove, bestMv = cand, mv
			}
		}

		// Выбор хода: сначала допустимый лучший, затем запасной
		chosen, chosenMv, chosenCost := bestMove, bestMv, bestMoveCost
		if chosen == nil {
			chosen, chosenMv, chosenCost = fallback, fallbackMv, fallbackCost
		}
		// Ни одного допустимого соседа на этой итерации
		if chosen == nil {
			continue
		}

		// Обратный ход (возврат задач на исходные станции) попадает в табу
		tenure := s.Cfg.TabuTenure
		if s.Cfg.TabuTenureRand > 0 {
			tenure += s.Rng.Intn(s.Cfg.TabuTenureRand + 1)
		}
		tabu.Add(moveKey(curr[chosenMv.i][chosenMv.a], chosenMv.i), iter+tenure)
		if s.Cfg.Neighborhood == NeighborhoodSwap {
			tabu.Add(moveKey(curr[chosenMv.j][chosenMv.b], chosenMv.j), iter+tenure)
		}

		curr, currCost = chosen, chosenCost

		// Обновление глобально лучшего решения
		if currCost < bestCost {
			bestCost = currCost
			best = curr.Clone()
			trace = append(trace, opt.Improvement{CycleTime: bestCost, Elapsed: time.Since(start)})
		}
	}

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
			"tabu_tenure":        s.Cfg.TabuTenure,
			"tabu_tenure_rand":   s.Cfg.TabuTenureRand,
			"neighbors_per_iter": s.Cfg.NeighborsPerIter,
			"neighborhood":       string(s.Cfg.Neighborhood),
		},
	}, nil
}

// randomMove выбирает две различные станции и позиции в них.
// Для insert позиция b - место вставки в станцию j (0..len),
// для swap - задача станции j. false, если хода нет.
func (s *Solver) randomMove(curr salbp.Solution) (move, bool) {
	m := len(curr)
	if m < 2 {
		return move{}, false
	}
	i := s.Rng.Intn(m)
	j := s.Rng.Intn(m - 1)
	if j >= i {
		j++
	}
	if len(curr[i]) == 0 {
		return move{}, false
	}
	mv := move{i: i, a: s.Rng.Intn(len(curr[i])), j: j}
	if s.Cfg.Neighborhood == NeighborhoodSwap {
		if len(curr[j]) == 0 {
			return move{}, false
		}
		mv.b = s.Rng.Intn(len(curr[j]))
	} else {
		mv.b = s.Rng.Intn(len(curr[j]) + 1)
	}
	return mv, true
}

// isTabu - ход запрещён, если хотя бы одна задача возвращается
// на станцию, которую недавно покинула.
func (s *Solver) isTabu(t *tabuList, curr salbp.Solution, mv move, iter int) bool {
	if t.IsTabu(moveKey(curr[mv.i][mv.a], mv.j), iter) {
		return true
	}
	return s.Cfg.Neighborhood == NeighborhoodSwap && t.IsTabu(moveKey(curr[mv.j][mv.b], mv.i), iter)
}

// applyMove возвращает копию решения с применённым ходом.
func applyMove(s salbp.Solution, mv move, nb Neighborhood) salbp.Solution {
	out := s.Clone()
	if nb == NeighborhoodSwap {
		out[mv.i][mv.a], out[mv.j][mv.b] = out[mv.j][mv.b], out[mv.i][mv.a]
		return out
	}
	task := out[mv.i][mv.a]
	out[mv.i] = append(out[mv.i][:mv.a], out[mv.i][mv.a+1:]...)
	dst := out[mv.j]
	dst = append(dst, 0)
	copy(dst[mv.b+1:], dst[mv.b:])
	dst[mv.b] = task
	out[mv.j] = dst
	return out
}

// tabuList — структура табу-списка.
// Реализована как кольцевой буфер фиксированного размера
// с map для быстрой проверки табуированности.
type tabuList struct {
	m   map[uint64]int // ключ → итерация истечения табу
	key []uint64       // кольцевой буфер ключей
	exp []int          // соответствующие сроки истечения
	i   int            // текущая позиция в кольце
}

// newTabuList создаёт табу-список заданной ёмкости.
func newTabuList(capacity int) *tabuList {
	if capacity < 8 {
		capacity = 8
	}
	return &tabuList{
		m:   make(map[uint64]int, capacity*2),
		key: make([]uint64, capacity),
		exp: make([]int, capacity),
	}
}

// IsTabu проверяет, является ли ход табуированным на текущей итерации.
func (t *tabuList) IsTabu(k uint64, iter int) bool {
	exp, ok := t.m[k]
	return ok && exp > iter
}

// Add добавляет новый табу-ход с указанием итерации истечения.
func (t *tabuList) Add(k uint64, expiry int) {
	// Удаление старого элемента из кольцевого буфера
	oldK := t.key[t.i]
	if oldK != 0 {
		if curExp, ok := t.m[oldK]; ok && curExp == t.exp[t.i] {
			delete(t.m, oldK)
		}
	}

	t.key[t.i] = k
	t.exp[t.i] = expiry
	t.m[k] = expiry

	t.i++
	if t.i >= len(t.key) {
		t.i = 0
	}
}

// moveKey формирует ключ пары (задача, станция); ноль зарезервирован
// под пустую ячейку кольца.
func moveKey(task, station int) uint64 {
	return (uint64(uint32(task)+1) << 21) | uint64(uint32(station))
}
