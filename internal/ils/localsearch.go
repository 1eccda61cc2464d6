package ils

import "assemblyLine/internal/salbp"

// localSearch — один полный проход по окрестности обменов двух задач между
// станциями i < j. Возвращает лучшего допустимого соседа, строго
// улучшающего значение целевой функции, либо исходное решение.
//
// Один вызов не гарантирует локального оптимума: движок вызывает его
// ровно один раз на итерацию.
func (e *engine) localSearch(sol salbp.Solution, fo int) (salbp.Solution, int) {
	best, bestFO := sol, fo
	m := len(sol)
	loads := sol.Loads(e.costs)

	// Кандидат ссылается на неизменённые станции исходного решения,
	// станции i и j собираются в отдельных буферах
	cand := make(salbp.Solution, m)
	copy(cand, sol)

	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			// Максимальная загрузка среди остальных станций
			rest := 0
			for k, l := range loads {
				if k != i && k != j && l > rest {
					rest = l
				}
			}

			for a, t1 := range sol[i] {
				for b, t2 := range sol[j] {
					li := loads[i] - e.costs[t1] + e.costs[t2]
					lj := loads[j] - e.costs[t2] + e.costs[t1]
					candFO := max(rest, li, lj)
					e.evals++

					// Неулучшающие ходы не могут стать лучшими,
					// проверка предшествования для них не нужна
					if candFO >= bestFO {
						continue
					}

					cand[i] = exchanged(e.bufI[:0], sol[i], a, t2)
					cand[j] = exchanged(e.bufJ[:0], sol[j], b, t1)
					e.bufI, e.bufJ = cand[i], cand[j]

					if !e.eval.Feasible(cand) {
						continue
					}

					best = cand.Clone()
					bestFO = candFO
				}
			}
			cand[i], cand[j] = sol[i], sol[j]
		}
	}
	return best, bestFO
}

// exchanged записывает в dst станцию src без элемента в позиции at
// и с задачей in, добавленной в конец.
func exchanged(dst, src []int, at, in int) []int {
	dst = append(dst, src[:at]...)
	dst = append(dst, src[at+1:]...)
	return append(dst, in)
}
