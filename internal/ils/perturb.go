package ils

import "assemblyLine/internal/salbp"

// perturb выполняет серию случайных обменов задачами между станциями.
// Обмен, нарушающий предшествование, сразу откатывается. Возвращается
// первое полученное решение, которого нет в истории; если за
// MaxPerturbAttempts попыток такого нет — текущее решение без изменений.
func (e *engine) perturb(cur salbp.Solution) salbp.Solution {
	m := len(cur)
	if m < 2 {
		return cur
	}
	swaps := e.cfg.swapCount(m)

	for attempt := 0; attempt < e.cfg.MaxPerturbAttempts; attempt++ {
		cand := cur.Clone()

		for k := 0; k < swaps; k++ {
			// Две различные станции
			s1 := e.rng.Intn(m)
			s2 := e.rng.Intn(m - 1)
			if s2 >= s1 {
				s2++
			}
			if len(cand[s1]) == 0 || len(cand[s2]) == 0 {
				continue
			}

			a := e.rng.Intn(len(cand[s1]))
			b := e.rng.Intn(len(cand[s2]))
			t1, t2 := cand[s1][a], cand[s2][b]

			old1, old2 := cand[s1], cand[s2]
			cand[s1] = exchanged(make([]int, 0, len(old1)), old1, a, t2)
			cand[s2] = exchanged(make([]int, 0, len(old2)), old2, b, t1)

			// Откат недопустимого обмена
			if !e.eval.Feasible(cand) {
				cand[s1], cand[s2] = old1, old2
			}
		}

		if !e.hist.Contains(cand) {
			return cand
		}
	}
	e.perturbFallbacks++
	return cur
}
