package ils

import (
	"math/rand"

	"assemblyLine/internal/salbp"
)

// stationSizes раздаёт задачи по станциям по кругу и перемешивает
// полученный вектор размеров. Сумма размеров всегда равна tasks.
func stationSizes(tasks, stations int, rng *rand.Rand) []int {
	sizes := make([]int, stations)
	for i := 0; i < tasks; i++ {
		sizes[i%stations]++
	}
	rng.Shuffle(len(sizes), func(i, j int) {
		sizes[i], sizes[j] = sizes[j], sizes[i]
	})
	return sizes
}

// buildInitial формирует допустимое начальное решение: топологическая
// последовательность режется на станции согласно случайным размерам.
func buildInitial(g *salbp.Graph, costs []int, stations int, rng *rand.Rand) (salbp.Solution, int) {
	sizes := stationSizes(g.Tasks(), stations, rng)
	order := g.RandomOrder(rng)

	sol := make(salbp.Solution, stations)
	pos := 0
	for st, size := range sizes {
		sol[st] = make([]int, 0, size+1)
		for k := 0; k < size && pos < len(order); k++ {
			sol[st] = append(sol[st], order[pos])
			pos++
		}
	}
	return sol, salbp.CycleTime(sol, costs)
}
