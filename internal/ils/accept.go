package ils

import "assemblyLine/internal/salbp"

// history — история посещённых решений одного запуска.
// Порядок добавления сохраняется, проверка принадлежности идёт по
// каноническому ключу решения.
type history struct {
	keys []string
	seen map[string]struct{}
}

func newHistory() *history {
	return &history{seen: make(map[string]struct{})}
}

func (h *history) Add(s salbp.Solution) {
	k := s.Key()
	h.keys = append(h.keys, k)
	h.seen[k] = struct{}{}
}

func (h *history) Contains(s salbp.Solution) bool {
	_, ok := h.seen[s.Key()]
	return ok
}

// Len — число добавлений, включая повторы.
func (h *history) Len() int { return len(h.keys) }

// Distinct — число различных решений в истории.
func (h *history) Distinct() int { return len(h.seen) }

// accept — критерий принятия: кандидат становится текущим, если он строго
// лучше текущего или ещё не встречался в истории.
//
// Ухудшающий, но новый кандидат тоже принимается, ограничения на
// величину ухудшения нет.
func accept(cur salbp.Solution, curFO int, cand salbp.Solution, candFO int, h *history) (salbp.Solution, int) {
	if candFO < curFO {
		return cand, candFO
	}
	if !h.Contains(cand) {
		return cand, candFO
	}
	return cur, curFO
}
