package ts

import "fmt"

// Neighborhood определяет тип окрестности.
type Neighborhood string

const (
	// Перенос одной задачи на другую станцию в случайную позицию
	NeighborhoodInsert Neighborhood = "insert"
	// Обмен двух задач между двумя станциями
	NeighborhoodSwap Neighborhood = "swap"
)

type Config struct {
	Iterations        int
	IterationsPerTask int

	TabuTenure int

	TabuTenureRand int

	NeighborsPerIter int

	Neighborhood Neighborhood
}

func DefaultConfig() Config {
	return Config{
		Iterations:        0,
		IterationsPerTask: 250,

		TabuTenure:     7,
		TabuTenureRand: 3,

		NeighborsPerIter: 90,
		Neighborhood:     NeighborhoodInsert,
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerTask <= 0 {
		return fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerTask > 0",
		)
	}
	if c.TabuTenure <= 0 {
		return fmt.Errorf(
			"TabuTenure должно быть > 0 (получено %d)",
			c.TabuTenure,
		)
	}
	if c.TabuTenureRand < 0 {
		return fmt.Errorf(
			"TabuTenureRand должно быть >= 0 (получено %d)",
			c.TabuTenureRand,
		)
	}
	if c.NeighborsPerIter <= 0 {
		return fmt.Errorf(
			"NeighborsPerIter должно быть > 0 (получено %d)",
			c.NeighborsPerIter,
		)
	}
	switch c.Neighborhood {
	case NeighborhoodInsert, NeighborhoodSwap:
		// ok
	default:
		return fmt.Errorf(
			"неизвестный тип окрестности %q",
			c.Neighborhood,
		)
	}
	return nil
}
