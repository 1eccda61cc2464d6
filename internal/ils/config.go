package ils

import (
	"fmt"
	"time"
)

type Config struct {
	// Бюджет времени одного запуска — единственное условие остановки
	TimeBudget time.Duration

	// Сколько раз пертурбация пытается получить решение, отсутствующее в истории
	MaxPerturbAttempts int

	// Доля станций (в процентах), задающая число обменов в одной пертурбации
	SwapPercent int
}

func DefaultConfig() Config {
	return Config{
		TimeBudget:         60 * time.Second,
		MaxPerturbAttempts: 200,
		SwapPercent:        30,
	}
}

func (c Config) Validate() error {
	if c.TimeBudget <= 0 {
		return fmt.Errorf(
			"TimeBudget должно быть > 0 (получено %s)",
			c.TimeBudget,
		)
	}
	if c.MaxPerturbAttempts <= 0 {
		return fmt.Errorf(
			"MaxPerturbAttempts должно быть > 0 (получено %d)",
			c.MaxPerturbAttempts,
		)
	}
	if c.SwapPercent <= 0 || c.SwapPercent > 100 {
		return fmt.Errorf(
			"SwapPercent должно лежать в интервале (0,100] (получено %d)",
			c.SwapPercent,
		)
	}
	return nil
}

// swapCount — число обменов в одной пертурбации, не меньше одного.
func (c Config) swapCount(stations int) int {
	n := c.SwapPercent * stations / 100
	if n < 1 {
		return 1
	}
	return n
}
