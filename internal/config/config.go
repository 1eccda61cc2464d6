// Package config loads experiment settings from a TOML file. Every field is
// optional; missing values fall back to Default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"assemblyLine/internal/ils"
	"assemblyLine/internal/sa"
	"assemblyLine/internal/ts"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "linebal.toml"

type Config struct {
	Instance   string   `toml:"instance"`
	Stations   []int    `toml:"stations"`
	Runs       int      `toml:"runs"`
	TimeBudget Duration `toml:"time_budget"`
	Seed       int64    `toml:"seed"`
	Parallel   int      `toml:"parallel"`
	Algorithms []string `toml:"algorithms"`

	ILS    ILS    `toml:"ils"`
	SA     SA     `toml:"sa"`
	TS     TS     `toml:"ts"`
	Output Output `toml:"output"`
}

type ILS struct {
	MaxPerturbAttempts int `toml:"max_perturb_attempts"`
	SwapPercent        int `toml:"swap_percent"`
}

type SA struct {
	IterationsPerTask int     `toml:"iterations_per_task"`
	InitialTemp       float64 `toml:"initial_temp"`
	FinalTemp         float64 `toml:"final_temp"`
	Alpha             float64 `toml:"alpha"`
	Neighborhood      string  `toml:"neighborhood"`
}

type TS struct {
	IterationsPerTask int    `toml:"iterations_per_task"`
	TabuTenure        int    `toml:"tabu_tenure"`
	TabuTenureRand    int    `toml:"tabu_tenure_rand"`
	NeighborsPerIter  int    `toml:"neighbors_per_iter"`
	Neighborhood      string `toml:"neighborhood"`
}

type Output struct {
	CSV    string `toml:"csv"`
	DB     string `toml:"db"`
	SVGDir string `toml:"svg_dir"`
	Log    string `toml:"log"`
}

// Duration decodes TOML strings such as "60s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default mirrors the reference experiment: three line sizes, five
// repetitions of one minute each.
func Default() Config {
	ic := ils.DefaultConfig()
	sc := sa.DefaultConfig()
	tc := ts.DefaultConfig()
	return Config{
		Stations:   []int{6, 8, 10},
		Runs:       5,
		TimeBudget: Duration{ic.TimeBudget},
		Seed:       1000,
		Parallel:   1,
		Algorithms: []string{"ILS"},
		ILS: ILS{
			MaxPerturbAttempts: ic.MaxPerturbAttempts,
			SwapPercent:        ic.SwapPercent,
		},
		SA: SA{
			IterationsPerTask: sc.IterationsPerTask,
			InitialTemp:       sc.InitialTemp,
			FinalTemp:         sc.FinalTemp,
			Alpha:             sc.Alpha,
			Neighborhood:      string(sc.Neighborhood),
		},
		TS: TS{
			IterationsPerTask: tc.IterationsPerTask,
			TabuTenure:        tc.TabuTenure,
			TabuTenureRand:    tc.TabuTenureRand,
			NeighborsPerIter:  tc.NeighborsPerIter,
			Neighborhood:      string(tc.Neighborhood),
		},
		Output: Output{
			CSV: "artifacts/results.csv",
			DB:  "artifacts/results.db",
		},
	}
}

// Load decodes path over the defaults. A missing DefaultFile is not an
// error; any other missing path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if len(c.Stations) == 0 {
		return errors.New("at least one station count is required")
	}
	for _, m := range c.Stations {
		if m <= 0 {
			return fmt.Errorf("station count must be > 0 (got %d)", m)
		}
	}
	if c.Runs <= 0 {
		return fmt.Errorf("runs must be > 0 (got %d)", c.Runs)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must be >= 0 (got %d)", c.Parallel)
	}
	if len(c.Algorithms) == 0 {
		return errors.New("at least one algorithm is required")
	}
	for _, a := range c.Algorithms {
		switch strings.ToUpper(a) {
		case "ILS", "SA", "TS":
		default:
			return fmt.Errorf("unknown algorithm %q; available: ILS, SA, TS", a)
		}
	}
	if err := c.ILSConfig().Validate(); err != nil {
		return fmt.Errorf("ils: %w", err)
	}
	if err := c.SAConfig().Validate(); err != nil {
		return fmt.Errorf("sa: %w", err)
	}
	if err := c.TSConfig().Validate(); err != nil {
		return fmt.Errorf("ts: %w", err)
	}
	return nil
}

func (c Config) ILSConfig() ils.Config {
	return ils.Config{
		TimeBudget:         c.TimeBudget.Duration,
		MaxPerturbAttempts: c.ILS.MaxPerturbAttempts,
		SwapPercent:        c.ILS.SwapPercent,
	}
}

func (c Config) SAConfig() sa.Config {
	return sa.Config{
		IterationsPerTask: c.SA.IterationsPerTask,
		InitialTemp:       c.SA.InitialTemp,
		FinalTemp:         c.SA.FinalTemp,
		Alpha:             c.SA.Alpha,
		Neighborhood:      sa.Neighborhood(c.SA.Neighborhood),
	}
}

func (c Config) TSConfig() ts.Config {
	return ts.Config{
		IterationsPerTask: c.TS.IterationsPerTask,
		TabuTenure:        c.TS.TabuTenure,
		TabuTenureRand:    c.TS.TabuTenureRand,
		NeighborsPerIter:  c.TS.NeighborsPerIter,
		Neighborhood:      ts.Neighborhood(c.TS.Neighborhood),
	}
}
