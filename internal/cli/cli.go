// Package cli implements the linebal command-line interface.
//
// # Commands
//
//   - solve: balance one line with a single solver run
//   - bench: repeated runs per station count with a summary report
//   - render: draw a given station assignment with Graphviz
//   - generate: write a random precedence-graph instance
//   - history: list experiments stored in the results database
//
// All commands support --verbose (-v) for debug logging and --config to
// point at a TOML experiment file.
package cli

import (
	"io"
	"math/rand"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"assemblyLine/internal/bench"
	"assemblyLine/internal/config"
	"assemblyLine/internal/ils"
	"assemblyLine/internal/opt"
	"assemblyLine/internal/sa"
	"assemblyLine/internal/ts"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "linebal",
		Short:        "Balance assembly lines with iterated local search",
		Long:         `linebal assigns precedence-constrained tasks to a fixed number of stations, minimising the cycle time of the busiest station.`,
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML experiment file (default ./"+config.DefaultFile+" if present)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.historyCommand())

	return root
}

func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// Фабрики

func newILSFactory(cfg ils.Config, logger *log.Logger) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, err := ils.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil
		}
		solver.Logger = logger
		return solver
	}
}

func newSAFactory(cfg sa.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, err := sa.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil
		}
		return solver
	}
}

func newTSFactory(cfg ts.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, err := ts.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil
		}
		return solver
	}
}

func availableAlgorithms(cfg config.Config, logger *log.Logger) map[string]bench.Algorithm {
	return map[string]bench.Algorithm{
		"ILS": {Name: "ILS", Factory: newILSFactory(cfg.ILSConfig(), logger)},
		"SA":  {Name: "SA", Factory: newSAFactory(cfg.SAConfig())},
		"TS":  {Name: "TS", Factory: newTSFactory(cfg.TSConfig())},
	}
}

func selectAlgorithms(names []string, available map[string]bench.Algorithm) ([]bench.Algorithm, error) {
	var selected []bench.Algorithm
	for _, n := range names {
		al, ok := available[strings.ToUpper(strings.TrimSpace(n))]
		if !ok {
			return nil, errUnknownAlgorithm(n, keys(available))
		}
		selected = append(selected, al)
	}
	return selected, nil
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
