package cli

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"assemblyLine/internal/salbp"
)

func (c *CLI) generateCommand() *cobra.Command {
	var (
		tasks   int
		density float64
		minCost int
		maxCost int
		seed    int64
		output  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random acyclic instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tasks <= 0 {
				return fmt.Errorf("tasks must be > 0 (got %d)", tasks)
			}
			if density < 0 || density > 1 {
				return fmt.Errorf("density must be in [0,1] (got %f)", density)
			}
			if minCost < 0 || maxCost < minCost {
				return fmt.Errorf("invalid cost bounds [%d,%d]", minCost, maxCost)
			}
			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			inst := salbp.RandomInstance(tasks, density, minCost, maxCost, rand.New(rand.NewSource(seed)))

			if output == "" || output == "-" {
				return salbp.Write(cmd.OutOrStdout(), inst)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := salbp.Write(f, inst); err != nil {
				return err
			}
			c.Logger.Info("Generated instance", "path", output, "tasks", tasks, "edges", len(inst.Precedences), "seed", seed)
			return f.Close()
		},
	}

	cmd.Flags().IntVarP(&tasks, "tasks", "n", 30, "number of tasks")
	cmd.Flags().Float64Var(&density, "density", 0.1, "probability of a precedence between two tasks")
	cmd.Flags().IntVar(&minCost, "min-cost", 1, "minimum task cost")
	cmd.Flags().IntVar(&maxCost, "max-cost", 99, "maximum task cost")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
