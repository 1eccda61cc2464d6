package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"assemblyLine/internal/render"
	"assemblyLine/internal/salbp"
)

func (c *CLI) renderCommand() *cobra.Command {
	var (
		solution string
		output   string
		format   string
		costs    bool
	)

	cmd := &cobra.Command{
		Use:   "render <instance>",
		Short: "Draw a station assignment as SVG or DOT",
		Long: `render checks a station assignment against the instance and draws it.
The assignment uses 1-based task ids, stations separated by '|':

  linebal render HAHN.IN2 --solution "1,2,4|3,5|6" -o line.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := salbp.Load(args[0])
			if err != nil {
				return err
			}
			sol, err := salbp.ParseSolution(solution)
			if err != nil {
				return err
			}
			ev, err := salbp.NewEvaluator(inst)
			if err != nil {
				return err
			}
			fo, err := ev.Check(sol)
			if err != nil {
				return err
			}

			title := fmt.Sprintf("%s, FO %d", filepath.Base(args[0]), fo)
			dot := render.ToDOT(inst, sol, render.Options{Costs: costs, Title: title})

			var data []byte
			switch strings.ToLower(format) {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = render.RenderSVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q; available: svg, dot", format)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			c.Logger.Info("Rendered", "path", output, "fo", fo)
			return nil
		},
	}

	cmd.Flags().StringVarP(&solution, "solution", "s", "", "station assignment, e.g. \"1,2|3\"")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, dot")
	cmd.Flags().BoolVar(&costs, "costs", true, "show task costs")
	_ = cmd.MarkFlagRequired("solution")

	return cmd
}
