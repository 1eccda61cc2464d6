package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"assemblyLine/internal/store"
)

func (c *CLI) historyCommand() *cobra.Command {
	var (
		dbPath string
		id     string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored experiments or show the summary of one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				dbPath = cfg.Output.DB
			}
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("results database %s: %w", dbPath, err)
			}
			db, err := store.New(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if id != "" {
				records, err := db.Summaries(ctx, id)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return fmt.Errorf("experiment %s has no stored summaries", id)
				}
				fmt.Fprintln(out, summaryTable(records))
				return nil
			}

			exps, err := db.ListExperiments(ctx, limit)
			if err != nil {
				return err
			}
			if len(exps) == 0 {
				fmt.Fprintln(out, styleLabel.Render("No experiments stored in "+dbPath))
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(styleRule).
				Headers("ID", "CREATED", "INSTANCE", "TASKS", "RUNS", "BUDGET", "ALGOS")
			for _, e := range exps {
				t.Row(e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Instance,
					fmt.Sprint(e.Tasks), fmt.Sprint(e.Runs), e.TimeBudget.String(), e.Note)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite results database (default from config)")
	cmd.Flags().StringVar(&id, "id", "", "show the summary of this experiment")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of experiments to list")

	return cmd
}
