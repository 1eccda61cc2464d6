package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"assemblyLine/internal/bench"
	"assemblyLine/internal/salbp"
)

// reporter prints run reports to the terminal with styling and, when a
// log file is configured, the same text without styling to the file.
type reporter struct {
	out  io.Writer
	file io.Writer
}

func (r reporter) emit(plain, styled []string) {
	fmt.Fprintln(r.out, strings.Join(styled, "\n"))
	if r.file != nil {
		fmt.Fprintln(r.file, strings.Join(plain, "\n"))
	}
}

// solution prints one station assignment with its cycle time and elapsed
// time. Tasks are shown 1-based.
func (r reporter) solution(title string, sol salbp.Solution, costs []int, fo int, elapsed time.Duration) {
	loads := sol.Loads(costs)
	var plain, styled []string

	plain = append(plain, "______________________________________", title+":")
	styled = append(styled, styleRule.Render("______________________________________"), styleTitle.Render(title+":"))

	for i, st := range sol {
		label := fmt.Sprintf("Station %d:", i+1)
		tasks := salbp.FormatTasks(st)
		load := fmt.Sprintf("(%d)", loads[i])
		plain = append(plain, fmt.Sprintf("%s %s %s", label, tasks, load))

		loadStyle := styleLabel
		if loads[i] == fo {
			loadStyle = styleBottle
		}
		styled = append(styled, fmt.Sprintf("%s %s %s", styleLabel.Render(label), tasks, loadStyle.Render(load)))
	}

	secs := strconv.FormatFloat(elapsed.Seconds(), 'f', 4, 64)
	plain = append(plain,
		fmt.Sprintf("FO: %d", fo),
		fmt.Sprintf("Elapsed: %s s", secs),
		"-------------------------------",
	)
	styled = append(styled,
		styleLabel.Render("FO: ")+styleNumber.Render(strconv.Itoa(fo)),
		styleLabel.Render("Elapsed: ")+styleNumber.Render(secs)+" s",
		styleRule.Render("-------------------------------"),
	)
	r.emit(plain, styled)
}

// summary prints the statistics of repeated runs for one station count.
func (r reporter) summary(rec bench.Record) {
	rows := [][2]string{
		{"Best FO", strconv.Itoa(rec.CycleBest)},
		{"Mean FO", strconv.FormatFloat(rec.CycleMean, 'f', 2, 64)},
		{"Deviation", strconv.FormatFloat(rec.DeviationPct, 'f', 2, 64) + "%"},
		{"T. best (s)", strconv.FormatFloat(rec.TimeToBestMinMs/1000, 'f', 4, 64)},
		{"Mean time (s)", strconv.FormatFloat(rec.TimeMeanMs/1000, 'f', 4, 64)},
	}
	title := fmt.Sprintf("*** %s, %d stations, %d runs ***", rec.Algo, rec.Stations, rec.Runs)

	plain := []string{"", title}
	styled := []string{"", styleTitle.Render(title)}
	for _, row := range rows {
		plain = append(plain, row[0]+": "+row[1])
		styled = append(styled, styleLabel.Render(row[0]+": ")+styleNumber.Render(row[1]))
	}
	r.emit(plain, styled)
}

// summaryTable renders all records as one table.
func summaryTable(records []bench.Record) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleRule).
		Headers("ALGO", "STATIONS", "RUNS", "BEST FO", "MEAN FO", "DEV %", "T. BEST (s)", "MEAN TIME (s)")
	for _, rec := range records {
		t.Row(
			rec.Algo,
			strconv.Itoa(rec.Stations),
			strconv.Itoa(rec.Runs),
			strconv.Itoa(rec.CycleBest),
			strconv.FormatFloat(rec.CycleMean, 'f', 2, 64),
			strconv.FormatFloat(rec.DeviationPct, 'f', 2, 64),
			strconv.FormatFloat(rec.TimeToBestMinMs/1000, 'f', 4, 64),
			strconv.FormatFloat(rec.TimeMeanMs/1000, 'f', 4, 64),
		)
	}
	return t.String()
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}
