// Package render draws a balanced line as a Graphviz diagram: one cluster per
// station, tasks as nodes and precedence constraints as edges.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"assemblyLine/internal/salbp"
)

// Options configures diagram rendering.
type Options struct {
	// Costs adds the task cost below the task number.
	Costs bool
	// Title is drawn above the diagram when set.
	Title string
}

// ToDOT converts a solution to Graphviz DOT. Stations at the cycle time are
// filled to mark the bottleneck.
func ToDOT(inst *salbp.Instance, sol salbp.Solution, opts Options) string {
	loads := sol.Loads(inst.Costs)
	cycle := salbp.CycleTime(sol, inst.Costs)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	for i, st := range sol {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("Station %d (%d)", i+1, loads[i]))
		if loads[i] == cycle && cycle > 0 {
			buf.WriteString("    style=filled;\n    fillcolor=\"#fde2e1\";\n")
		} else {
			buf.WriteString("    style=rounded;\n")
		}
		for _, t := range st {
			fmt.Fprintf(&buf, "    %s [label=%q];\n", nodeID(t), taskLabel(inst, t, opts.Costs))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range inst.Precedences {
		fmt.Fprintf(&buf, "  %s -> %s;\n", nodeID(e.From), nodeID(e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(task int) string { return fmt.Sprintf("t%d", task+1) }

func taskLabel(inst *salbp.Instance, task int, costs bool) string {
	if !costs {
		return fmt.Sprintf("%d", task+1)
	}
	return fmt.Sprintf("%d\n%d", task+1, inst.Costs[task])
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
