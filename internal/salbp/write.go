package salbp

import (
	"bufio"
	"fmt"
	"io"
)

// Write stores inst in the format read by Parse, ending the pair list with
// the -1,-1 sentinel.
func Write(w io.Writer, inst *Instance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, inst.Tasks)
	for _, c := range inst.Costs {
		fmt.Fprintln(bw, c)
	}
	for _, e := range inst.Precedences {
		fmt.Fprintf(bw, "%d,%d\n", e.From+1, e.To+1)
	}
	fmt.Fprintln(bw, "-1,-1")
	return bw.Flush()
}
