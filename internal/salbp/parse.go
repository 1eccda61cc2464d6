package salbp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseErrorKind tells what part of an instance file was malformed.
type ParseErrorKind string

const (
	BadHeader      ParseErrorKind = "bad_header"
	BadCost        ParseErrorKind = "bad_cost"
	BadPair        ParseErrorKind = "bad_pair"
	PairOutOfRange ParseErrorKind = "pair_out_of_range"
	Truncated      ParseErrorKind = "truncated"
	Invalid        ParseErrorKind = "invalid"
)

type ParseError struct {
	Kind ParseErrorKind
	Line int // 1-based, 0 when the error is not tied to a line
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is a ParseError of the given kind.
func IsParseError(err error, kind ParseErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

// Load reads an instance file, see Parse for the format.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	inst, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// Parse reads the precedence-graph text format: the task count, one cost per
// line, then "a,b" pairs of 1-based task ids meaning a precedes b. The pair
// list ends at EOF, at a blank line or at a pair containing -1.
func Parse(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimSpace(sc.Text()), true
	}

	head, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, &ParseError{Kind: Truncated, Msg: "read header", Err: err}
		}
		return nil, &ParseError{Kind: Truncated, Msg: "empty input"}
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return nil, &ParseError{Kind: BadHeader, Line: line, Msg: fmt.Sprintf("task count %q", head), Err: err}
	}
	if n <= 0 {
		return nil, &ParseError{Kind: BadHeader, Line: line, Msg: fmt.Sprintf("task count must be > 0 (got %d)", n)}
	}

	costs := make([]int, n)
	for i := 0; i < n; i++ {
		s, ok := next()
		if !ok {
			return nil, &ParseError{Kind: Truncated, Line: line, Msg: fmt.Sprintf("expected %d costs, got %d", n, i)}
		}
		c, err := strconv.Atoi(s)
		if err != nil {
			return nil, &ParseError{Kind: BadCost, Line: line, Msg: fmt.Sprintf("cost of task %d", i+1), Err: err}
		}
		if c < 0 {
			return nil, &ParseError{Kind: BadCost, Line: line, Msg: fmt.Sprintf("cost of task %d must be >= 0 (got %d)", i+1, c)}
		}
		costs[i] = c
	}

	var edges []Edge
	for {
		s, ok := next()
		if !ok || s == "" {
			break
		}
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return nil, &ParseError{Kind: BadPair, Line: line, Msg: fmt.Sprintf("expected \"a,b\", got %q", s)}
		}
		a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
		b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err := errors.Join(errA, errB); err != nil {
			return nil, &ParseError{Kind: BadPair, Line: line, Msg: fmt.Sprintf("pair %q", s), Err: err}
		}
		if a == -1 || b == -1 {
			break
		}
		if a < 1 || a > n || b < 1 || b > n {
			return nil, &ParseError{Kind: PairOutOfRange, Line: line, Msg: fmt.Sprintf("pair %d,%d outside [1,%d]", a, b, n)}
		}
		edges = append(edges, Edge{From: a - 1, To: b - 1})
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Kind: Truncated, Line: line, Msg: "read precedences", Err: err}
	}

	inst, err := NewInstance(n, costs, edges)
	if err != nil {
		return nil, &ParseError{Kind: Invalid, Msg: "instance", Err: err}
	}
	return inst, nil
}
