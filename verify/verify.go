// Package verify compares computed call graphs against expected results
// stored in golden files.
//
// A golden file consists of sections. A line starting with '<' is the
// signature of a method and starts a new section; every other non-blank line
// of the section has the form
//
//	<call unit> -> <callees>
//
// where <callees> is the formatted callee list of the call, e.g.
// "[<A: void m()>, <B: void m()>]". Blank lines are ignored.
package verify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BarrensZeppelin/andersen"
	"github.com/BarrensZeppelin/andersen/internal/slices"
	"github.com/BarrensZeppelin/andersen/ir"
)

var (
	ErrUnreadableExpected = errors.New("unreadable expected result file")
	ErrMalformedExpected  = errors.New("malformed expected result file")
)

// Config selects the expected results to compare against.
type Config struct {
	// Path of the golden file.
	ExpectedPath string
	// MaxSteps is passed to the analysis by Check.
	MaxSteps int
}

// CallGraph is the part of a call graph needed for comparison.
type CallGraph interface {
	Callees(site *ir.Call) []*ir.Method
}

// Checker accumulates mismatches between expected and computed callees.
type Checker struct {
	// method signature -> call unit -> formatted callees
	expected   map[string]map[string]string
	mismatches map[string]struct{}
}

// NewChecker reads the golden file named by cfg.
func NewChecker(cfg Config) (*Checker, error) {
	f, err := os.Open(cfg.ExpectedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableExpected, err)
	}
	defer f.Close()

	c, err := ParseExpected(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ExpectedPath, err)
	}
	return c, nil
}

// ParseExpected creates a checker from golden file contents.
func ParseExpected(r io.Reader) (*Checker, error) {
	c := &Checker{
		expected:   make(map[string]map[string]string),
		mismatches: make(map[string]struct{}),
	}

	var method string
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "<"):
			method = strings.TrimSpace(line)
		case strings.TrimSpace(line) == "":
		default:
			unit, callees, found := strings.Cut(line, " -> ")
			if !found {
				return nil, fmt.Errorf("%w: line %d: missing \" -> \": %q",
					ErrMalformedExpected, lineNo, line)
			}
			if method == "" {
				return nil, fmt.Errorf("%w: line %d: call unit outside of a method section",
					ErrMalformedExpected, lineNo)
			}

			calls := c.expected[method]
			if calls == nil {
				calls = make(map[string]string)
				c.expected[method] = calls
			}
			calls[unit] = callees
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableExpected, err)
	}
	return c, nil
}

// FormatCallees renders a callee list in the golden file format. The
// callees are sorted by signature.
func FormatCallees(callees []*ir.Method) string {
	sigs := slices.Map(callees, (*ir.Method).Signature)
	sort.Strings(sigs)
	return "[" + strings.Join(sigs, ", ") + "]"
}

// Compare records a mismatch for every call in m whose computed callees
// differ from the expected ones. A call with no computed callees and no
// expectation is not a mismatch.
func (c *Checker) Compare(m *ir.Method, cg CallGraph) {
	expectedCalls := c.expected[m.Signature()]

	for _, call := range m.Calls() {
		unit := call.String()
		callees := cg.Callees(call)
		given := FormatCallees(callees)

		if expected, found := expectedCalls[unit]; found {
			if expected != given {
				c.mismatch(unit, expected, given)
			}
		} else if len(callees) != 0 {
			c.mismatch(unit, "[]", given)
		}
	}
}

// CompareProgram compares every method of the program.
func (c *Checker) CompareProgram(prog *ir.Program, cg CallGraph) {
	for _, m := range prog.Methods() {
		c.Compare(m, cg)
	}
}

func (c *Checker) mismatch(unit, expected, given string) {
	c.mismatches[fmt.Sprintf("Callees of %s, expected: %s, given: %s", unit, expected, given)] = struct{}{}
}

// Mismatches returns the mismatches found so far, sorted.
func (c *Checker) Mismatches() []string {
	res := make([]string, 0, len(c.mismatches))
	for m := range c.mismatches {
		res = append(res, m)
	}
	sort.Strings(res)
	return res
}

// Check analyses prog and compares the resulting call graph against the
// golden file named by cfg. Mismatches are returned, not treated as errors;
// errors are reserved for unreadable inputs and failed analyses.
func Check(ctx context.Context, prog *ir.Program, cfg Config) ([]string, error) {
	checker, err := NewChecker(cfg)
	if err != nil {
		return nil, err
	}

	res, err := andersen.Analyze(ctx, andersen.AnalysisConfig{
		Program:  prog,
		MaxSteps: cfg.MaxSteps,
	})
	if err != nil {
		return nil, err
	}

	checker.CompareProgram(prog, res.CallGraph)
	return checker.Mismatches(), nil
}

// Dump writes the call graph of every method of prog with at least one
// resolved call in the golden file format.
func Dump(w io.Writer, prog *ir.Program, cg CallGraph) error {
	bw := bufio.NewWriter(w)
	first := true
	for _, m := range prog.Methods() {
		calls := slices.Filter(m.Calls(), func(call *ir.Call) bool {
			return len(cg.Callees(call)) != 0
		})
		if len(calls) == 0 {
			continue
		}
		lines := slices.Map(calls, func(call *ir.Call) string {
			return fmt.Sprintf("%s -> %s", call, FormatCallees(cg.Callees(call)))
		})

		if !first {
			bw.WriteByte('\n')
		}
		first = false

		sort.Strings(lines)
		fmt.Fprintln(bw, m.Signature())
		for _, l := range lines {
			fmt.Fprintln(bw, l)
		}
	}
	return bw.Flush()
}
