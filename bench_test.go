package andersen_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/BarrensZeppelin/andersen"
	"github.com/BarrensZeppelin/andersen/ir"
	"github.com/stretchr/testify/require"
)

var blackHole any

// synthesize builds a program with n classes C0..Cn-1 extending a common base
// class. Every class overrides m, which stores its argument into a field of
// the receiver and calls m on the value previously stored there. The entry
// method allocates one object of each class and threads them through an
// array, so every call site ends up dispatching to every override.
func synthesize(n int) *ir.Program {
	prog := ir.NewProgram()
	h := prog.Hierarchy

	base := h.Declare("Base", ir.ClassDecl{})
	next := base.AddField("next", base, false)
	base.AddMethod(ir.MethodDecl{Name: "m", ParamTypes: []*ir.Type{base}, ParamNames: []string{"x"}})

	for i := 0; i < n; i++ {
		cls := h.Declare(fmt.Sprintf("C%d", i), ir.ClassDecl{Super: "Base"})
		m := cls.AddMethod(ir.MethodDecl{
			Name:       "m",
			ParamTypes: []*ir.Type{base},
			ParamNames: []string{"x"},
		})

		prev := m.NewVar("prev", base)
		m.Add(&ir.InstanceLoad{LHS: prev, Base: m.This, Field: next})
		m.Add(&ir.InstanceStore{Base: m.This, Field: next, RHS: m.Params[0]})
		m.Add(&ir.Call{Kind: ir.VirtualCall, Ref: m.Ref(), Recv: prev, Args: []*ir.Var{m.This}})
		m.Add(&ir.Return{})
	}

	main := h.Declare("Main", ir.ClassDecl{}).AddMethod(ir.MethodDecl{Name: "main", Static: true})
	arr := main.NewVar("arr", h.ArrayOf(base))
	elem := main.NewVar("e", base)
	main.Add(&ir.New{LHS: arr, Type: h.ArrayOf(base)})

	for i := 0; i < n; i++ {
		v := main.NewVar(fmt.Sprintf("o%d", i), base)
		main.Add(&ir.New{LHS: v, Type: h.Class(fmt.Sprintf("C%d", i))})
		main.Add(&ir.ArrayStore{Base: arr, RHS: v})
	}

	main.Add(&ir.ArrayLoad{LHS: elem, Base: arr})
	main.Add(&ir.Call{
		Kind: ir.VirtualCall,
		Ref:  base.Method("void m(Base)").Ref(),
		Recv: elem,
		Args: []*ir.Var{elem},
	})

	prog.Entries = []*ir.Method{main}
	return prog
}

func TestSynthesized(t *testing.T) {
	const n = 8
	prog := synthesize(n)
	res, err := andersen.Analyze(context.Background(), andersen.AnalysisConfig{Program: prog})
	require.NoError(t, err)

	// main, plus every override.
	require.Len(t, res.CallGraph.Reachable(), n+1)
	// One call in main and one in each override, each dispatching to every
	// override.
	require.Equal(t, (n+1)*n, res.CallGraph.NumEdges())
	require.Empty(t, res.Diagnostics)
}

// Benchmark performance of pointer analysis (and call graph construction) on
// synthesized programs of increasing size.
func BenchmarkAnalysis(b *testing.B) {
	for _, n := range [...]int{10, 50, 200} {
		prog := synthesize(n)
		b.Run(fmt.Sprintf("Classes=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				res, err := andersen.Analyze(context.Background(), andersen.AnalysisConfig{Program: prog})
				require.NoError(b, err)
				blackHole = res
			}
		})
	}
}
