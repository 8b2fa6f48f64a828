package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	setup := func() (*Program, *Method) {
		prog := NewProgram()
		h := prog.Hierarchy
		a := h.Declare("A", ClassDecl{})
		a.AddField("f", h.Object(), false)
		a.AddField("g", h.Object(), true)
		a.AddMethod(MethodDecl{Name: "callee", ParamTypes: []*Type{h.Object()}})

		main := a.AddMethod(MethodDecl{Name: "main", Static: true})
		main.NewVar("x", a)
		prog.Entries = []*Method{main}
		return prog, main
	}

	t.Run("Valid", func(t *testing.T) {
		prog, main := setup()
		a := prog.Hierarchy.Class("A")
		x := main.Var("x")
		main.Add(&New{LHS: x, Type: a})
		main.Add(&InstanceStore{Base: x, Field: a.Field("f"), RHS: x})
		main.Add(&StaticStore{Field: a.Field("g"), RHS: x})
		main.Add(&Call{Kind: VirtualCall, Ref: a.Method("void callee(java.lang.Object)").Ref(), Recv: x, Args: []*Var{x}})
		assert.NoError(t, prog.Validate())
	})

	t.Run("NoEntry", func(t *testing.T) {
		prog, _ := setup()
		prog.Entries = nil
		err := prog.Validate()
		assert.ErrorIs(t, err, ErrNoEntry)
		assert.ErrorIs(t, err, ErrMalformedIR)
	})

	t.Run("AbstractEntry", func(t *testing.T) {
		prog, _ := setup()
		abs := prog.Hierarchy.Class("A").AddMethod(MethodDecl{Name: "abs", Abstract: true})
		prog.Entries = []*Method{abs}
		assert.ErrorIs(t, prog.Validate(), ErrMalformedIR)
	})

	for _, tc := range []struct {
		name  string
		build func(prog *Program, main *Method) Stmt
	}{
		{"AllocateInterface", func(prog *Program, main *Method) Stmt {
			return &New{LHS: main.Var("x"), Type: prog.Hierarchy.Class(CloneableClass)}
		}},
		{"AllocateAbstract", func(prog *Program, main *Method) Stmt {
			abs := prog.Hierarchy.Declare("Abs", ClassDecl{Abstract: true})
			return &New{LHS: main.Var("x"), Type: abs}
		}},
		{"AllocatePrimitive", func(prog *Program, main *Method) Stmt {
			return &New{LHS: main.Var("x"), Type: prog.Hierarchy.Primitive("int")}
		}},
		{"ForeignVariable", func(prog *Program, main *Method) Stmt {
			other := prog.Hierarchy.Class("A").Method("void callee(java.lang.Object)")
			return &Assign{LHS: main.Var("x"), RHS: other.This}
		}},
		{"MissingVariable", func(prog *Program, main *Method) Stmt {
			return &Assign{LHS: main.Var("x")}
		}},
		{"StaticFieldAsInstance", func(prog *Program, main *Method) Stmt {
			x := main.Var("x")
			return &InstanceLoad{LHS: x, Base: x, Field: prog.Hierarchy.Class("A").Field("g")}
		}},
		{"InstanceFieldAsStatic", func(prog *Program, main *Method) Stmt {
			return &StaticLoad{LHS: main.Var("x"), Field: prog.Hierarchy.Class("A").Field("f")}
		}},
		{"Arity", func(prog *Program, main *Method) Stmt {
			callee := prog.Hierarchy.Class("A").Method("void callee(java.lang.Object)")
			return &Call{Kind: VirtualCall, Ref: callee.Ref(), Recv: main.Var("x")}
		}},
		{"StaticWithReceiver", func(prog *Program, main *Method) Stmt {
			return &Call{Kind: StaticCall, Ref: main.Ref(), Recv: main.Var("x")}
		}},
		{"VirtualWithoutReceiver", func(prog *Program, main *Method) Stmt {
			callee := prog.Hierarchy.Class("A").Method("void callee(java.lang.Object)")
			return &Call{Kind: VirtualCall, Ref: callee.Ref(), Args: []*Var{main.Var("x")}}
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			prog, main := setup()
			main.Add(tc.build(prog, main))
			assert.ErrorIs(t, prog.Validate(), ErrMalformedIR)
		})
	}

	t.Run("ForeignStatement", func(t *testing.T) {
		prog, main := setup()
		other := prog.Hierarchy.Class("A").Method("void callee(java.lang.Object)")
		s := &Return{}
		other.Add(s)
		main.Stmts = append(main.Stmts, s)
		assert.ErrorIs(t, prog.Validate(), ErrMalformedIR)
	})

	t.Run("AllViolationsReported", func(t *testing.T) {
		prog, main := setup()
		x := main.Var("x")
		main.Add(&Assign{LHS: x})
		main.Add(&New{LHS: x, Type: prog.Hierarchy.Primitive("int")})

		err := prog.Validate()
		require.Error(t, err)
		joined, ok := err.(interface{ Unwrap() []error })
		require.True(t, ok)
		assert.Len(t, joined.Unwrap(), 2)
	})
}
