package andersen

import (
	"testing"

	"github.com/BarrensZeppelin/andersen/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	prog := ir.NewProgram()
	h := prog.Hierarchy

	iface := h.Declare("I", ir.ClassDecl{Interface: true})
	iface.AddMethod(ir.MethodDecl{Name: "run", Abstract: true})
	iDefault := iface.AddMethod(ir.MethodDecl{Name: "stop"})

	base := h.Declare("Base", ir.ClassDecl{Interfaces: []string{"I"}})
	baseM := base.AddMethod(ir.MethodDecl{Name: "m"})
	baseRun := base.AddMethod(ir.MethodDecl{Name: "run"})
	helper := base.AddMethod(ir.MethodDecl{Name: "helper", Static: true})

	sub := h.Declare("Sub", ir.ClassDecl{Super: "Base"})
	subM := sub.AddMethod(ir.MethodDecl{Name: "m"})

	hash := h.Object().AddMethod(ir.MethodDecl{Name: "hashCode", Return: h.Primitive("int")})

	main := base.AddMethod(ir.MethodDecl{Name: "main", Static: true})
	x := main.NewVar("x", base)
	object := func(typ *ir.Type) *Object {
		n := &ir.New{LHS: x, Type: typ}
		main.Add(n)
		return &Object{Site: n}
	}
	oBase, oSub := object(base), object(sub)
	oArr := object(h.ArrayOf(sub))

	call := func(kind ir.CallKind, m *ir.Method) *ir.Call {
		c := &ir.Call{Kind: kind, Ref: m.Ref()}
		if kind != ir.StaticCall {
			c.Recv = x
		}
		main.Add(c)
		return c
	}

	r := NewResolver(h)
	for _, tc := range []struct {
		name   string
		call   *ir.Call
		recv   *Object
		target *ir.Method
	}{
		{"Static", call(ir.StaticCall, helper), nil, helper},
		{"VirtualBase", call(ir.VirtualCall, baseM), oBase, baseM},
		{"VirtualOverride", call(ir.VirtualCall, baseM), oSub, subM},
		{"SpecialIgnoresReceiver", call(ir.SpecialCall, baseM), oSub, baseM},
		{"InterfaceInherited", call(ir.InterfaceCall, baseRun), oSub, baseRun},
		{"InterfaceDefault", call(ir.InterfaceCall, iDefault), oSub, iDefault},
		{"ArrayReceiver", call(ir.VirtualCall, hash), oArr, hash},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := r.Resolve(tc.call, tc.recv)
			require.NoError(t, err)
			assert.Same(t, tc.target, m)
		})
	}

	t.Run("StaticOnInstanceMethod", func(t *testing.T) {
		c := &ir.Call{Kind: ir.StaticCall, Ref: baseM.Ref()}
		_, err := r.Resolve(c, nil)
		assert.ErrorIs(t, err, ir.ErrResolution)
	})

	t.Run("Missing", func(t *testing.T) {
		ref := baseM.Ref()
		ref.Name = "missing"
		_, err := r.Resolve(&ir.Call{Kind: ir.VirtualCall, Ref: ref, Recv: x}, oSub)
		assert.ErrorIs(t, err, ir.ErrResolution)
	})

	t.Run("VirtualWithoutReceiver", func(t *testing.T) {
		assert.Panics(t, func() {
			r.Resolve(&ir.Call{Kind: ir.VirtualCall, Ref: baseM.Ref(), Recv: x}, nil)
		})
	})

	t.Run("EdgeKinds", func(t *testing.T) {
		assert.Equal(t, ir.VirtualCall, dispatchKind(ir.InterfaceCall))
		assert.Equal(t, ir.SpecialCall, dispatchKind(ir.SpecialCall))
	})
}
