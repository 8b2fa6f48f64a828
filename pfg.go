package andersen

import (
	"fmt"

	"github.com/BarrensZeppelin/andersen/ir"
)

// EdgeKind describes why values flow along a pointer flow graph edge.
type EdgeKind int

const (
	LocalAssign EdgeKind = iota
	// Cast edges only let objects through whose type is a subtype of the
	// edge's type.
	Cast
	InstanceLoad
	InstanceStore
	StaticLoad
	StaticStore
	ArrayLoad
	ArrayStore
	ParameterPassing
	Return
)

var edgeKindNames = [...]string{
	LocalAssign:      "LOCAL_ASSIGN",
	Cast:             "CAST",
	InstanceLoad:     "INSTANCE_LOAD",
	InstanceStore:    "INSTANCE_STORE",
	StaticLoad:       "STATIC_LOAD",
	StaticStore:      "STATIC_STORE",
	ArrayLoad:        "ARRAY_LOAD",
	ArrayStore:       "ARRAY_STORE",
	ParameterPassing: "PARAMETER_PASSING",
	Return:           "RETURN",
}

func (k EdgeKind) String() string {
	if int(k) < len(edgeKindNames) {
		return edgeKindNames[k]
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// Edge is a directed pointer flow graph edge: the points-to set of From flows
// into To, filtered by Type if it is non-nil.
type Edge struct {
	Kind     EdgeKind
	From, To Pointer
	Type     *ir.Type
}

func (e *Edge) String() string {
	if e.Type != nil {
		return fmt.Sprintf("[%v]%v -(%v)-> %v", e.Kind, e.From, e.Type, e.To)
	}
	return fmt.Sprintf("[%v]%v -> %v", e.Kind, e.From, e.To)
}

type edgeKey struct {
	kind     EdgeKind
	from, to int
	typ      *ir.Type
}

type fieldKey struct {
	base  *Object
	field *ir.Field
}

// FlowGraph is the pointer flow graph. It owns every pointer and edge; both
// are only ever added.
type FlowGraph struct {
	pointers []Pointer
	edges    map[edgeKey]*Edge

	vars    map[*ir.Var]*VarPointer
	fields  map[fieldKey]*InstanceFieldPointer
	statics map[*ir.Field]*StaticFieldPointer
	arrays  map[*Object]*ArrayIndexPointer
}

func NewFlowGraph() *FlowGraph {
	return &FlowGraph{
		edges:   make(map[edgeKey]*Edge),
		vars:    make(map[*ir.Var]*VarPointer),
		fields:  make(map[fieldKey]*InstanceFieldPointer),
		statics: make(map[*ir.Field]*StaticFieldPointer),
		arrays:  make(map[*Object]*ArrayIndexPointer),
	}
}

func (g *FlowGraph) register(p Pointer, n *ptrNode) {
	n.id = len(g.pointers)
	g.pointers = append(g.pointers, p)
}

// VarPointer returns the pointer of a variable, creating it on first request.
func (g *FlowGraph) VarPointer(v *ir.Var) *VarPointer {
	if p, found := g.vars[v]; found {
		return p
	}

	p := &VarPointer{Var: v}
	g.register(p, &p.ptrNode)
	g.vars[v] = p
	return p
}

// InstanceField returns the pointer of field f of object o, creating it on
// first request.
func (g *FlowGraph) InstanceField(o *Object, f *ir.Field) *InstanceFieldPointer {
	key := fieldKey{o, f}
	if p, found := g.fields[key]; found {
		return p
	}

	p := &InstanceFieldPointer{Base: o, Field: f}
	g.register(p, &p.ptrNode)
	g.fields[key] = p
	return p
}

// StaticField returns the pointer of a static field, creating it on first
// request.
func (g *FlowGraph) StaticField(f *ir.Field) *StaticFieldPointer {
	if p, found := g.statics[f]; found {
		return p
	}

	p := &StaticFieldPointer{Field: f}
	g.register(p, &p.ptrNode)
	g.statics[f] = p
	return p
}

// ArrayIndex returns the pointer of the elements of array object o, creating
// it on first request.
func (g *FlowGraph) ArrayIndex(o *Object) *ArrayIndexPointer {
	if p, found := g.arrays[o]; found {
		return p
	}

	p := &ArrayIndexPointer{Array: o}
	g.register(p, &p.ptrNode)
	g.arrays[o] = p
	return p
}

// AddEdge adds an edge to the graph and reports whether it was new. Adding an
// edge that is already present leaves the graph unchanged.
func (g *FlowGraph) AddEdge(kind EdgeKind, from, to Pointer, typ *ir.Type) bool {
	key := edgeKey{kind, from.ID(), to.ID(), typ}
	if _, found := g.edges[key]; found {
		return false
	}

	e := &Edge{Kind: kind, From: from, To: to, Type: typ}
	g.edges[key] = e
	n := from.base()
	n.out = append(n.out, e)
	return true
}

// OutEdges returns the edges leaving p, in insertion order.
func (g *FlowGraph) OutEdges(p Pointer) []*Edge { return p.base().out }

// Pointers returns every pointer in the graph, in creation order.
func (g *FlowGraph) Pointers() []Pointer { return g.pointers }

func (g *FlowGraph) NumPointers() int { return len(g.pointers) }

func (g *FlowGraph) NumEdges() int { return len(g.edges) }

func (g *FlowGraph) lookupVar(v *ir.Var) Pointer {
	if p, found := g.vars[v]; found {
		return p
	}
	return nil
}

func (g *FlowGraph) lookupField(o *Object, f *ir.Field) Pointer {
	if p, found := g.fields[fieldKey{o, f}]; found {
		return p
	}
	return nil
}

func (g *FlowGraph) lookupStatic(f *ir.Field) Pointer {
	if p, found := g.statics[f]; found {
		return p
	}
	return nil
}

func (g *FlowGraph) lookupArray(o *Object) Pointer {
	if p, found := g.arrays[o]; found {
		return p
	}
	return nil
}
