package andersen

import (
	"github.com/BarrensZeppelin/andersen/ir"
	"golang.org/x/tools/container/intsets"
)

// Result is the fixpoint computed by Analyze.
type Result struct {
	Reachable   map[*ir.Method]bool
	CallGraph   *CallGraph
	Diagnostics []Diagnostic
	// Steps is the number of work items processed by the solver.
	Steps int

	pfg  *FlowGraph
	heap *heap
}

// PointsToSet is an immutable view of the points-to set of a pointer.
type PointsToSet struct {
	heap *heap
	set  *intsets.Sparse
}

var emptySet intsets.Sparse

// Objects returns the objects in the set, sorted by ID.
func (s PointsToSet) Objects() []*Object {
	res := make([]*Object, 0, s.set.Len())
	s.heap.iterate(s.set, func(o *Object) { res = append(res, o) })
	return res
}

func (s PointsToSet) Len() int { return s.set.Len() }

func (s PointsToSet) IsEmpty() bool { return s.set.IsEmpty() }

func (s PointsToSet) Has(o *Object) bool { return o != nil && s.set.Has(o.id) }

// MayAlias reports whether the two sets share an object.
func (s PointsToSet) MayAlias(o PointsToSet) bool { return s.set.Intersects(o.set) }

func (s PointsToSet) String() string { return s.set.String() }

func (r *Result) pointsTo(p Pointer) PointsToSet {
	if p == nil {
		return PointsToSet{r.heap, &emptySet}
	}
	return PointsToSet{r.heap, &p.base().pts}
}

// PointsTo returns the points-to set of a pointer of the flow graph.
func (r *Result) PointsTo(p Pointer) PointsToSet { return r.pointsTo(p) }

// Var returns the points-to set of a variable. Variables of unreachable
// methods point to nothing.
func (r *Result) Var(v *ir.Var) PointsToSet { return r.pointsTo(r.pfg.lookupVar(v)) }

// InstanceField returns the points-to set of field f of object o.
func (r *Result) InstanceField(o *Object, f *ir.Field) PointsToSet {
	return r.pointsTo(r.pfg.lookupField(o, f))
}

// StaticField returns the points-to set of a static field.
func (r *Result) StaticField(f *ir.Field) PointsToSet {
	return r.pointsTo(r.pfg.lookupStatic(f))
}

// ArrayIndex returns the points-to set of the elements of array object o.
func (r *Result) ArrayIndex(o *Object) PointsToSet {
	return r.pointsTo(r.pfg.lookupArray(o))
}

// Objects returns every abstract object, sorted by ID.
func (r *Result) Objects() []*Object { return r.heap.objects }

// ObjectOf returns the abstract object of an allocation site, or nil if the
// site is unreachable.
func (r *Result) ObjectOf(site *ir.New) *Object { return r.heap.bySite[site] }

// FlowGraph returns the final pointer flow graph.
func (r *Result) FlowGraph() *FlowGraph { return r.pfg }

func (ctx *aContext) result() *Result {
	return &Result{
		Reachable:   ctx.cg.reachable,
		CallGraph:   ctx.cg,
		Diagnostics: ctx.diagnostics,
		Steps:       ctx.steps,

		pfg:  ctx.pfg,
		heap: ctx.heap,
	}
}
