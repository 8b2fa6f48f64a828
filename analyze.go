package andersen

import (
	"context"
	"errors"
	"fmt"

	"github.com/BarrensZeppelin/andersen/internal/queue"
	"github.com/BarrensZeppelin/andersen/ir"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/container/intsets"
)

// ErrBudgetExceeded is returned when the solver pops more work items than
// allowed by AnalysisConfig.MaxSteps.
var ErrBudgetExceeded = errors.New("analysis budget exceeded")

// Number of work items processed between checks for context cancellation.
const cancelCheckInterval = 1 << 10

type AnalysisConfig struct {
	Program *ir.Program

	// Entries overrides the entry methods of Program when non-empty.
	Entries []*ir.Method

	// MaxSteps bounds the number of work items processed. Zero means no
	// bound. Exceeding the bound aborts the analysis without a result.
	MaxSteps int

	// OnPointsTo, if non-nil, is called every time an object is added to the
	// points-to set of a pointer. Each (pointer, object) pair is reported at
	// most once.
	OnPointsTo func(p Pointer, o *Object)
}

// Diagnostic records a receiver object for which a call site could not be
// resolved. The object is skipped for that call site only.
type Diagnostic struct {
	Site   *ir.Call
	Object *Object
	Err    error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%v: %v: %v", d.Site.Parent(), d.Site, d.Err)
}

// workItem is either a points-to delta for a pointer or a method that has
// become reachable.
type workItem struct {
	ptr    Pointer
	delta  *intsets.Sparse
	method *ir.Method
}

type aContext struct {
	config AnalysisConfig
	h      *ir.Hierarchy

	queue    queue.Queue[workItem]
	pfg      *FlowGraph
	heap     *heap
	cg       *CallGraph
	resolver *Resolver

	diagnostics []Diagnostic
	// (call site, receiver type) pairs that have been logged as unresolved.
	logged map[diagKey]bool
	steps  int
}

type diagKey struct {
	site *ir.Call
	typ  *ir.Type
}

// Analyze runs the pointer analysis and call graph construction to a
// fixpoint. The program is validated first; an invalid program is reported
// as an error wrapping ir.ErrMalformedIR and nothing is analysed.
//
// Cancellation of ctx and exhaustion of MaxSteps stop the analysis
// immediately; no partial result is returned.
func Analyze(ctx context.Context, config AnalysisConfig) (*Result, error) {
	prog := config.Program
	if prog == nil {
		return nil, fmt.Errorf("%w: no program", ir.ErrMalformedIR)
	}

	entries := config.Entries
	if len(entries) == 0 {
		entries = prog.Entries
	}

	validated := *prog
	validated.Entries = entries
	if err := validated.Validate(); err != nil {
		return nil, err
	}

	actx := &aContext{
		config:   config,
		h:        prog.Hierarchy,
		pfg:      NewFlowGraph(),
		heap:     newHeap(),
		cg:       NewCallGraph(),
		resolver: NewResolver(prog.Hierarchy),
		logged:   make(map[diagKey]bool),
	}

	for _, m := range entries {
		if actx.cg.AddEntry(m) {
			actx.queue.Push(workItem{method: m})
		}
	}

	if err := actx.solve(ctx); err != nil {
		return nil, err
	}

	log.Debugf("Solver done: %d steps, %d reachable methods, %d call edges, %d pointers, %d flow edges",
		actx.steps, len(actx.cg.reachable), actx.cg.NumEdges(),
		actx.pfg.NumPointers(), actx.pfg.NumEdges())

	return actx.result(), nil
}

func (ctx *aContext) solve(goctx context.Context) error {
	if err := goctx.Err(); err != nil {
		return err
	}

	for !ctx.queue.Empty() {
		if limit := ctx.config.MaxSteps; limit > 0 && ctx.steps >= limit {
			return fmt.Errorf("%w: %d work items processed", ErrBudgetExceeded, ctx.steps)
		}
		if ctx.steps%cancelCheckInterval == 0 {
			if err := goctx.Err(); err != nil {
				return err
			}
		}

		item := ctx.queue.Pop()
		ctx.steps++

		if item.method != nil {
			ctx.processMethod(item.method)
		} else {
			ctx.propagate(item.ptr, item.delta)
		}
	}

	return nil
}

func (ctx *aContext) enqueue(p Pointer, delta *intsets.Sparse) {
	ctx.queue.Push(workItem{ptr: p, delta: delta})
}

func (ctx *aContext) addReachable(m *ir.Method) {
	if ctx.cg.AddReachable(m) {
		ctx.queue.Push(workItem{method: m})
	}
}

// propagate adds the objects of delta to the points-to set of p, and pushes
// the objects that were not already present along the out-edges of p.
func (ctx *aContext) propagate(p Pointer, delta *intsets.Sparse) {
	n := p.base()

	var diff intsets.Sparse
	diff.Difference(delta, &n.pts)
	if diff.IsEmpty() {
		return
	}

	n.pts.UnionWith(&diff)

	if hook := ctx.config.OnPointsTo; hook != nil {
		ctx.heap.iterate(&diff, func(o *Object) { hook(p, o) })
	}

	for _, e := range n.out {
		ctx.flow(e.To, &diff, e.Type)
	}

	if vp, ok := p.(*VarPointer); ok {
		ctx.heap.iterate(&diff, func(o *Object) {
			ctx.processObject(vp, o)
		})
	}
}

// flow enqueues the objects of set, filtered by typ if it is non-nil, for
// propagation into to.
func (ctx *aContext) flow(to Pointer, set *intsets.Sparse, typ *ir.Type) {
	delta := new(intsets.Sparse)
	if typ == nil {
		delta.Copy(set)
	} else {
		ctx.heap.iterate(set, func(o *Object) {
			if ctx.h.IsSubtype(o.Type(), typ) {
				delta.Insert(o.id)
			}
		})
	}

	if !delta.IsEmpty() {
		ctx.enqueue(to, delta)
	}
}

// addEdge adds an edge to the pointer flow graph. If the edge is new, the
// current points-to set of from is propagated along it.
func (ctx *aContext) addEdge(kind EdgeKind, from, to Pointer, typ *ir.Type) {
	if !ctx.pfg.AddEdge(kind, from, to, typ) {
		return
	}

	log.Tracef("New flow edge: [%v] %v -> %v", kind, from, to)

	if pts := &from.base().pts; !pts.IsEmpty() {
		ctx.flow(to, pts, typ)
	}
}

// processObject fires the statements that use v as a base or receiver for a
// newly discovered object o in the points-to set of v.
func (ctx *aContext) processObject(v *VarPointer, o *Object) {
	for _, s := range v.loads {
		ctx.addEdge(InstanceLoad, ctx.pfg.InstanceField(o, s.Field), ctx.pfg.VarPointer(s.LHS), nil)
	}
	for _, s := range v.stores {
		ctx.addEdge(InstanceStore, ctx.pfg.VarPointer(s.RHS), ctx.pfg.InstanceField(o, s.Field), nil)
	}
	for _, s := range v.aloads {
		ctx.addEdge(ArrayLoad, ctx.pfg.ArrayIndex(o), ctx.pfg.VarPointer(s.LHS), nil)
	}
	for _, s := range v.astores {
		ctx.addEdge(ArrayStore, ctx.pfg.VarPointer(s.RHS), ctx.pfg.ArrayIndex(o), nil)
	}
	for _, call := range v.calls {
		ctx.dispatch(call, o)
	}
}

// dispatch resolves call for the receiver object recv (nil for static calls)
// and connects the call site to the target.
func (ctx *aContext) dispatch(call *ir.Call, recv *Object) {
	callee, err := ctx.resolver.Resolve(call, recv)
	if err != nil {
		ctx.diagnostics = append(ctx.diagnostics, Diagnostic{Site: call, Object: recv, Err: err})

		var typ *ir.Type
		if recv != nil {
			typ = recv.Type()
		}
		if key := (diagKey{call, typ}); !ctx.logged[key] {
			ctx.logged[key] = true
			log.Debugf("Skipping unresolved call %v in %v: %v", call, call.Parent(), err)
		}
		return
	}

	if ctx.cg.AddEdge(call, callee, dispatchKind(call.Kind)) {
		log.Tracef("New call edge: %v in %v -> %v", call, call.Parent(), callee)
		ctx.addReachable(callee)
	}

	if recv != nil && callee.This != nil {
		ctx.enqueue(ctx.pfg.VarPointer(callee.This), singleton(recv))
	}

	if len(call.Args) != len(callee.Params) {
		log.Panicf("%v: call %v passes %d arguments to %v",
			call.Parent(), call, len(call.Args), callee)
	}

	for i, arg := range call.Args {
		ctx.addEdge(ParameterPassing, ctx.pfg.VarPointer(arg), ctx.pfg.VarPointer(callee.Params[i]), nil)
	}

	if call.Result != nil {
		result := ctx.pfg.VarPointer(call.Result)
		for _, rv := range callee.ReturnVars() {
			ctx.addEdge(Return, ctx.pfg.VarPointer(rv), result, nil)
		}
	}
}

// processMethod wires up the statements of a newly reachable method.
func (ctx *aContext) processMethod(m *ir.Method) {
	log.Debugf("Reachable: %v", m)

	for _, stmt := range m.Stmts {
		switch s := stmt.(type) {
		case *ir.New:
			ctx.enqueue(ctx.pfg.VarPointer(s.LHS), singleton(ctx.heap.object(s)))

		case *ir.Assign:
			if VarPointerLike(s.LHS) {
				ctx.addEdge(LocalAssign, ctx.pfg.VarPointer(s.RHS), ctx.pfg.VarPointer(s.LHS), nil)
			}

		case *ir.Cast:
			if VarPointerLike(s.LHS) {
				ctx.addEdge(Cast, ctx.pfg.VarPointer(s.RHS), ctx.pfg.VarPointer(s.LHS), s.Type)
			}

		case *ir.StaticLoad:
			if PointerLike(s.Field.Type) {
				ctx.addEdge(StaticLoad, ctx.pfg.StaticField(s.Field), ctx.pfg.VarPointer(s.LHS), nil)
			}

		case *ir.StaticStore:
			if PointerLike(s.Field.Type) {
				ctx.addEdge(StaticStore, ctx.pfg.VarPointer(s.RHS), ctx.pfg.StaticField(s.Field), nil)
			}

		case *ir.InstanceLoad:
			if !PointerLike(s.Field.Type) {
				continue
			}
			base := ctx.pfg.VarPointer(s.Base)
			base.loads = append(base.loads, s)
			ctx.heap.iterate(&base.pts, func(o *Object) {
				ctx.addEdge(InstanceLoad, ctx.pfg.InstanceField(o, s.Field), ctx.pfg.VarPointer(s.LHS), nil)
			})

		case *ir.InstanceStore:
			if !PointerLike(s.Field.Type) {
				continue
			}
			base := ctx.pfg.VarPointer(s.Base)
			base.stores = append(base.stores, s)
			ctx.heap.iterate(&base.pts, func(o *Object) {
				ctx.addEdge(InstanceStore, ctx.pfg.VarPointer(s.RHS), ctx.pfg.InstanceField(o, s.Field), nil)
			})

		case *ir.ArrayLoad:
			if !VarPointerLike(s.LHS) {
				continue
			}
			base := ctx.pfg.VarPointer(s.Base)
			base.aloads = append(base.aloads, s)
			ctx.heap.iterate(&base.pts, func(o *Object) {
				ctx.addEdge(ArrayLoad, ctx.pfg.ArrayIndex(o), ctx.pfg.VarPointer(s.LHS), nil)
			})

		case *ir.ArrayStore:
			if !VarPointerLike(s.RHS) {
				continue
			}
			base := ctx.pfg.VarPointer(s.Base)
			base.astores = append(base.astores, s)
			ctx.heap.iterate(&base.pts, func(o *Object) {
				ctx.addEdge(ArrayStore, ctx.pfg.VarPointer(s.RHS), ctx.pfg.ArrayIndex(o), nil)
			})

		case *ir.Call:
			if s.IsStatic() {
				ctx.dispatch(s, nil)
			} else {
				recv := ctx.pfg.VarPointer(s.Recv)
				recv.calls = append(recv.calls, s)
				ctx.heap.iterate(&recv.pts, func(o *Object) { ctx.dispatch(s, o) })
			}

		case *ir.Return:
			// Return values are connected to call results when call edges
			// are added.

		default:
			log.Panicf("Unhandled: %T %v", s, s)
		}
	}
}
