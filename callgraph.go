package andersen

import (
	"sort"

	"github.com/BarrensZeppelin/andersen/internal/maps"
	"github.com/BarrensZeppelin/andersen/ir"
)

// CallEdge is an edge of the call graph from a call site to a method it may
// invoke.
type CallEdge struct {
	Site   *ir.Call
	Callee *ir.Method
	// Kind is one of ir.StaticCall, ir.SpecialCall and ir.VirtualCall.
	Kind ir.CallKind
}

// CallGraph records the reachable methods and the resolved targets of their
// call sites. It only grows while the analysis runs.
type CallGraph struct {
	reachable map[*ir.Method]bool
	entries   []*ir.Method
	edges     []CallEdge
	callees   map[*ir.Call]map[*ir.Method]ir.CallKind
	callers   map[*ir.Method]map[*ir.Call]bool
}

func NewCallGraph() *CallGraph {
	return &CallGraph{
		reachable: make(map[*ir.Method]bool),
		callees:   make(map[*ir.Call]map[*ir.Method]ir.CallKind),
		callers:   make(map[*ir.Method]map[*ir.Call]bool),
	}
}

// AddEntry marks m as an entry method. It reports whether m was not
// reachable before.
func (cg *CallGraph) AddEntry(m *ir.Method) bool {
	cg.entries = append(cg.entries, m)
	return cg.AddReachable(m)
}

// AddReachable marks m as reachable and reports whether it was not reachable
// before.
func (cg *CallGraph) AddReachable(m *ir.Method) bool {
	if cg.reachable[m] {
		return false
	}
	cg.reachable[m] = true
	return true
}

// AddEdge adds a call edge and reports whether it was new.
func (cg *CallGraph) AddEdge(site *ir.Call, callee *ir.Method, kind ir.CallKind) bool {
	targets := cg.callees[site]
	if targets == nil {
		targets = make(map[*ir.Method]ir.CallKind)
		cg.callees[site] = targets
	}
	if _, found := targets[callee]; found {
		return false
	}
	targets[callee] = kind

	callers := cg.callers[callee]
	if callers == nil {
		callers = make(map[*ir.Call]bool)
		cg.callers[callee] = callers
	}
	callers[site] = true

	cg.edges = append(cg.edges, CallEdge{site, callee, kind})
	return true
}

// Entries returns the entry methods in the order they were added.
func (cg *CallGraph) Entries() []*ir.Method { return cg.entries }

func (cg *CallGraph) IsReachable(m *ir.Method) bool { return cg.reachable[m] }

// Reachable returns the reachable methods sorted by signature.
func (cg *CallGraph) Reachable() []*ir.Method {
	return maps.SortedKeys(cg.reachable, (*ir.Method).Signature)
}

// Callees returns the methods that may be invoked by site, sorted by
// signature.
func (cg *CallGraph) Callees(site *ir.Call) []*ir.Method {
	return maps.SortedKeys(cg.callees[site], (*ir.Method).Signature)
}

// CalleesOf returns the call sites of m that have at least one callee,
// together with their sorted callees.
func (cg *CallGraph) CalleesOf(m *ir.Method) map[*ir.Call][]*ir.Method {
	res := make(map[*ir.Call][]*ir.Method)
	for _, call := range m.Calls() {
		if callees := cg.Callees(call); len(callees) != 0 {
			res[call] = callees
		}
	}
	return res
}

// Callers returns the call sites that may invoke m, sorted by the signature
// of the containing method and then by their textual representation.
func (cg *CallGraph) Callers(m *ir.Method) []*ir.Call {
	res := maps.Keys(cg.callers[m])
	sortCalls(res)
	return res
}

// EdgeKind returns the dispatch kind of the edge from site to callee, and
// false if there is no such edge.
func (cg *CallGraph) EdgeKind(site *ir.Call, callee *ir.Method) (ir.CallKind, bool) {
	kind, found := cg.callees[site][callee]
	return kind, found
}

// Edges returns every call edge, sorted by call site and callee.
func (cg *CallGraph) Edges() []CallEdge {
	res := make([]CallEdge, len(cg.edges))
	copy(res, cg.edges)
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if a.Site != b.Site {
			return callLess(a.Site, b.Site)
		}
		return a.Callee.Signature() < b.Callee.Signature()
	})
	return res
}

func (cg *CallGraph) NumEdges() int { return len(cg.edges) }

func sortCalls(cs []*ir.Call) {
	sort.SliceStable(cs, func(i, j int) bool { return callLess(cs[i], cs[j]) })
}

func callLess(a, b *ir.Call) bool {
	as, bs := a.Parent().Signature(), b.Parent().Signature()
	if as != bs {
		return as < bs
	}
	return a.String() < b.String()
}
