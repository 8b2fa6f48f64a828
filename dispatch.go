package andersen

import (
	"fmt"

	"github.com/BarrensZeppelin/andersen/ir"
)

// Resolver determines the target of a call site for a given receiver object.
type Resolver struct {
	h *ir.Hierarchy
}

func NewResolver(h *ir.Hierarchy) *Resolver {
	return &Resolver{h: h}
}

// Resolve returns the method invoked by call when the receiver is recv.
// recv is ignored for static and special calls, and may be nil for static
// calls. The returned error is an *ir.ResolutionError when no concrete
// target exists.
func (r *Resolver) Resolve(call *ir.Call, recv *Object) (*ir.Method, error) {
	subsig := call.Ref.Subsignature()

	switch call.Kind {
	case ir.StaticCall:
		m, err := r.h.ResolveMethod(call.Ref.Class, subsig)
		if err != nil {
			return nil, err
		}
		if !m.Static {
			return nil, &ir.ResolutionError{Type: call.Ref.Class, Subsignature: subsig,
				Reason: fmt.Sprintf("%v is not static", m)}
		}
		return m, nil

	case ir.SpecialCall:
		m, err := r.h.ResolveMethod(call.Ref.Class, subsig)
		if err != nil {
			return nil, err
		}
		if m.Static || m.Abstract {
			return nil, &ir.ResolutionError{Type: call.Ref.Class, Subsignature: subsig,
				Reason: fmt.Sprintf("%v is not a concrete instance method", m)}
		}
		return m, nil

	case ir.VirtualCall, ir.InterfaceCall:
		if recv == nil {
			panic(fmt.Errorf("%s call %v resolved without a receiver", call.Kind, call))
		}
		return r.h.ResolveVirtual(recv.Type(), subsig)

	default:
		panic(fmt.Errorf("unhandled call kind %v", call.Kind))
	}
}

// dispatchKind is the kind recorded on call graph edges. Interface calls are
// virtual calls.
func dispatchKind(k ir.CallKind) ir.CallKind {
	if k == ir.InterfaceCall {
		return ir.VirtualCall
	}
	return k
}
