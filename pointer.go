package andersen

import (
	"fmt"

	"github.com/BarrensZeppelin/andersen/ir"
	"golang.org/x/tools/container/intsets"
)

// Pointer is a node in the pointer flow graph. A pointer is one of
// [*VarPointer], [*InstanceFieldPointer], [*StaticFieldPointer] and
// [*ArrayIndexPointer]. Pointers are interned by the flow graph, so two
// pointers with the same key are the same value.
type Pointer interface {
	fmt.Stringer
	// ID is the dense index of the pointer in its flow graph.
	ID() int

	base() *ptrNode
}

type ptrNode struct {
	id  int
	pts intsets.Sparse
	out []*Edge
}

func (n *ptrNode) ID() int         { return n.id }
func (n *ptrNode) base() *ptrNode { return n }

// VarPointer is the pointer of a local variable, parameter, or this-variable.
type VarPointer struct {
	ptrNode
	Var *ir.Var

	// Statements that use the variable as a base or receiver. They are fired
	// for every object that reaches the variable.
	loads   []*ir.InstanceLoad
	stores  []*ir.InstanceStore
	aloads  []*ir.ArrayLoad
	astores []*ir.ArrayStore
	calls   []*ir.Call
}

func (p *VarPointer) String() string {
	return fmt.Sprintf("%v/%s", p.Var.Method, p.Var.Name)
}

// InstanceFieldPointer is the pointer of a field of an abstract object.
type InstanceFieldPointer struct {
	ptrNode
	Base  *Object
	Field *ir.Field
}

func (p *InstanceFieldPointer) String() string {
	return fmt.Sprintf("[%v].%s", p.Base, p.Field.Name)
}

// StaticFieldPointer is the pointer of a static field.
type StaticFieldPointer struct {
	ptrNode
	Field *ir.Field
}

func (p *StaticFieldPointer) String() string { return p.Field.Signature() }

// ArrayIndexPointer is the pointer of every element of an abstract array
// object.
type ArrayIndexPointer struct {
	ptrNode
	Array *Object
}

func (p *ArrayIndexPointer) String() string {
	return fmt.Sprintf("[%v][*]", p.Array)
}
