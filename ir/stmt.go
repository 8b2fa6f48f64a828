package ir

import (
	"fmt"
	"strings"
)

// Stmt is a statement in a method body. The set of statement kinds is closed:
// only types in this package implement Stmt.
type Stmt interface {
	// Parent returns the method containing the statement.
	Parent() *Method
	fmt.Stringer

	setParent(*Method)
}

type stmtBase struct{ parent *Method }

func (s *stmtBase) Parent() *Method     { return s.parent }
func (s *stmtBase) setParent(m *Method) { s.parent = m }

// New is an allocation site: LHS = new Type.
type New struct {
	stmtBase
	LHS  *Var
	Type *Type
}

func (s *New) String() string { return fmt.Sprintf("%s = new %s", s.LHS, s.Type) }

// Assign is a copy: LHS = RHS.
type Assign struct {
	stmtBase
	LHS, RHS *Var
}

func (s *Assign) String() string { return fmt.Sprintf("%s = %s", s.LHS, s.RHS) }

// Cast is a checked copy: LHS = (Type) RHS.
type Cast struct {
	stmtBase
	LHS, RHS *Var
	Type     *Type
}

func (s *Cast) String() string { return fmt.Sprintf("%s = (%s) %s", s.LHS, s.Type, s.RHS) }

// InstanceLoad reads an instance field: LHS = Base.Field.
type InstanceLoad struct {
	stmtBase
	LHS, Base *Var
	Field     *Field
}

func (s *InstanceLoad) String() string {
	return fmt.Sprintf("%s = %s.%s", s.LHS, s.Base, s.Field.Name)
}

// InstanceStore writes an instance field: Base.Field = RHS.
type InstanceStore struct {
	stmtBase
	Base  *Var
	Field *Field
	RHS   *Var
}

func (s *InstanceStore) String() string {
	return fmt.Sprintf("%s.%s = %s", s.Base, s.Field.Name, s.RHS)
}

// StaticLoad reads a static field: LHS = Class.Field.
type StaticLoad struct {
	stmtBase
	LHS   *Var
	Field *Field
}

func (s *StaticLoad) String() string {
	return fmt.Sprintf("%s = %s.%s", s.LHS, s.Field.Class, s.Field.Name)
}

// StaticStore writes a static field: Class.Field = RHS.
type StaticStore struct {
	stmtBase
	Field *Field
	RHS   *Var
}

func (s *StaticStore) String() string {
	return fmt.Sprintf("%s.%s = %s", s.Field.Class, s.Field.Name, s.RHS)
}

// ArrayLoad reads an element of an array: LHS = Base[*]. Indices are not
// modelled.
type ArrayLoad struct {
	stmtBase
	LHS, Base *Var
}

func (s *ArrayLoad) String() string { return fmt.Sprintf("%s = %s[*]", s.LHS, s.Base) }

// ArrayStore writes an element of an array: Base[*] = RHS.
type ArrayStore struct {
	stmtBase
	Base, RHS *Var
}

func (s *ArrayStore) String() string { return fmt.Sprintf("%s[*] = %s", s.Base, s.RHS) }

// CallKind is the dispatch kind of a call site.
type CallKind int

const (
	// StaticCall invokes a static method.
	StaticCall CallKind = iota
	// SpecialCall invokes a constructor, private method or super method. The
	// target does not depend on the runtime type of the receiver.
	SpecialCall
	// VirtualCall dispatches on the runtime type of the receiver.
	VirtualCall
	// InterfaceCall dispatches like VirtualCall on a receiver of interface
	// type.
	InterfaceCall
)

func (k CallKind) String() string {
	switch k {
	case StaticCall:
		return "static"
	case SpecialCall:
		return "special"
	case VirtualCall:
		return "virtual"
	case InterfaceCall:
		return "interface"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// ParseCallKind parses the result of CallKind.String.
func ParseCallKind(s string) (CallKind, error) {
	for _, k := range [...]CallKind{StaticCall, SpecialCall, VirtualCall, InterfaceCall} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown call kind %q", s)
}

// Call is a method invocation: [Result =] Recv.Ref(Args...).
type Call struct {
	stmtBase
	Kind CallKind
	Ref  MethodRef
	// Recv is nil for static calls.
	Recv *Var
	Args []*Var
	// Result is nil if the returned value is discarded.
	Result *Var
	// Text, when set, is used as the textual rendering of the call.
	Text string
}

// IsStatic reports whether the call has no receiver.
func (s *Call) IsStatic() bool { return s.Kind == StaticCall }

func (s *Call) String() string {
	if s.Text != "" {
		return s.Text
	}

	var sb strings.Builder
	if s.Result != nil {
		fmt.Fprintf(&sb, "%s = ", s.Result)
	}
	if s.Recv != nil {
		sb.WriteString(s.Recv.Name)
	} else {
		sb.WriteString(s.Ref.Class.String())
	}
	fmt.Fprintf(&sb, ".%s(", s.Ref.Name)
	for i, a := range s.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Return returns Value from the enclosing method. Value is nil for returns
// from void methods.
type Return struct {
	stmtBase
	Value *Var
}

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.Name
}
