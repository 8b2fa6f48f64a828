package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Method is a method declaration together with its body. The body is an
// unordered collection of statements: no analysis result depends on the order
// of Stmts.
type Method struct {
	Class      *Type
	Name       string
	ParamTypes []*Type
	Return     *Type

	Static, Abstract, Native bool

	// This is nil for static methods.
	This   *Var
	Params []*Var
	Stmts  []Stmt

	vars       map[string]*Var
	returnVars []*Var
}

// Subsignature renders the method as "ret name(p1,p2)".
func (m *Method) Subsignature() string {
	return subsignature(m.Name, m.ParamTypes, m.Return)
}

// Signature renders the method as "<Class: ret name(p1,p2)>".
func (m *Method) Signature() string {
	return fmt.Sprintf("<%s: %s>", m.Class, m.Subsignature())
}

func (m *Method) String() string { return m.Signature() }

// Ref returns a reference to the method, as used by call statements.
func (m *Method) Ref() MethodRef {
	return MethodRef{Class: m.Class, Name: m.Name, ParamTypes: m.ParamTypes, Return: m.Return}
}

// HasBody reports whether the method may have statements.
func (m *Method) HasBody() bool { return !m.Abstract && !m.Native }

// NewVar declares a local variable. Declaring an existing name returns the
// existing variable if its type matches and panics otherwise.
func (m *Method) NewVar(name string, typ *Type) *Var {
	if v, found := m.vars[name]; found {
		if v.Type != typ {
			panic(fmt.Errorf("%v: variable %s redeclared with type %v (was %v)",
				m, name, typ, v.Type))
		}
		return v
	}

	v := &Var{Name: name, Type: typ, Method: m}
	m.vars[name] = v
	return v
}

// Var returns the variable with the given name, or nil.
func (m *Method) Var(name string) *Var { return m.vars[name] }

// Vars returns every variable of the method, sorted by name.
func (m *Method) Vars() []*Var {
	res := make([]*Var, 0, len(m.vars))
	for _, v := range m.vars {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// ReturnVars returns the set of variables returned by the method's return
// statements.
func (m *Method) ReturnVars() []*Var { return m.returnVars }

// Add appends a statement to the body of the method.
func (m *Method) Add(s Stmt) {
	s.setParent(m)
	m.Stmts = append(m.Stmts, s)

	if ret, ok := s.(*Return); ok && ret.Value != nil {
		for _, v := range m.returnVars {
			if v == ret.Value {
				return
			}
		}
		m.returnVars = append(m.returnVars, ret.Value)
	}
}

// Calls returns the call statements of the method.
func (m *Method) Calls() []*Call {
	var calls []*Call
	for _, s := range m.Stmts {
		if c, ok := s.(*Call); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// Var is a local variable, parameter, or this-variable of a method.
type Var struct {
	Name   string
	Type   *Type
	Method *Method
}

func (v *Var) String() string { return v.Name }

// MethodRef is a symbolic reference to a method, as it appears at a call
// site. It is resolved against the hierarchy during analysis.
type MethodRef struct {
	Class      *Type
	Name       string
	ParamTypes []*Type
	Return     *Type
}

func (r MethodRef) Subsignature() string {
	return subsignature(r.Name, r.ParamTypes, r.Return)
}

func (r MethodRef) String() string {
	return fmt.Sprintf("<%s: %s>", r.Class, r.Subsignature())
}

func subsignature(name string, params []*Type, ret *Type) string {
	var sb strings.Builder
	sb.WriteString(ret.String())
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
